package modelswitch

import (
	"testing"
)

func hasCode(warnings []ValidationWarning, code WarningCode) bool {
	return len(FilterWarningsByCode(warnings, code)) > 0
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GenerationConfig)
		big     ProviderID
		small   ProviderID
		want    []WarningCode
		notWant []WarningCode
	}{
		{
			name:    "reference defaults are clean",
			mutate:  func(c *GenerationConfig) {},
			big:     ProviderOllama,
			small:   ProviderOllama,
			notWant: []WarningCode{WarningCodeWarmupExceedsMax, WarningCodeRatioApproximated, WarningCodeModelUnknown, WarningCodeSameModel},
		},
		{
			name:   "warm-up covers max tokens",
			mutate: func(c *GenerationConfig) { c.MinWarmupTokens = 20; c.MaxTokens = 20 },
			big:    ProviderOllama,
			small:  ProviderOllama,
			want:   []WarningCode{WarningCodeWarmupExceedsMax},
		},
		{
			name:   "non-integer interval is approximated",
			mutate: func(c *GenerationConfig) { c.SwitchRatio = 0.4 },
			big:    ProviderOllama,
			small:  ProviderOllama,
			want:   []WarningCode{WarningCodeRatioApproximated},
		},
		{
			name:    "random policy is not approximated",
			mutate:  func(c *GenerationConfig) { c.SwitchRatio = 0.4; c.Policy = PolicyRandom },
			big:     ProviderOllama,
			small:   ProviderOllama,
			notWant: []WarningCode{WarningCodeRatioApproximated},
		},
		{
			name:    "random policy in any case is not approximated",
			mutate:  func(c *GenerationConfig) { c.SwitchRatio = 0.4; c.Policy = "Random" },
			big:     ProviderOllama,
			small:   ProviderOllama,
			notWant: []WarningCode{WarningCodeRatioApproximated},
		},
		{
			name:   "baseline",
			mutate: func(c *GenerationConfig) { c.SwitchRatio = 0 },
			big:    ProviderOllama,
			small:  ProviderOllama,
			want:   []WarningCode{WarningCodeBaselineOnly},
		},
		{
			name:   "same model twice",
			mutate: func(c *GenerationConfig) { c.SmallModel = c.BigModel },
			big:    ProviderOllama,
			small:  ProviderOllama,
			want:   []WarningCode{WarningCodeSameModel},
		},
		{
			name:   "unknown model",
			mutate: func(c *GenerationConfig) { c.SmallModel = "phi9:1b" },
			big:    ProviderOllama,
			small:  ProviderOllama,
			want:   []WarningCode{WarningCodeModelUnknown},
		},
		{
			name:   "roles swapped",
			mutate: func(c *GenerationConfig) { c.BigModel, c.SmallModel = c.SmallModel, c.BigModel },
			big:    ProviderOllama,
			small:  ProviderOllama,
			want:   []WarningCode{WarningCodeSmallLargerThanBig},
		},
		{
			name: "mixed providers",
			mutate: func(c *GenerationConfig) {
				c.BigModel = "claude-sonnet-4-5"
			},
			big:     ProviderAnthropic,
			small:   ProviderOllama,
			notWant: []WarningCode{WarningCodeModelUnknown, WarningCodeSameModel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			warnings := ValidateConfig(cfg, tt.big, tt.small)

			for _, code := range tt.want {
				if !hasCode(warnings, code) {
					t.Errorf("missing warning %s in %+v", code, warnings)
				}
			}
			for _, code := range tt.notWant {
				if hasCode(warnings, code) {
					t.Errorf("unexpected warning %s", code)
				}
			}
		})
	}
}

func TestValidationEngine_CustomRules(t *testing.T) {
	engine := NewValidationEngine(NewCapabilityRegistry())
	if !engine.RemoveRule("Model Validation") {
		t.Fatal("built-in model rule not found")
	}
	if engine.RemoveRule("Nope") {
		t.Error("removed a rule that does not exist")
	}

	req := &ValidationRequest{Config: validConfig(), BigProvider: ProviderOllama, SmallProvider: ProviderOllama}
	if hasCode(engine.Validate(req), WarningCodeModelUnknown) {
		t.Error("model rule still active after removal")
	}
}

func TestFilterWarningsBySeverity(t *testing.T) {
	warnings := []ValidationWarning{
		{Code: WarningCodeBaselineOnly, Severity: SeverityInfo},
		{Code: WarningCodeSameModel, Severity: SeverityWarning},
	}
	got := FilterWarningsBySeverity(warnings, SeverityWarning)
	if len(got) != 1 || got[0].Code != WarningCodeSameModel {
		t.Errorf("FilterWarningsBySeverity() = %+v", got)
	}
}
