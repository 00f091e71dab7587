package modelswitch

import (
	"errors"
	"math"
	"testing"
)

func validConfig() GenerationConfig {
	return GenerationConfig{
		Prompt:          FormatQuestion("What is AI?"),
		BigModel:        "gemma3:4b",
		SmallModel:      "gemma3:270m",
		SwitchRatio:     0.5,
		MinWarmupTokens: 10,
		MaxTokens:       300,
	}
}

func TestGenerationConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*GenerationConfig)
		wantField string
	}{
		{"defaults are valid", func(c *GenerationConfig) {}, ""},
		{"ratio 0 is the baseline", func(c *GenerationConfig) { c.SwitchRatio = 0 }, ""},
		{"ratio 1", func(c *GenerationConfig) { c.SwitchRatio = 1 }, ""},
		{"warm-up above max is allowed", func(c *GenerationConfig) { c.MinWarmupTokens = 500 }, ""},
		{"empty prompt is allowed", func(c *GenerationConfig) { c.Prompt = "" }, ""},
		{"ratio above 1", func(c *GenerationConfig) { c.SwitchRatio = 1.01 }, "switch_ratio"},
		{"ratio below 0", func(c *GenerationConfig) { c.SwitchRatio = -0.5 }, "switch_ratio"},
		{"ratio NaN", func(c *GenerationConfig) { c.SwitchRatio = math.NaN() }, "switch_ratio"},
		{"negative warm-up", func(c *GenerationConfig) { c.MinWarmupTokens = -1 }, "min_warmup_tokens"},
		{"zero max tokens", func(c *GenerationConfig) { c.MaxTokens = 0 }, "max_tokens"},
		{"blank small model", func(c *GenerationConfig) { c.SmallModel = "  " }, "small_model"},
		{"bad policy", func(c *GenerationConfig) { c.Policy = "weighted" }, "policy"},
		{"bad params", func(c *GenerationConfig) { c.Params = &RequestParams{TopP: float64Ptr(3)} }, "top_p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.wantField {
				t.Errorf("Validate() field = %v, want %s", err, tt.wantField)
			}
		})
	}
}

func TestGenerationConfig_ModelForAndString(t *testing.T) {
	cfg := validConfig()
	if cfg.ModelFor(RoleBig) != "gemma3:4b" || cfg.ModelFor(RoleSmall) != "gemma3:270m" {
		t.Errorf("ModelFor mismatch")
	}
	if got, want := cfg.String(), "[big=gemma3:4b, small=gemma3:270m, ratio=0.5]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFormatQuestion(t *testing.T) {
	if got, want := FormatQuestion("Explain gravity"), "Question: Explain gravity\n\nAnswer:"; got != want {
		t.Errorf("FormatQuestion() = %q, want %q", got, want)
	}
}

func TestParsePolicyKind(t *testing.T) {
	tests := []struct {
		in      string
		want    PolicyKind
		wantErr bool
	}{
		{"", PolicyPeriodic, false},
		{"Periodic", PolicyPeriodic, false},
		{" random ", PolicyRandom, false},
		{"bernoulli", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicyKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePolicyKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestEffectiveRatio(t *testing.T) {
	tests := []struct {
		r    float64
		want float64
	}{
		{0, 0},
		{1, 1},
		{0.5, 0.5},
		{0.33, 1.0 / 3},
		{0.7, 1},
		{0.4, 1.0 / 3},
	}
	for _, tt := range tests {
		if got := EffectiveRatio(tt.r); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EffectiveRatio(%g) = %g, want %g", tt.r, got, tt.want)
		}
	}
}

func TestRunSummary_SmallFraction(t *testing.T) {
	var nilSummary *RunSummary
	if nilSummary.SmallFraction() != 0 {
		t.Error("nil summary should report 0")
	}
	if (&RunSummary{}).SmallFraction() != 0 {
		t.Error("empty summary should report 0")
	}
	s := &RunSummary{Total: 8, Big: 6, Small: 2}
	if s.SmallFraction() != 0.25 {
		t.Errorf("SmallFraction() = %v", s.SmallFraction())
	}
}
