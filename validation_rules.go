package modelswitch

import (
	"fmt"
	"math"
)

// ratioTolerance is how far the achieved periodic frequency may drift from the
// requested ratio before a warning is raised.
const ratioTolerance = 0.005

// ScheduleValidationRule checks warm-up and ratio settings
type ScheduleValidationRule struct{}

func (r *ScheduleValidationRule) Name() string {
	return "Schedule Validation"
}

func (r *ScheduleValidationRule) Check(req *ValidationRequest) []ValidationWarning {
	var warnings []ValidationWarning
	cfg := req.Config

	if cfg.MinWarmupTokens >= cfg.MaxTokens {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeWarmupExceedsMax,
			Category: "schedule",
			Field:    "min_warmup_tokens",
			Value:    cfg.MinWarmupTokens,
			Message:  fmt.Sprintf("warm-up (%d) covers max_tokens (%d): switching never begins and every token comes from %s", cfg.MinWarmupTokens, cfg.MaxTokens, cfg.BigModel),
			Severity: SeverityWarning,
		})
	}

	if cfg.SwitchRatio == 0 {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeBaselineOnly,
			Category: "schedule",
			Field:    "switch_ratio",
			Value:    cfg.SwitchRatio,
			Message:  "switch_ratio is 0: running the big-model baseline",
			Severity: SeverityInfo,
		})
		return warnings
	}

	// Only the periodic policy rounds; the random policy hits r in expectation.
	if kind, err := ParsePolicyKind(string(cfg.Policy)); err == nil && kind == PolicyPeriodic {
		effective := EffectiveRatio(cfg.SwitchRatio)
		if math.Abs(effective-cfg.SwitchRatio) > ratioTolerance {
			warnings = append(warnings, ValidationWarning{
				Code:     WarningCodeRatioApproximated,
				Category: "schedule",
				Field:    "switch_ratio",
				Value:    cfg.SwitchRatio,
				Message:  fmt.Sprintf("switch_ratio %g is approximated as every %d tokens (%.3g)", cfg.SwitchRatio, SmallInterval(cfg.SwitchRatio), effective),
				Severity: SeverityInfo,
			})
		}
	}

	return warnings
}

// ModelValidationRule checks model-related warnings against the catalog
type ModelValidationRule struct {
	registry *CapabilityRegistry
}

func (r *ModelValidationRule) Name() string {
	return "Model Validation"
}

func (r *ModelValidationRule) Check(req *ValidationRequest) []ValidationWarning {
	var warnings []ValidationWarning
	cfg := req.Config

	if cfg.BigModel == cfg.SmallModel && req.BigProvider == req.SmallProvider {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeSameModel,
			Category: "model",
			Field:    "small_model",
			Value:    cfg.SmallModel,
			Message:  fmt.Sprintf("big and small model are both %s: switching has no effect", cfg.BigModel),
			Severity: SeverityWarning,
		})
	}

	bigCap, bigErr := r.registry.GetModelCapability(req.BigProvider, cfg.BigModel)
	if bigErr != nil {
		warnings = append(warnings, unknownModelWarning("big_model", cfg.BigModel, req.BigProvider))
	}
	smallCap, smallErr := r.registry.GetModelCapability(req.SmallProvider, cfg.SmallModel)
	if smallErr != nil {
		warnings = append(warnings, unknownModelWarning("small_model", cfg.SmallModel, req.SmallProvider))
	}

	if bigErr == nil && smallErr == nil && bigCap.Tier == RoleSmall && smallCap.Tier == RoleBig {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeSmallLargerThanBig,
			Category: "model",
			Field:    "small_model",
			Value:    cfg.SmallModel,
			Message:  fmt.Sprintf("%s is listed as a small model and %s as a big one: roles look swapped", cfg.BigModel, cfg.SmallModel),
			Severity: SeverityWarning,
		})
	}

	return warnings
}

func unknownModelWarning(field, model string, provider ProviderID) ValidationWarning {
	return ValidationWarning{
		Code:     WarningCodeModelUnknown,
		Category: "model",
		Field:    field,
		Value:    model,
		Message:  fmt.Sprintf("Model %s not found in %s capabilities (capabilities may be outdated)", model, provider),
		Severity: SeverityInfo,
	}
}
