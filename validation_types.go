package modelswitch

// Severity indicates how serious a validation warning is
type Severity string

const (
	SeverityInfo    Severity = "info"    // Informational (might be expected)
	SeverityWarning Severity = "warning" // Potentially surprising behavior
)

// WarningCode is a machine-readable identifier for validation warnings
type WarningCode string

const (
	// Schedule warnings
	WarningCodeWarmupExceedsMax  WarningCode = "WARMUP_EXCEEDS_MAX_TOKENS"
	WarningCodeRatioApproximated WarningCode = "RATIO_APPROXIMATED"
	WarningCodeBaselineOnly      WarningCode = "BASELINE_ONLY"

	// Model warnings
	WarningCodeSameModel          WarningCode = "SAME_MODEL"
	WarningCodeModelUnknown       WarningCode = "MODEL_UNKNOWN"
	WarningCodeSmallLargerThanBig WarningCode = "SMALL_LARGER_THAN_BIG"
)

// ValidationWarning represents a config that is accepted but probably not what
// the caller meant. Warnings never block a run.
type ValidationWarning struct {
	Code     WarningCode `json:"code"`            // Machine-readable code
	Category string      `json:"category"`        // "schedule" or "model"
	Field    string      `json:"field"`           // Field that triggered the warning
	Value    any         `json:"value,omitempty"` // The value in question
	Message  string      `json:"message"`         // Human-readable warning
	Severity Severity    `json:"severity"`        // How serious this warning is
}

// ValidationRequest is what rules inspect: a config plus the providers its
// two models resolve to.
type ValidationRequest struct {
	Config        GenerationConfig
	BigProvider   ProviderID
	SmallProvider ProviderID
}

// ValidationRule interface allows adding custom validation logic
type ValidationRule interface {
	// Name returns a human-readable name for this rule
	Name() string

	// Check inspects a request and returns warnings
	Check(req *ValidationRequest) []ValidationWarning
}
