// Package modelswitch generates text by alternating, token by token, between a
// big and a small language model that share one running context.
//
// The root package holds the data model (GenerationConfig, TokenEvent), the
// ModelClient capability every backend implements, typed errors, the model
// catalog and config warnings. The switching loop itself lives in the
// switcher package; concrete backends live under providers/.
package modelswitch

import (
	"fmt"
	"math"
	"strings"
)

// Role identifies which of the two configured models produced a token.
type Role string

const (
	RoleBig   Role = "big"
	RoleSmall Role = "small"
)

// String returns the role name.
func (r Role) String() string {
	return string(r)
}

// Phase identifies the scheduler state a token was produced in.
type Phase string

const (
	// PhaseWarmup tokens come from the big model before switching is considered.
	PhaseWarmup Phase = "warmup"

	// PhaseSwitching tokens were assigned by the selection policy.
	PhaseSwitching Phase = "switching"
)

// TokenEvent is one unit of generated output with its provenance.
// It is immutable once emitted; the scheduler keeps no reference to it.
type TokenEvent struct {
	Text     string `json:"text"`
	Role     Role   `json:"role"`
	Position int    `json:"position"`
	Phase    Phase  `json:"phase"`
	Model    string `json:"model"`
}

// PolicyKind selects how switching-phase positions are assigned.
type PolicyKind string

const (
	// PolicyPeriodic puts every Nth eligible position on the small model, N = round(1/r).
	PolicyPeriodic PolicyKind = "periodic"

	// PolicyRandom flips a seeded coin with probability r at each eligible position.
	PolicyRandom PolicyKind = "random"
)

// ParsePolicyKind converts user input to a PolicyKind. Empty input means periodic.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch PolicyKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPeriodic:
		return PolicyPeriodic, nil
	case PolicyRandom:
		return PolicyRandom, nil
	default:
		return "", &ValidationError{Field: "policy", Value: s, Reason: "must be 'periodic' or 'random'"}
	}
}

// GenerationConfig is the immutable configuration of one run.
type GenerationConfig struct {
	// Prompt is the text both models continue
	Prompt string `json:"prompt" yaml:"prompt"`

	// BigModel is the higher-capability model used for warm-up and non-small positions
	BigModel string `json:"big_model" yaml:"big_model"`

	// SmallModel is the cheaper model used for small positions
	SmallModel string `json:"small_model" yaml:"small_model"`

	// SwitchRatio is the target fraction of post-warm-up tokens given to the small model (0-1).
	// 0 is the big-model-only baseline.
	SwitchRatio float64 `json:"switch_ratio" yaml:"switch_ratio"`

	// MinWarmupTokens is the number of leading tokens always produced by the big model
	MinWarmupTokens int `json:"min_warmup_tokens" yaml:"min_warmup_tokens"`

	// MaxTokens is the hard cap on emitted tokens
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Policy selects the switching policy (periodic when empty)
	Policy PolicyKind `json:"policy,omitempty" yaml:"policy,omitempty"`

	// Seed drives the random policy
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Params are forwarded to every model call
	Params *RequestParams `json:"params,omitempty" yaml:"params,omitempty"`
}

// Validate rejects configs that must not reach a model.
// MaxTokens below MinWarmupTokens is allowed: the run simply ends inside warm-up.
func (c GenerationConfig) Validate() error {
	if math.IsNaN(c.SwitchRatio) || c.SwitchRatio < 0 || c.SwitchRatio > 1 {
		return &ValidationError{Field: "switch_ratio", Value: c.SwitchRatio, Reason: "must be between 0 and 1"}
	}
	if c.MinWarmupTokens < 0 {
		return &ValidationError{Field: "min_warmup_tokens", Value: c.MinWarmupTokens, Reason: "must be non-negative"}
	}
	if c.MaxTokens <= 0 {
		return &ValidationError{Field: "max_tokens", Value: c.MaxTokens, Reason: "must be positive"}
	}
	if strings.TrimSpace(c.BigModel) == "" {
		return &ValidationError{Field: "big_model", Value: c.BigModel, Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.SmallModel) == "" {
		return &ValidationError{Field: "small_model", Value: c.SmallModel, Reason: "must not be empty"}
	}
	if _, err := ParsePolicyKind(string(c.Policy)); err != nil {
		return err
	}
	if err := ValidateRequestParams(c.Params); err != nil {
		return err
	}
	return nil
}

// ModelFor returns the model ID configured for a role.
func (c GenerationConfig) ModelFor(role Role) string {
	if role == RoleSmall {
		return c.SmallModel
	}
	return c.BigModel
}

// String renders the run header printed before generation.
func (c GenerationConfig) String() string {
	return fmt.Sprintf("[big=%s, small=%s, ratio=%g]", c.BigModel, c.SmallModel, c.SwitchRatio)
}
