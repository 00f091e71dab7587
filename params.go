package modelswitch

// RequestParams represents optional sampling parameters forwarded to every model call.
// All fields are optional pointers to distinguish "not set" from "set to zero value".
// The number of generated tokens per call is not configurable: it is always one.
type RequestParams struct {
	// Temperature controls randomness (0.0-2.0)
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// TopP (nucleus sampling) - cumulative probability cutoff (0.0-1.0)
	TopP *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`

	// TopK limits sampling to top K tokens
	TopK *int `json:"top_k,omitempty" yaml:"top_k,omitempty"`

	// Seed for deterministic sampling (if supported by provider)
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Stop sequences - the backend ends generation if any of these are produced
	Stop []string `json:"stop,omitempty" yaml:"stop,omitempty"`
}

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = 0.7

// ValidateRequestParams validates request parameters
func ValidateRequestParams(params *RequestParams) error {
	if params == nil {
		return nil // nil params is valid
	}

	if params.Temperature != nil {
		if *params.Temperature < 0.0 || *params.Temperature > 2.0 {
			return &ValidationError{Field: "temperature", Value: *params.Temperature, Reason: "must be between 0.0 and 2.0"}
		}
	}

	if params.TopP != nil {
		if *params.TopP < 0.0 || *params.TopP > 1.0 {
			return &ValidationError{Field: "top_p", Value: *params.TopP, Reason: "must be between 0.0 and 1.0"}
		}
	}

	if params.TopK != nil {
		if *params.TopK < 0 {
			return &ValidationError{Field: "top_k", Value: *params.TopK, Reason: "must be non-negative"}
		}
	}

	for _, s := range params.Stop {
		if s == "" {
			return &ValidationError{Field: "stop", Value: s, Reason: "stop sequences must not be empty"}
		}
	}

	return nil
}

// GetTemperature returns temperature with default fallback
func (rp *RequestParams) GetTemperature(defaultValue float64) float64 {
	if rp != nil && rp.Temperature != nil {
		return *rp.Temperature
	}
	return defaultValue
}

// GetTopP returns top_p with default fallback
func (rp *RequestParams) GetTopP(defaultValue float64) float64 {
	if rp != nil && rp.TopP != nil {
		return *rp.TopP
	}
	return defaultValue
}

// GetTopK returns top_k with default fallback
func (rp *RequestParams) GetTopK(defaultValue int) int {
	if rp != nil && rp.TopK != nil {
		return *rp.TopK
	}
	return defaultValue
}

// GetStop returns the stop sequences, nil-safe.
func (rp *RequestParams) GetStop() []string {
	if rp == nil {
		return nil
	}
	return rp.Stop
}
