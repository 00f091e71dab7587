package modelswitch

import "time"

// StreamEvent represents a single event on a generation stream.
// Each event contains either a token, the final summary, or an error.
type StreamEvent struct {
	// Token is the next generated token (nil if summary/error)
	Token *TokenEvent

	// Summary is sent once when the run reaches its terminal state (nil until end)
	Summary *RunSummary

	// Error is sent instead of Summary when the run failed.
	// Tokens already delivered on the stream remain valid partial output.
	Error error
}

// RunSummary describes a finished run.
type RunSummary struct {
	// Text is the concatenation of every emitted token
	Text string `json:"text"`

	// Total is the number of emitted tokens
	Total int `json:"total"`

	// Big and Small count tokens by producing model
	Big   int `json:"big"`
	Small int `json:"small"`

	// Warmup counts the big-model tokens produced during warm-up
	Warmup int `json:"warmup"`

	// StopReason is StopReasonMaxTokens or StopReasonEndOfGeneration for clean runs
	StopReason string `json:"stop_reason,omitempty"`

	// Duration is the wall time of the run
	Duration time.Duration `json:"duration"`
}

// SmallFraction returns the share of emitted tokens produced by the small model.
func (s *RunSummary) SmallFraction() float64 {
	if s == nil || s.Total == 0 {
		return 0
	}
	return float64(s.Small) / float64(s.Total)
}
