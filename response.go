package modelswitch

import "time"

// Stop reasons reported by providers and the scheduler.
const (
	StopReasonEndOfGeneration = "end_of_generation"
	StopReasonMaxTokens       = "max_tokens"
)

// ModelResponse is the result of one ModelClient call.
type ModelResponse struct {
	// Text is the next token (or short continuation) produced by the model
	Text string

	// Done reports that the model signaled natural completion.
	// When Done is set, Text is not part of the output.
	Done bool

	// Model is the model that answered (may differ from request if aliased)
	Model string

	// Provider is the backend that answered
	Provider ProviderID

	// StopReason is the backend's own reason string (e.g., "stop", "end_turn", "length")
	StopReason string

	// Latency is the wall time of the backend round trip
	Latency time.Duration
}
