package modelswitch

import (
	"context"
)

// ModelClient is the one capability the switching scheduler needs from a model:
// continue the given context by a single token.
//
// Implementations hold no conversational memory. Every call carries the complete
// shared context (prompt plus every token generated so far, whichever model
// produced it), and each call is independent of the previous one.
//
// Errors must wrap ErrModelUnavailable when the backend cannot be reached and
// ErrModelProtocol when its response cannot be understood. A natural end of
// generation is not an error: it is reported through ModelResponse.Done.
type ModelClient interface {
	GenerateNext(ctx context.Context, req *NextTokenRequest) (*ModelResponse, error)
}

// ModelClientFunc adapts an ordinary function to the ModelClient interface.
type ModelClientFunc func(ctx context.Context, req *NextTokenRequest) (*ModelResponse, error)

// GenerateNext calls f(ctx, req).
func (f ModelClientFunc) GenerateNext(ctx context.Context, req *NextTokenRequest) (*ModelResponse, error) {
	return f(ctx, req)
}

// Provider is a named backend that can serve one or more models.
//
// Types used by this interface:
//   - NextTokenRequest: defined in request.go
//   - ModelResponse: defined in response.go
type Provider interface {
	ModelClient

	// Name returns the provider identifier (e.g., "ollama", "anthropic", "lorem")
	Name() ProviderID

	// SupportsModel returns true if the provider can serve the given model.
	SupportsModel(model string) bool
}

// ModelLister is implemented by providers that can enumerate the models they serve.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
