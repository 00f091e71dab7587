// Package lorem is an offline model that emits one lorem ipsum word per
// request. It needs no network or API key, so demos and tests can exercise
// model switching end to end.
package lorem

import (
	"context"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"
	"go.uber.org/zap"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// DefaultEndAfter is the generated word count at which lorem models stop.
const DefaultEndAfter = 60

// Provider is a fake token source that generates lorem ipsum text.
// Used for testing and development without requiring real models.
type Provider struct {
	mu        sync.Mutex
	generator *loremgen.Lorem

	endAfter int
	delay    func(model string) time.Duration
	logger   *zap.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithEndAfter sets how many words are generated before the model reports
// end of generation. Zero or less never ends.
func WithEndAfter(n int) Option {
	return func(p *Provider) { p.endAfter = n }
}

// WithoutDelay disables the simulated per-token latency.
func WithoutDelay() Option {
	return func(p *Provider) { p.delay = func(string) time.Duration { return 0 } }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		generator: loremgen.New(),
		endAfter:  DefaultEndAfter,
		delay:     tokenDelay,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() modelswitch.ProviderID {
	return modelswitch.ProviderLorem
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-big", "lorem-small", "lorem-slow"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// ListModels returns the lorem models known to the capability catalog.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	infos := modelswitch.GetCapabilityRegistry().Models(p.Name())
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.ID)
	}
	return names, nil
}

// GenerateNext returns one word, preceded by a space once text exists.
func (p *Provider) GenerateNext(ctx context.Context, req *modelswitch.NextTokenRequest) (*modelswitch.ModelResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &modelswitch.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      modelswitch.ErrInvalidModel,
		}
	}

	start := time.Now()
	if d := p.delay(req.Model); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	generated := len(strings.Fields(req.Generated))
	if p.endAfter > 0 && generated >= p.endAfter {
		p.logger.Debug("lorem reached end of generation",
			zap.String("model", req.Model),
			zap.Int("words", generated),
		)
		return &modelswitch.ModelResponse{
			Done:       true,
			Model:      req.Model,
			Provider:   p.Name(),
			StopReason: modelswitch.StopReasonEndOfGeneration,
			Latency:    time.Since(start),
		}, nil
	}

	p.mu.Lock()
	word := p.generator.Word(2, 10)
	p.mu.Unlock()

	return &modelswitch.ModelResponse{
		Text:     " " + word,
		Model:    req.Model,
		Provider: p.Name(),
		Latency:  time.Since(start),
	}, nil
}

// tokenDelay simulates latency by model name.
// - lorem-slow: 500ms per token
// - lorem-small: 10ms per token
// - default: 40ms per token
func tokenDelay(model string) time.Duration {
	switch {
	case strings.Contains(model, "slow"):
		return 500 * time.Millisecond
	case strings.Contains(model, "small"):
		return 10 * time.Millisecond
	default:
		return 40 * time.Millisecond
	}
}
