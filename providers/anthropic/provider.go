package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// Provider implements the modelswitch.Provider interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
// SDK-level retries are disabled: retrying is the caller's decision
// (see modelswitch.RetryClient). Extra request options, such as
// option.WithBaseURL, are passed through to the SDK client.
func NewProvider(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, modelswitch.ErrInvalidAPIKey
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := anthropic.NewClient(clientOpts...)

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() modelswitch.ProviderID {
	return modelswitch.ProviderAnthropic
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// GenerateNext asks Claude for exactly one token continuing the shared context.
func (p *Provider) GenerateNext(ctx context.Context, req *modelswitch.NextTokenRequest) (*modelswitch.ModelResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &modelswitch.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Anthropic (must start with 'claude-')",
			Err:      modelswitch.ErrInvalidModel,
		}
	}

	start := time.Now()
	message, err := p.client.Messages.New(ctx, buildMessageParams(req))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("anthropic request for %s: %w", req.Model, ctxErr)
		}
		return nil, convertError(err)
	}

	response, err := convertFromAnthropicResponse(message)
	if err != nil {
		return nil, err
	}
	response.Text = rejoinPrefill(req.Generated, response.Text)
	response.Latency = time.Since(start)
	return response, nil
}
