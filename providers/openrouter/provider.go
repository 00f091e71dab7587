package openrouter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// DefaultBaseURL is OpenRouter's API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Provider implements the modelswitch.Provider interface for OpenRouter's
// completions API. OpenRouter proxies requests to many hosted models using an
// OpenAI-compatible format.
//
// Common Issues:
// - 404 errors: Verify model name at https://openrouter.ai/models
// - Chat-only models may reject the plain completions endpoint
type Provider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewProvider creates a new OpenRouter provider with the given API key.
// An empty baseURL means DefaultBaseURL.
func NewProvider(apiKey, baseURL string, timeout time.Duration) (*Provider, error) {
	if apiKey == "" {
		return nil, modelswitch.ErrInvalidAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Provider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() modelswitch.ProviderID {
	return modelswitch.ProviderOpenRouter
}

// SupportsModel returns true if this provider supports the given model.
// OpenRouter supports models in "provider/model" format (e.g., "google/gemma-3-4b-it")
func (p *Provider) SupportsModel(model string) bool {
	return strings.Contains(model, "/")
}

// GenerateNext requests a single completion token continuing req.Context().
func (p *Provider) GenerateNext(ctx context.Context, req *modelswitch.NextTokenRequest) (*modelswitch.ModelResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &modelswitch.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by OpenRouter (must be in 'provider/model' format)",
			Err:      modelswitch.ErrInvalidModel,
		}
	}

	start := time.Now()
	httpReq, err := p.buildHTTPRequest(ctx, buildCompletionRequest(req))
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("openrouter request for %s: %w", req.Model, ctxErr)
		}
		return nil, modelswitch.NewUnavailableError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, modelswitch.NewProtocolError(p.Name(), "reading response: %v", err)
	}

	var completion CompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, modelswitch.NewProtocolError(p.Name(), "failed to parse response: %v", err)
	}
	if completion.Error != nil {
		status := completion.Error.Code
		if status == 0 {
			status = http.StatusBadGateway
		}
		return nil, modelswitch.ErrorFromStatus(p.Name(), status, completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, modelswitch.NewProtocolError(p.Name(), "response for %s has no choices", req.Model)
	}

	choice := completion.Choices[0]
	model := completion.Model
	if model == "" {
		model = req.Model
	}
	return &modelswitch.ModelResponse{
		Text:       choice.Text,
		Done:       choice.Text == "" && choice.FinishReason == "stop",
		Model:      model,
		Provider:   p.Name(),
		StopReason: choice.FinishReason,
		Latency:    time.Since(start),
	}, nil
}

func buildCompletionRequest(req *modelswitch.NextTokenRequest) *CompletionRequest {
	params := req.Params
	out := &CompletionRequest{
		Model:       req.Model,
		Prompt:      req.Context(),
		MaxTokens:   1,
		Temperature: params.GetTemperature(modelswitch.DefaultTemperature),
		Stop:        params.GetStop(),
	}
	if params != nil {
		out.TopP = params.TopP
		out.TopK = params.TopK
		out.Seed = params.Seed
	}
	return out
}

// buildHTTPRequest creates an HTTP request for OpenRouter API.
func (p *Provider) buildHTTPRequest(ctx context.Context, req *CompletionRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}

// handleErrorResponse parses error responses from OpenRouter.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	message := strings.TrimSpace(string(body))
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	pe := modelswitch.ErrorFromStatus(p.Name(), resp.StatusCode, message)
	switch resp.StatusCode {
	case http.StatusPaymentRequired:
		// Out of credits: the model cannot be served until the account is topped up.
		pe.Message = "insufficient credits: " + message
		pe.Err = modelswitch.ErrModelUnavailable
	case http.StatusRequestTimeout:
		pe.Err = modelswitch.ErrModelUnavailable
		pe.Retryable = true
	}
	return pe
}
