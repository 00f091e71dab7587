// Package ollama talks to a local Ollama daemon, one token per request.
//
// Each call posts the full context to /api/generate in raw mode with
// num_predict=1 and streaming enabled, then reads only the first NDJSON line:
// that line carries the next token, or an immediate done flag when the model
// has nothing more to say.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// DefaultBaseURL is where a stock Ollama install listens.
const DefaultBaseURL = "http://localhost:11434"

// DefaultTimeout bounds a single token request.
const DefaultTimeout = 60 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Provider implements modelswitch.Provider for Ollama.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the HTTP client (and its timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient = &http.Client{Timeout: d} }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates an Ollama provider for baseURL. An empty baseURL means
// DefaultBaseURL; a bare host:port (the OLLAMA_HOST form) gets an http scheme.
func NewProvider(baseURL string, opts ...Option) (*Provider, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		baseURL:    normalized,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NormalizeBaseURL validates an Ollama address and returns it without a trailing slash.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBaseURL, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", &modelswitch.ValidationError{Field: "ollama_url", Value: raw, Reason: "must be an http(s) URL or host:port"}
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Name returns the provider identifier.
func (p *Provider) Name() modelswitch.ProviderID {
	return modelswitch.ProviderOllama
}

// SupportsModel accepts any non-empty model name; the daemon decides what it has pulled.
func (p *Provider) SupportsModel(model string) bool {
	return strings.TrimSpace(model) != ""
}

// BaseURL returns the daemon address in use.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

// GenerateNext requests exactly one token continuing req.Context().
func (p *Provider) GenerateNext(ctx context.Context, req *modelswitch.NextTokenRequest) (*modelswitch.ModelResponse, error) {
	start := time.Now()

	body, err := json.Marshal(buildGenerateRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ollama request for %s: %w", req.Model, ctxErr)
		}
		return nil, modelswitch.NewUnavailableError(p.Name(), err)
	}
	// Closing early abandons the rest of the stream; only the first line matters.
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	chunk, ok, err := readFirstChunk(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ollama stream for %s: %w", req.Model, ctxErr)
		}
		return nil, modelswitch.NewProtocolError(p.Name(), "reading stream for %s: %v", req.Model, err)
	}
	latency := time.Since(start)

	if !ok {
		// An empty stream means the model produced nothing.
		p.logger.Debug("ollama returned an empty stream", zap.String("model", req.Model))
		return &modelswitch.ModelResponse{
			Done:       true,
			Model:      req.Model,
			Provider:   p.Name(),
			StopReason: "empty_stream",
			Latency:    latency,
		}, nil
	}
	if chunk.Error != "" {
		return nil, modelswitch.NewProtocolError(p.Name(), "model %s: %s", req.Model, chunk.Error)
	}

	model := chunk.Model
	if model == "" {
		model = req.Model
	}
	return &modelswitch.ModelResponse{
		Text:       chunk.Response,
		Done:       chunk.Done,
		Model:      model,
		Provider:   p.Name(),
		StopReason: chunk.DoneReason,
		Latency:    latency,
	}, nil
}

// ListModels returns the models pulled into the daemon.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, modelswitch.NewUnavailableError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, modelswitch.NewProtocolError(p.Name(), "decoding model list: %v", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		names = append(names, name)
	}
	return names, nil
}

func buildGenerateRequest(req *modelswitch.NextTokenRequest) generateRequest {
	params := req.Params
	opts := generateOptions{
		Temperature: params.GetTemperature(modelswitch.DefaultTemperature),
		NumPredict:  1,
		Stop:        params.GetStop(),
	}
	if params != nil {
		opts.TopP = params.TopP
		opts.TopK = params.TopK
		opts.Seed = params.Seed
	}

	return generateRequest{
		Model:   req.Model,
		Prompt:  req.Context(),
		Raw:     true,
		Stream:  true,
		Options: opts,
	}
}

// readFirstChunk decodes the first non-blank NDJSON line. ok is false when
// the stream ended without one.
func readFirstChunk(r io.Reader) (chunk generateChunk, ok bool, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &chunk); err != nil {
			return generateChunk{}, false, fmt.Errorf("malformed line %q: %w", truncate(line, 120), err)
		}
		return chunk, true, nil
	}
	if err := scanner.Err(); err != nil {
		return generateChunk{}, false, err
	}
	return generateChunk{}, false, nil
}

// handleErrorResponse maps Ollama error statuses to library errors.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := strings.TrimSpace(string(body))
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	p.logger.Warn("ollama error response",
		zap.Int("status", resp.StatusCode),
		zap.String("message", message),
	)
	return modelswitch.ErrorFromStatus(p.Name(), resp.StatusCode, message)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
