package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"go.uber.org/zap"

	modelswitch "github.com/haowjy/modelswitch-go"
	"github.com/haowjy/modelswitch-go/internal/config"
	"github.com/haowjy/modelswitch-go/switcher"
)

func (s *Server) handleGenerate(c *echo.Context) error {
	var req GenerateRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return writeBadRequest(c, fmt.Sprintf("invalid JSON body: %v", err), "")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return writeBadRequest(c, "prompt is required", "prompt")
	}

	cfg := s.applyRequest(req)
	if err := cfg.Validate(); err != nil {
		return writeConfigError(c, err)
	}
	if err := checkTokenLimits(cfg); err != nil {
		return writeConfigError(c, err)
	}
	gen, err := cfg.Generation(req.Prompt)
	if err != nil {
		return writeConfigError(c, err)
	}
	models, err := config.Models(cfg, s.registry)
	if err != nil {
		return writeConfigError(c, err)
	}

	warnings := modelswitch.ValidateConfig(gen, models.Big.Provider, models.Small.Provider)
	log := s.logger.With(zap.String("request_id", requestIDFrom(c)))
	for _, w := range warnings {
		log.Debug("config warning", zap.String("code", string(w.Code)), zap.String("message", w.Message))
	}

	opts := []switcher.Option{switcher.WithLogger(log)}
	if s.metrics != nil {
		opts = append(opts, switcher.WithObserver(s.metrics))
	}
	sched, err := switcher.New(gen, models, opts...)
	if err != nil {
		return writeConfigError(c, err)
	}

	if req.Stream {
		return s.streamGenerate(c, sched, warnings)
	}
	return s.runGenerate(c, sched, warnings)
}

func (s *Server) runGenerate(c *echo.Context, sched *switcher.Scheduler, warnings []modelswitch.ValidationWarning) error {
	var tokens []modelswitch.TokenEvent
	summary, err := sched.Run(c.Request().Context(), func(ev modelswitch.TokenEvent) error {
		tokens = append(tokens, ev)
		return nil
	})
	if err != nil {
		if clientGone(c, err) {
			return nil
		}
		return writeRunError(c, err)
	}

	if tokens == nil {
		tokens = []modelswitch.TokenEvent{}
	}
	return c.JSON(http.StatusOK, GenerateResponse{
		ID:       requestIDFrom(c),
		Text:     summary.Text,
		Tokens:   tokens,
		Summary:  summary,
		Warnings: warnings,
	})
}

func (s *Server) streamGenerate(c *echo.Context, sched *switcher.Scheduler, warnings []modelswitch.ValidationWarning) error {
	res := c.Response()
	flusher, ok := res.(http.Flusher)
	if !ok {
		return writeBadRequest(c, "streaming unsupported", "stream")
	}
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	for ev := range sched.Stream(ctx) {
		var err error
		switch {
		case ev.Token != nil:
			err = sendEvent(res, "token", ev.Token)
		case ev.Summary != nil:
			err = sendEvent(res, "done", map[string]any{
				"id":       requestIDFrom(c),
				"summary":  ev.Summary,
				"warnings": warnings,
			})
		case ev.Error != nil:
			if clientGone(c, ev.Error) {
				return nil
			}
			_, payload := runErrorPayload(ev.Error)
			err = sendEvent(res, "error", payload)
		}
		if err != nil {
			return err
		}
		flusher.Flush()
	}
	return nil
}

func sendEvent(w io.Writer, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}

// applyRequest overlays the request's fields on the server defaults.
func (s *Server) applyRequest(req GenerateRequest) config.Config {
	cfg := s.cfg
	if req.BigModel != "" {
		cfg.BigModel = req.BigModel
		cfg.BigProvider = ""
	}
	if req.SmallModel != "" {
		cfg.SmallModel = req.SmallModel
		cfg.SmallProvider = ""
	}
	if req.BigProvider != "" {
		cfg.BigProvider = req.BigProvider
	}
	if req.SmallProvider != "" {
		cfg.SmallProvider = req.SmallProvider
	}
	if req.SwitchRatio != nil {
		cfg.SwitchRatio = *req.SwitchRatio
	}
	if req.MinWarmupTokens != nil {
		cfg.MinWarmupTokens = *req.MinWarmupTokens
	}
	if req.MaxTokens != nil {
		cfg.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	if req.Policy != "" {
		cfg.Policy = req.Policy
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.Raw != nil {
		cfg.Raw = *req.Raw
	}
	return cfg
}

// checkTokenLimits bounds how many model calls a single request can cause.
// A MaxRequestTokens of 0 disables the check.
func checkTokenLimits(cfg config.Config) error {
	limit := cfg.MaxRequestTokens
	if limit <= 0 {
		return nil
	}
	reason := fmt.Sprintf("must not exceed %d", limit)
	if cfg.MaxTokens > limit {
		return &modelswitch.ValidationError{Field: "max_tokens", Value: cfg.MaxTokens, Reason: reason}
	}
	if cfg.MinWarmupTokens > limit {
		return &modelswitch.ValidationError{Field: "min_warmup_tokens", Value: cfg.MinWarmupTokens, Reason: reason}
	}
	return nil
}

// clientGone reports a run stopped because the caller disconnected; there
// is nobody left to answer.
func clientGone(c *echo.Context, err error) bool {
	return c.Request().Context().Err() != nil && errors.Is(err, context.Canceled)
}

func writeBadRequest(c *echo.Context, msg, param string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, "")
}

func writeConfigError(c *echo.Context, err error) error {
	var ve *modelswitch.ValidationError
	param := ""
	if errors.As(err, &ve) {
		param = ve.Field
	}
	code := "invalid_config"
	switch {
	case errors.Is(err, modelswitch.ErrUnknownProvider):
		code = "unknown_provider"
	case errors.Is(err, modelswitch.ErrInvalidModel):
		code = "invalid_model"
	}
	return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), param, code)
}

func writeRunError(c *echo.Context, err error) error {
	status, payload := runErrorPayload(err)
	return c.JSON(status, map[string]any{"error": payload})
}

// runErrorPayload maps a failed run to a status and an error body that
// carries the partial output.
func runErrorPayload(err error) (int, ResponseError) {
	payload := ResponseError{Message: err.Error(), Type: "model_error"}
	status := http.StatusBadGateway

	switch {
	case modelswitch.IsModelUnavailable(err):
		payload.Code = "model_unavailable"
	case modelswitch.IsProtocolError(err):
		payload.Code = "model_protocol_error"
	case errors.Is(err, context.DeadlineExceeded):
		payload.Code = "timeout"
		status = http.StatusGatewayTimeout
	default:
		payload.Type = "server_error"
		status = http.StatusInternalServerError
	}

	if text, emitted, ok := switcher.PartialOutput(err); ok {
		payload.Emitted = &emitted
		payload.PartialText = text
	}
	return status, payload
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}
