package server

import (
	modelswitch "github.com/haowjy/modelswitch-go"
)

// GenerateRequest is the body of POST /v1/generate. Omitted fields take the
// server's configured defaults.
type GenerateRequest struct {
	Prompt          string   `json:"prompt"`
	BigModel        string   `json:"big_model,omitempty"`
	SmallModel      string   `json:"small_model,omitempty"`
	BigProvider     string   `json:"big_provider,omitempty"`
	SmallProvider   string   `json:"small_provider,omitempty"`
	SwitchRatio     *float64 `json:"switch_ratio,omitempty"`
	MinWarmupTokens *int     `json:"min_warmup_tokens,omitempty"`
	MaxTokens       *int     `json:"max_tokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	Policy          string   `json:"policy,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
	Raw             *bool    `json:"raw,omitempty"`
	Stream          bool     `json:"stream,omitempty"`
}

// GenerateResponse is the non-streaming result of a run.
type GenerateResponse struct {
	ID       string                          `json:"id"`
	Text     string                          `json:"text"`
	Tokens   []modelswitch.TokenEvent        `json:"tokens"`
	Summary  *modelswitch.RunSummary         `json:"summary"`
	Warnings []modelswitch.ValidationWarning `json:"warnings,omitempty"`
}

// ResponseError is the payload under "error" in failure responses.
type ResponseError struct {
	Message     string `json:"message"`
	Type        string `json:"type"`
	Param       string `json:"param,omitempty"`
	Code        string `json:"code,omitempty"`
	Emitted     *int   `json:"emitted,omitempty"`
	PartialText string `json:"partial_text,omitempty"`
}

// ModelEntry is one row of GET /v1/models.
type ModelEntry struct {
	ID            string           `json:"id"`
	Provider      string           `json:"provider"`
	DisplayName   string           `json:"display_name,omitempty"`
	Tier          modelswitch.Role `json:"tier,omitempty"`
	ContextWindow int              `json:"context_window,omitempty"`
	InputPer1M    float64          `json:"input_per_1m"`
	OutputPer1M   float64          `json:"output_per_1m"`
	Available     bool             `json:"available"`
}
