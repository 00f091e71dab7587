package openrouter

// CompletionRequest is the body of POST /completions (the plain-text,
// non-chat endpoint). Raw prompt continuation keeps the shared context
// byte-for-byte identical to what other models see.
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream"`
}

// CompletionResponse is the body of a successful /completions call.
// OpenRouter can also return HTTP 200 with only Error set.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Error   *APIError          `json:"error,omitempty"`
}

// CompletionChoice is one generated continuation.
type CompletionChoice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// APIError is OpenRouter's error envelope payload.
type APIError struct {
	Code     int            `json:"code"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}
