package modelswitch

import "fmt"

// QuestionTemplate is the prompt wrapper used when the caller passes a bare question.
const QuestionTemplate = "Question: %s\n\nAnswer:"

// FormatQuestion wraps a question in QuestionTemplate.
func FormatQuestion(question string) string {
	return fmt.Sprintf(QuestionTemplate, question)
}

// NextTokenRequest asks one model for the next token of a shared context.
type NextTokenRequest struct {
	// Model is the backend-specific model identifier (e.g., "gemma3:4b")
	Model string

	// Prompt is the fixed text the run started from
	Prompt string

	// Generated is every token emitted so far in this run, in order,
	// regardless of which model produced it
	Generated string

	// Params holds optional sampling parameters
	Params *RequestParams
}

// Context returns the full text the model must continue.
func (r *NextTokenRequest) Context() string {
	return r.Prompt + r.Generated
}
