package switcher

import (
	"strings"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// GenerationContext is the run-scoped shared state both models condition on.
// It belongs to a single Run call and is never shared between runs.
type GenerationContext struct {
	prompt    string
	generated strings.Builder
	tokens    []string

	// LastRole is the role that produced the most recent token, empty before the first.
	LastRole modelswitch.Role
}

// NewGenerationContext starts an empty context for prompt.
func NewGenerationContext(prompt string) *GenerationContext {
	return &GenerationContext{prompt: prompt}
}

// Position is the index of the next token to generate.
func (c *GenerationContext) Position() int {
	return len(c.tokens)
}

// Prompt returns the fixed prompt.
func (c *GenerationContext) Prompt() string {
	return c.prompt
}

// Generated returns every token appended so far, concatenated in order.
func (c *GenerationContext) Generated() string {
	return c.generated.String()
}

// Full returns prompt plus generated text: what the next model call must continue.
func (c *GenerationContext) Full() string {
	return c.prompt + c.generated.String()
}

// Tokens returns a copy of the tokens in emission order.
func (c *GenerationContext) Tokens() []string {
	out := make([]string, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// Append records a token produced by role.
func (c *GenerationContext) Append(token string, role modelswitch.Role) {
	c.tokens = append(c.tokens, token)
	c.generated.WriteString(token)
	c.LastRole = role
}

// Request builds the model call for the next position.
func (c *GenerationContext) Request(model string, params *modelswitch.RequestParams) *modelswitch.NextTokenRequest {
	return &modelswitch.NextTokenRequest{
		Model:     model,
		Prompt:    c.prompt,
		Generated: c.generated.String(),
		Params:    params,
	}
}
