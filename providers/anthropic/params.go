package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// emptyPromptPlaceholder stands in for an empty prompt; the Messages API
// rejects empty user turns.
const emptyPromptPlaceholder = "Continue."

// buildMessageParams constructs a one-token Messages call from a NextTokenRequest.
//
// The prompt becomes the user turn and the text generated so far becomes a
// prefilled assistant turn, so Claude continues the shared context exactly
// where the other model left off. Trailing whitespace is trimmed from the
// prefill because the API rejects it.
func buildMessageParams(req *modelswitch.NextTokenRequest) anthropic.MessageNewParams {
	prompt := req.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = emptyPromptPlaceholder
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}
	if prefill := strings.TrimRight(req.Generated, " \t\r\n"); prefill != "" {
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(prefill)))
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: 1,
	}

	params := req.Params
	apiParams.Temperature = anthropic.Float(clampTemperature(params.GetTemperature(modelswitch.DefaultTemperature)))

	if params != nil {
		if params.TopP != nil {
			apiParams.TopP = anthropic.Float(*params.TopP)
		}
		if params.TopK != nil {
			apiParams.TopK = anthropic.Int(int64(*params.TopK))
		}
		if len(params.Stop) > 0 {
			apiParams.StopSequences = params.Stop
		}
	}

	return apiParams
}

// rejoinPrefill fits a token generated after a trimmed prefill back onto the
// untrimmed text. Claude usually opens such a token with the whitespace that
// was trimmed, so leading blanks are dropped when the generated text already
// ends in whitespace. A token that is only blanks is kept as is.
func rejoinPrefill(generated, token string) string {
	if generated == strings.TrimRight(generated, " \t\r\n") {
		return token
	}
	if trimmed := strings.TrimLeft(token, " \t"); trimmed != "" {
		return trimmed
	}
	return token
}

// clampTemperature fits the shared 0-2 temperature range into Anthropic's 0-1.
func clampTemperature(t float64) float64 {
	if t > 1 {
		return 1
	}
	if t < 0 {
		return 0
	}
	return t
}
