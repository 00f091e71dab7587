package anthropic

import (
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// convertFromAnthropicResponse converts a one-token Anthropic message to a ModelResponse.
//
// With max_tokens=1 a normal step stops with "max_tokens". A natural stop
// ("end_turn", "stop_sequence") only counts as end of generation when no text
// came back; otherwise the text is returned and the next call reports the end.
func convertFromAnthropicResponse(msg *anthropic.Message) (*modelswitch.ModelResponse, error) {
	if msg == nil {
		return nil, modelswitch.NewProtocolError(modelswitch.ProviderAnthropic, "empty message")
	}

	var text strings.Builder
	for _, content := range msg.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}

	stop := string(msg.StopReason)
	switch msg.StopReason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence, anthropic.StopReasonMaxTokens:
	default:
		if stop != "" {
			return nil, modelswitch.NewProtocolError(modelswitch.ProviderAnthropic, "unexpected stop reason %q", stop)
		}
	}

	natural := msg.StopReason == anthropic.StopReasonEndTurn || msg.StopReason == anthropic.StopReasonStopSequence
	return &modelswitch.ModelResponse{
		Text:       text.String(),
		Done:       natural && text.Len() == 0,
		Model:      string(msg.Model),
		Provider:   modelswitch.ProviderAnthropic,
		StopReason: stop,
	}, nil
}

// convertError maps SDK errors to library errors.
func convertError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		pe := modelswitch.ErrorFromStatus(modelswitch.ProviderAnthropic, apiErr.StatusCode, apiErr.Error())
		// 529 is Anthropic's "overloaded"
		if apiErr.StatusCode == 529 {
			pe.Retryable = true
		}
		return pe
	}
	return modelswitch.NewUnavailableError(modelswitch.ProviderAnthropic, err)
}
