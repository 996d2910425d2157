package llmclient

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
)

// Anthropic implements capability.LLMClient over Anthropic's Messages API.
// Grounded on goa-ai's features/model/anthropic.Client, reduced to the
// single-turn, system-plus-user completion shape every component in this
// module needs (ClaimExtractor, the query reframer, AnswerSynthesizer all
// issue one deterministic call per input, never a multi-turn tool loop).
type Anthropic struct {
	msg       messagesClient
	maxTokens int64
}

type messagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// NewAnthropic builds an Anthropic client from an API key. maxTokens bounds
// every completion's response length; callers needing a longer answer
// should raise it rather than loop Complete.
func NewAnthropic(apiKey string, maxTokens int) (*Anthropic, error) {
	if apiKey == "" {
		return nil, errors.New("llmclient: anthropic api key is required")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{msg: &client.Messages, maxTokens: int64(maxTokens)}, nil
}

func (a *Anthropic) Complete(ctx context.Context, req capability.CompletionRequest) (string, error) {
	var system []sdk.TextBlockParam
	var conversation []sdk.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, sdk.TextBlockParam{Text: m.Content})
		case "assistant":
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	if len(conversation) == 0 {
		return "", errors.New("llmclient: at least one user message is required")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: a.maxTokens,
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	params.Temperature = sdk.Float(float64(req.Temperature))

	resp, err := a.msg.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", errors.New("anthropic completion: no text content returned")
}
