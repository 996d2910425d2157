// Package llmclient implements capability.LLMClient against the two model
// providers wired into the domain stack: an OpenAI-compatible chat
// completion API (adapted from the teacher's internal/llm.OpenAIProvider,
// which wraps sashabaranov/go-openai the same way) and Anthropic's Messages
// API (grounded on goadesign/goa-ai's features/model/anthropic client,
// trimmed to the single-turn, tool-free completion this module needs).
package llmclient

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
)

// OpenAI implements capability.LLMClient over an OpenAI-compatible chat
// completions endpoint. BaseURL may point at a self-hosted or stub server
// (cmd/llm-stub), matching the teacher's OPENAI_BASE_URL override.
type OpenAI struct {
	inner *openai.Client
}

// NewOpenAI builds an OpenAI client. baseURL may be empty to use the
// default api.openai.com endpoint.
func NewOpenAI(apiKey, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("llmclient: openai api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{inner: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenAI) Complete(ctx context.Context, req capability.CompletionRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	resp, err := o.inner.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
