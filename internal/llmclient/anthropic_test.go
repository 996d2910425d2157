package llmclient

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestAnthropicComplete_ReturnsFirstTextBlock(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{
		Content: []sdk.ContentBlockUnion{{Type: "text", Text: "the answer"}},
	}}
	cl := &Anthropic{msg: stub, maxTokens: 256}

	got, err := cl.Complete(context.Background(), capability.CompletionRequest{
		Model: "claude-3-5-sonnet",
		Messages: []capability.ChatMessage{
			{Role: "system", Content: "you are terse"},
			{Role: "user", Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the answer" {
		t.Fatalf("got %q, want %q", got, "the answer")
	}
	if len(stub.lastParams.System) != 1 || stub.lastParams.System[0].Text != "you are terse" {
		t.Fatalf("system prompt not forwarded: %+v", stub.lastParams.System)
	}
}

func TestAnthropicComplete_PropagatesError(t *testing.T) {
	stub := &stubMessagesClient{err: errors.New("rate limited")}
	cl := &Anthropic{msg: stub, maxTokens: 256}

	_, err := cl.Complete(context.Background(), capability.CompletionRequest{
		Model:    "claude-3-5-sonnet",
		Messages: []capability.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestAnthropicComplete_RequiresAtLeastOneUserMessage(t *testing.T) {
	cl := &Anthropic{msg: &stubMessagesClient{}, maxTokens: 256}
	_, err := cl.Complete(context.Background(), capability.CompletionRequest{
		Model:    "claude-3-5-sonnet",
		Messages: []capability.ChatMessage{{Role: "system", Content: "no user turn"}},
	})
	if err == nil {
		t.Fatalf("expected error for missing user message")
	}
}
