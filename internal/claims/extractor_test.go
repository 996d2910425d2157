package claims

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(context.Context, capability.CompletionRequest) (string, error) {
	return f.response, f.err
}

func TestExtract_ParsesValidLLMResponse(t *testing.T) {
	e := &Extractor{
		Client: &fakeLLM{response: `{"claims":[
			{"text":"The company reported quarterly revenue of $4 billion.","polarity":"AFFIRM"},
			{"text":"short","polarity":"AFFIRM"}
		]}`},
		Model: "gpt-4o-mini",
	}
	doc := domain.Document{URL: "https://example.com/a", Domain: "example.com", Title: "T"}
	got := e.Extract(context.Background(), doc)
	if len(got) != 1 {
		t.Fatalf("expected 1 admissible claim, got %d: %+v", len(got), got)
	}
	if got[0].Polarity != domain.PolarityAffirm {
		t.Fatalf("expected AFFIRM, got %v", got[0].Polarity)
	}
	if got[0].SourceURL != doc.URL || got[0].SourceDomain != doc.Domain {
		t.Fatalf("source attribution missing: %+v", got[0])
	}
}

func TestExtract_FallsBackOnInvalidJSON(t *testing.T) {
	e := &Extractor{
		Client: &fakeLLM{response: "not json"},
		Model:  "gpt-4o-mini",
	}
	doc := domain.Document{
		URL:           "https://example.com/a",
		Domain:        "example.com",
		ExtractedText: "The mission launched successfully from the coastal pad this morning. It carried twelve satellites into low orbit.",
	}
	got := e.Extract(context.Background(), doc)
	if len(got) == 0 {
		t.Fatalf("expected fallback to extract at least one claim")
	}
	for _, c := range got {
		if c.Polarity != domain.PolarityUnspecified {
			t.Errorf("fallback claim should default to UNSPECIFIED polarity, got %v", c.Polarity)
		}
	}
}

func TestExtract_FallsBackOnLLMError(t *testing.T) {
	e := &Extractor{Client: &fakeLLM{err: errors.New("unavailable")}, Model: "gpt-4o-mini"}
	doc := domain.Document{ExtractedText: "A fact with plenty of words describing something that happened."}
	_ = e.Extract(context.Background(), doc) // must not panic
}

func TestAdmissible_DiscardsShortAndOverHedged(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"too short", false},
		{"This is a long enough factual sentence to pass the length check.", true},
		{"It may possibly allegedly reportedly be true that something happened here eventually.", false},
	}
	for _, c := range cases {
		if got := admissible(c.text); got != c.want {
			t.Errorf("admissible(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
