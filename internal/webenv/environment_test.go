package webenv

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
)

type fakeFetcher struct {
	bodies map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (capability.FetchedDocument, error) {
	body, ok := f.bodies[url]
	if !ok {
		return capability.FetchedDocument{}, fmt.Errorf("no fixture body for %s", url)
	}
	return capability.FetchedDocument{URL: url, ContentType: "text/html", Body: []byte(body)}, nil
}

func longParagraph(title string) string {
	p := title + ": "
	for i := 0; i < 40; i++ {
		p += "lorem ipsum dolor sit amet consectetur "
	}
	return "<html><head><title>" + title + "</title></head><body><main><p>" + p + "</p></main></body></html>"
}

func TestEnvironment_Run_FiltersBlockedAndShortDocs(t *testing.T) {
	search := &FixtureProvider{Results: []capability.SearchResult{
		{Title: "Good", URL: "https://example.com/good", Snippet: "s"},
		{Title: "Blocked", URL: "https://facebook.com/bad", Snippet: "s"},
		{Title: "TooShort", URL: "https://example.org/short", Snippet: "s"},
		{Title: "Unfetchable", URL: "https://example.net/missing", Snippet: "s"},
	}}
	fetch := &fakeFetcher{bodies: map[string]string{
		"https://example.com/good":  longParagraph("Good"),
		"https://example.org/short": "<html><body><main><p>short</p></main></body></html>",
	}}

	env := &Environment{
		Search:  search,
		Fetch:   fetch,
		Blocked: NewBlocklist(DefaultBlocklist),
	}

	res := env.Run(context.Background(), uuid.New(), 1, "", 10)
	if !res.Success {
		t.Fatalf("expected success")
	}
	if len(res.Documents) != 1 {
		t.Fatalf("expected 1 surviving document, got %d: %+v", len(res.Documents), res.Documents)
	}
	if res.Documents[0].URL != "https://example.com/good" {
		t.Fatalf("unexpected surviving document: %+v", res.Documents[0])
	}
	if res.Log.NumDocs != 1 || !res.Log.Success {
		t.Fatalf("unexpected search log: %+v", res.Log)
	}
}

func TestEnvironment_Run_BoundsToNumDocsPreservingRank(t *testing.T) {
	search := &FixtureProvider{Results: []capability.SearchResult{
		{Title: "First", URL: "https://a.example.com/1"},
		{Title: "Second", URL: "https://b.example.com/2"},
		{Title: "Third", URL: "https://c.example.com/3"},
	}}
	fetch := &fakeFetcher{bodies: map[string]string{
		"https://a.example.com/1": longParagraph("First"),
		"https://b.example.com/2": longParagraph("Second"),
		"https://c.example.com/3": longParagraph("Third"),
	}}
	env := &Environment{Search: search, Fetch: fetch, Blocked: NewBlocklist(nil)}

	res := env.Run(context.Background(), uuid.New(), 1, "", 2)
	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(res.Documents))
	}
	if res.Documents[0].URL != "https://a.example.com/1" || res.Documents[1].URL != "https://b.example.com/2" {
		t.Fatalf("rank not preserved: %+v", res.Documents)
	}
}

func TestEnvironment_Run_SearchFailureIsNotFatal(t *testing.T) {
	env := &Environment{
		Search:  failingSearch{},
		Fetch:   &fakeFetcher{},
		Blocked: NewBlocklist(nil),
	}
	res := env.Run(context.Background(), uuid.New(), 1, "q", 5)
	if res.Success {
		t.Fatalf("expected success=false on search failure")
	}
	if len(res.Documents) != 0 {
		t.Fatalf("expected no documents on search failure")
	}
}

type failingSearch struct{}

func (failingSearch) Search(context.Context, string, int) ([]capability.SearchResult, error) {
	return nil, fmt.Errorf("provider unavailable")
}
