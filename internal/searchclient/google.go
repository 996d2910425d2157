// Package searchclient implements capability.SearchProvider against the
// Google Programmable Search (Custom Search JSON API) endpoint, the
// provider spec.md 6's SEARCH_API_KEY/SEARCH_ENGINE_ID/SEARCH_ENDPOINT
// triple names. Adapted directly from the teacher's
// internal/search.SearxNG (plain net/http GET, manual query-param
// construction, a small anonymous response struct decoded with
// encoding/json) — generalized from SearxNG's single base-url-plus-apikey
// shape to Google's api-key-plus-engine-id shape.
package searchclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// Google implements capability.SearchProvider against the Custom Search
// JSON API.
type Google struct {
	APIKey     string
	EngineID   string
	Endpoint   string // optional override, e.g. for a private proxy or stub
	HTTPClient *http.Client
}

func (g *Google) Search(ctx context.Context, query string, limit int) ([]capability.SearchResult, error) {
	if g.APIKey == "" || g.EngineID == "" {
		return nil, fmt.Errorf("searchclient: missing api key or engine id")
	}
	if limit <= 0 {
		limit = 10
	}
	// The API caps a single request at 10 results; callers asking for more
	// still only get the first page, which is sufficient for this module's
	// num_docs schedule (capped at 15, spec.md 4.1).
	if limit > 10 {
		limit = 10
	}

	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("searchclient: parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", g.APIKey)
	q.Set("cx", g.EngineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("searchclient: build request: %w", err)
	}

	hc := g.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searchclient: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("searchclient: status %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("searchclient: decode response: %w", err)
	}

	out := make([]capability.SearchResult, 0, len(body.Items))
	for _, item := range body.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		out = append(out, capability.SearchResult{
			Title:   strings.TrimSpace(item.Title),
			URL:     strings.TrimSpace(item.Link),
			Snippet: strings.TrimSpace(item.Snippet),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}
