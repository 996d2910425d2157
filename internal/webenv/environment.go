// Package webenv implements WebEnvironment (spec.md 4.2): the
// search-filter-fetch-extract pipeline that turns one query string into a
// ranked, bounded set of domain.Document. It adapts the teacher's
// internal/search, internal/fetch, internal/extract, internal/robots, and
// internal/select packages, which the original goresearch kept separate
// for a single operator-triggered report run; here they are fused into one
// component because every session re-runs the whole pipeline per attempt.
package webenv

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

const (
	defaultPerURLTimeout    = 8 * time.Second
	defaultWallClockBudget  = 20 * time.Second
	minExtractedTextLen     = 200
	defaultFetchConcurrency = 8
)

// Environment runs the WebEnvironment algorithm of spec.md 4.2.
type Environment struct {
	Search  capability.SearchProvider
	Fetch   capability.DocumentFetcher
	Robots  *RobotsManager
	Blocked Blocklist

	// SearchLimiter gates outbound SearchProvider calls process-wide
	// (spec.md 5); a call that gets no token within 2s fails the search.
	// nil disables limiting (used by tests).
	SearchLimiter *rate.Limiter

	PerURLTimeout    time.Duration
	WallClockBudget  time.Duration
	FetchConcurrency int
}

// Result is WebEnvironment's output for one invocation.
type Result struct {
	Documents []domain.Document
	Success   bool
	Log       domain.SearchLog
}

// Run executes one WebEnvironment invocation: search, filter, bounded
// parallel fetch, extract, length-filter, and rank-preserving truncation to
// numDocs. It never returns an error; failures are captured in Result.
func (e *Environment) Run(ctx context.Context, sessionID uuid.UUID, attempt int, queryText string, numDocs int) Result {
	log := domain.SearchLog{
		SessionID:     sessionID,
		AttemptNumber: attempt,
		QueryUsed:     queryText,
	}

	if e.SearchLimiter != nil {
		waitCtx, cancelWait := context.WithTimeout(ctx, 2*time.Second)
		err := e.SearchLimiter.Wait(waitCtx)
		cancelWait()
		if err != nil {
			log.Success = false
			return Result{Success: false, Log: log}
		}
	}

	hits, err := e.Search.Search(ctx, queryText, searchFanout(numDocs))
	if err != nil {
		log.Success = false
		return Result{Success: false, Log: log}
	}

	var surviving []capability.SearchResult
	for _, h := range hits {
		if e.Blocked.Blocked(h.URL) {
			continue
		}
		surviving = append(surviving, h)
	}

	budget := e.WallClockBudget
	if budget <= 0 {
		budget = defaultWallClockBudget
	}
	fetchCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	docs := e.fetchAndExtract(fetchCtx, surviving)

	if numDocs > 0 && len(docs) > numDocs {
		docs = docs[:numDocs]
	}

	log.NumDocs = len(docs)
	log.Success = true
	return Result{Documents: docs, Success: true, Log: log}
}

// fetchAndExtract fetches surviving results in bounded parallel, preserving
// search rank in the returned slice (spec.md 4.2 step 5).
func (e *Environment) fetchAndExtract(ctx context.Context, hits []capability.SearchResult) []domain.Document {
	type indexed struct {
		rank int
		doc  domain.Document
		ok   bool
	}

	perURL := e.PerURLTimeout
	if perURL <= 0 {
		perURL = defaultPerURLTimeout
	}
	concurrency := e.FetchConcurrency
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}

	results := make([]indexed, len(hits))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, h := range hits {
		select {
		case <-ctx.Done():
			break
		default:
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, h capability.SearchResult) {
			defer wg.Done()
			defer func() { <-sem }()

			if e.Robots != nil && !e.Robots.Allowed(ctx, h.URL) {
				return
			}

			reqCtx, cancel := context.WithTimeout(ctx, perURL)
			defer cancel()

			fetched, err := e.Fetch.Fetch(reqCtx, h.URL)
			if err != nil {
				return
			}
			extracted := extractFromHTML(fetched.Body)
			if len(extracted.Text) < minExtractedTextLen {
				return
			}
			title := extracted.Title
			if title == "" {
				title = h.Title
			}
			results[i] = indexed{
				rank: i,
				doc: domain.Document{
					URL:           h.URL,
					Domain:        Domain(h.URL),
					Title:         title,
					ExtractedText: extracted.Text,
					FetchedAt:     time.Now().UTC(),
				},
				ok: true,
			}
		}(i, h)
	}
	wg.Wait()

	sort.SliceStable(results, func(a, b int) bool { return results[a].rank < results[b].rank })
	out := make([]domain.Document, 0, len(results))
	for _, r := range results {
		if r.ok {
			out = append(out, r.doc)
		}
	}
	return out
}

// searchFanout asks the SearchProvider for more candidates than numDocs
// requires, since blocklist filtering and fetch failures will drop some.
func searchFanout(numDocs int) int {
	if numDocs <= 0 {
		return 10
	}
	return numDocs * 3
}
