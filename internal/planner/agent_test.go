package planner

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
	"github.com/hyperifyio/goresearch-verify/internal/research"
)

// memRepos is an in-memory capability.Repositories fake for planner tests.
type memRepos struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]domain.QuerySession
	traces   map[uuid.UUID][]domain.PlannerTrace
	logs     map[uuid.UUID][]domain.SearchLog
	results  map[uuid.UUID]storedResult
	cache    map[string]domain.QueryCacheEntry
}

type storedResult struct {
	snap domain.AnswerSnapshot
	ev   []domain.Evidence
}

func newMemRepos(question string, id uuid.UUID) *memRepos {
	return &memRepos{
		sessions: map[uuid.UUID]domain.QuerySession{id: {ID: id, Question: question, Status: domain.StatusInit}},
		traces:   map[uuid.UUID][]domain.PlannerTrace{},
		logs:     map[uuid.UUID][]domain.SearchLog{},
		results:  map[uuid.UUID]storedResult{},
		cache:    map[string]domain.QueryCacheEntry{},
	}
}

func (m *memRepos) CreateSession(context.Context, string) (domain.QuerySession, error) {
	return domain.QuerySession{}, fmt.Errorf("not implemented")
}

func (m *memRepos) GetSession(_ context.Context, id uuid.UUID) (domain.QuerySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.QuerySession{}, fmt.Errorf("unknown session %s", id)
	}
	return s, nil
}

func (m *memRepos) UpdateSessionStatus(_ context.Context, id uuid.UUID, status domain.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[id]
	s.Status = status
	m.sessions[id] = s
	return nil
}

func (m *memRepos) AppendPlannerTrace(_ context.Context, t domain.PlannerTrace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces[t.SessionID] = append(m.traces[t.SessionID], t)
	return nil
}

func (m *memRepos) ReadTrace(_ context.Context, id uuid.UUID) ([]domain.PlannerTrace, []domain.SearchLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.traces[id], m.logs[id], nil
}

func (m *memRepos) AppendSearchLog(_ context.Context, l domain.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[l.SessionID] = append(m.logs[l.SessionID], l)
	return nil
}

func (m *memRepos) WriteAnswerWithEvidence(_ context.Context, snap domain.AnswerSnapshot, evidence []domain.Evidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[snap.SessionID] = storedResult{snap, evidence}
	return nil
}

func (m *memRepos) ReadResult(_ context.Context, id uuid.UUID) (domain.AnswerSnapshot, []domain.Evidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.results[id]
	return r.snap, r.ev, nil
}

func (m *memRepos) CacheGet(_ context.Context, hash string) (domain.QueryCacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.cache[hash]
	return e, ok, nil
}

func (m *memRepos) CachePut(_ context.Context, entry domain.QueryCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cache[entry.QueryHash]; exists {
		return nil
	}
	m.cache[entry.QueryHash] = entry
	return nil
}

type fakeSynth struct {
	answer string
}

func (f *fakeSynth) Synthesize(context.Context, string, []domain.VerifiedClaim) string {
	return f.answer
}

// scriptedResearcher returns a fixed sequence of bundles, one per call, and
// repeats the last one if RunAttempt is called more times than scripted.
type scriptedResearcher struct {
	bundles []research.Bundle
	calls   int
}

func (s *scriptedResearcher) RunAttempt(context.Context, uuid.UUID, int, string, domain.Strategy, int) research.Bundle {
	i := s.calls
	if i >= len(s.bundles) {
		i = len(s.bundles) - 1
	}
	s.calls++
	return s.bundles[i]
}

func TestRun_AcceptOnFirstAttemptReachesDone(t *testing.T) {
	id := uuid.New()
	repos := newMemRepos("When did Voyager 1 launch?", id)

	bundle := research.Bundle{
		Documents: []domain.Document{{URL: "https://a.example.com"}},
		VerifiedClaims: []domain.VerifiedClaim{
			{Status: domain.ClaimVerified, CanonicalText: "x", SupportingURLs: []string{"https://a.example.com"}, DistinctDomains: 3},
			{Status: domain.ClaimVerified, CanonicalText: "y", SupportingURLs: []string{"https://b.example.com"}, DistinctDomains: 3},
		},
		Decision:   domain.DecisionAccept,
		Confidence: domain.ConfidenceHigh,
		SearchLog:  domain.SearchLog{Success: true, NumDocs: 1},
	}

	agent := &Agent{
		Repos:    repos,
		Research: &scriptedResearcher{bundles: []research.Bundle{bundle}},
		Synth:    &fakeSynth{answer: "Voyager 1 launched in 1977."},
		Budgets:  DefaultBudgets(),
	}

	if err := agent.Run(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final, err := repos.GetSession(context.Background(), id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if final.Status != domain.StatusDone {
		t.Fatalf("expected DONE, got %s", final.Status)
	}
	snap, _, _ := repos.ReadResult(context.Background(), id)
	if snap.AnswerText != "Voyager 1 launched in 1977." {
		t.Fatalf("unexpected answer: %q", snap.AnswerText)
	}
	if snap.ConfidenceLevel != domain.ConfidenceHigh {
		t.Fatalf("expected HIGH confidence, got %s", snap.ConfidenceLevel)
	}
	if len(repos.cache) != 1 {
		t.Fatalf("expected ACCEPT to populate the cache, got %d entries", len(repos.cache))
	}
	if len(repos.traces[id]) != 1 {
		t.Fatalf("expected exactly 1 planner trace row, got %d", len(repos.traces[id]))
	}
}

func TestRun_RetriesAcrossAttemptsThenAccepts(t *testing.T) {
	id := uuid.New()
	repos := newMemRepos("q", id)

	empty := research.Bundle{Decision: domain.DecisionRetry, SearchLog: domain.SearchLog{Success: true}}
	accepted := research.Bundle{
		Documents:      []domain.Document{{URL: "https://a.example.com"}},
		VerifiedClaims: []domain.VerifiedClaim{{Status: domain.ClaimVerified, CanonicalText: "x"}},
		Decision:       domain.DecisionAccept,
		Confidence:     domain.ConfidenceMedium,
		SearchLog:      domain.SearchLog{Success: true, NumDocs: 1},
	}

	researcher := &scriptedResearcher{bundles: []research.Bundle{empty, accepted}}
	agent := &Agent{Repos: repos, Research: researcher, Synth: &fakeSynth{answer: "ok"}, Budgets: DefaultBudgets()}

	if err := agent.Run(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if researcher.calls != 2 {
		t.Fatalf("expected 2 research attempts, got %d", researcher.calls)
	}
	final, _ := repos.GetSession(context.Background(), id)
	if final.Status != domain.StatusDone {
		t.Fatalf("expected DONE, got %s", final.Status)
	}
}

func TestRun_NoDocsAcrossAllAttemptsFails(t *testing.T) {
	id := uuid.New()
	repos := newMemRepos("q", id)

	failed := research.Bundle{Decision: domain.DecisionRetry, SearchLog: domain.SearchLog{Success: false}}
	researcher := &scriptedResearcher{bundles: []research.Bundle{failed, failed, failed}}
	agent := &Agent{Repos: repos, Research: researcher, Synth: &fakeSynth{}, Budgets: DefaultBudgets()}

	if err := agent.Run(context.Background(), id); err == nil {
		t.Fatalf("expected an error on exhausted budget with no documents")
	}
	final, _ := repos.GetSession(context.Background(), id)
	if final.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", final.Status)
	}

	snap, ev, err := repos.ReadResult(context.Background(), id)
	if err != nil {
		t.Fatalf("expected a result document for a FAILED session, got error: %v", err)
	}
	if snap.AnswerText != "Insufficient verified evidence." {
		t.Fatalf("unexpected fallback answer: %q", snap.AnswerText)
	}
	if snap.ConfidenceLevel != domain.ConfidenceLow {
		t.Fatalf("expected LOW confidence on a FAILED session, got %s", snap.ConfidenceLevel)
	}
	if snap.ConfidenceReason == "" {
		t.Fatalf("expected a non-empty confidence reason")
	}
	if ev == nil {
		t.Fatalf("expected a (possibly empty) evidence slice, got nil")
	}
}

func TestRun_SecondInvocationIsNoop(t *testing.T) {
	id := uuid.New()
	repos := newMemRepos("q", id)
	_ = repos.UpdateSessionStatus(context.Background(), id, domain.StatusDone)

	agent := &Agent{Repos: repos, Synth: &fakeSynth{}, Budgets: DefaultBudgets(), Research: &scriptedResearcher{}}
	if err := agent.Run(context.Background(), id); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}
}

func TestQueryHash_StableUnderWhitespaceAndCaseEdits(t *testing.T) {
	a := queryHash("What is the Capital of France?", domain.StrategyVerbatim, 5)
	b := queryHash("what is the capital of france", domain.StrategyVerbatim, 5)
	c := queryHash("  what   is the capital of france?  ", domain.StrategyVerbatim, 5)
	if a != b || b != c {
		t.Fatalf("expected stable hash under whitespace/case edits: %q %q %q", a, b, c)
	}
}

func TestQueryHash_DiffersByStrategyAndNumDocs(t *testing.T) {
	base := queryHash("q", domain.StrategyVerbatim, 5)
	if queryHash("q", domain.StrategyKeywordExpansion, 5) == base {
		t.Fatalf("expected different strategy to change the hash")
	}
	if queryHash("q", domain.StrategyVerbatim, 8) == base {
		t.Fatalf("expected different num_docs to change the hash")
	}
}
