// Package capability declares the seams PlannerAgent and ResearchAgent are
// built against: search, fetch, LLM completion, clock, and the repository
// contracts for durable state. Concrete implementations (webenv, llmclient,
// store) satisfy these interfaces; tests substitute in-memory fakes. See
// the teacher's internal/search.Provider and internal/llm.Client for the
// interface-first style this generalizes.
package capability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

// SearchResult is a single search hit from any provider.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// SearchProvider issues one search call and returns ranked candidate URLs.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// FetchedDocument is a raw fetched page prior to extraction.
type FetchedDocument struct {
	URL         string
	ContentType string
	Body        []byte
}

// DocumentFetcher retrieves a single URL's body, honoring per-request
// timeouts and (where implemented) robots.txt politeness.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (FetchedDocument, error)
}

// ChatMessage is a role-tagged turn in an LLM completion request.
type ChatMessage struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// CompletionRequest is a single deterministic completion call. Callers set
// Temperature to 0 (and the OpenAI client always asks for a single
// choice) so that ClaimExtractor's idempotence
// requirement (spec.md 4.3) holds modulo residual LLM nondeterminism.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float32
}

// LLMClient abstracts the completion service. Implementations: OpenAI-
// compatible (internal/llmclient.OpenAI) and Anthropic
// (internal/llmclient.Anthropic).
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Clock abstracts wall-clock time so tests can control Now() and budget
// deadlines deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// SessionRepository owns QuerySession CRUD.
type SessionRepository interface {
	CreateSession(ctx context.Context, question string) (domain.QuerySession, error)
	GetSession(ctx context.Context, id uuid.UUID) (domain.QuerySession, error)
	// UpdateSessionStatus moves a session to a new status. Implementations
	// must reject (no-op, return ErrNotMonotonic) a transition that would
	// not advance the state machine of spec.md 4.1.
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error
}

// TraceRepository owns PlannerTrace append/read.
type TraceRepository interface {
	AppendPlannerTrace(ctx context.Context, t domain.PlannerTrace) error
	ReadTrace(ctx context.Context, sessionID uuid.UUID) ([]domain.PlannerTrace, []domain.SearchLog, error)
}

// SearchLogRepository owns SearchLog append.
type SearchLogRepository interface {
	AppendSearchLog(ctx context.Context, l domain.SearchLog) error
}

// ResultRepository owns the final answer and its evidence.
type ResultRepository interface {
	// WriteAnswerWithEvidence atomically writes the AnswerSnapshot and its
	// Evidence rows in one transaction (spec.md 4.8).
	WriteAnswerWithEvidence(ctx context.Context, snap domain.AnswerSnapshot, evidence []domain.Evidence) error
	ReadResult(ctx context.Context, sessionID uuid.UUID) (domain.AnswerSnapshot, []domain.Evidence, error)
}

// CacheRepository owns the query cache. CacheGet is read-only; CachePut
// uses put-if-absent semantics so a later, worse ACCEPT never overwrites an
// earlier one (spec.md 9, first-writer-wins).
type CacheRepository interface {
	CacheGet(ctx context.Context, queryHash string) (domain.QueryCacheEntry, bool, error)
	CachePut(ctx context.Context, entry domain.QueryCacheEntry) error
}

// Repositories bundles every durable-storage capability PlannerAgent needs.
type Repositories interface {
	SessionRepository
	TraceRepository
	SearchLogRepository
	ResultRepository
	CacheRepository
}
