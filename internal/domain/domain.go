// Package domain holds the durable entities of the research pipeline: one
// question asked by a caller (QuerySession), the attempts the planner made
// to answer it (PlannerTrace, SearchLog), the evidence gathered along the
// way (Document, Claim, ClaimGroup, VerifiedClaim), and the final answer
// (AnswerSnapshot, Evidence, QueryCacheEntry).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the QuerySession state machine position. Status
// monotonically advances through INIT -> RESEARCH -> VERIFY -> SYNTHESIZE
// -> {DONE, FAILED}; DONE and FAILED are terminal and never left.
type SessionStatus string

const (
	StatusInit       SessionStatus = "INIT"
	StatusResearch   SessionStatus = "RESEARCH"
	StatusVerify     SessionStatus = "VERIFY"
	StatusSynthesize SessionStatus = "SYNTHESIZE"
	StatusDone       SessionStatus = "DONE"
	StatusFailed     SessionStatus = "FAILED"
)

// Terminal reports whether s is a state the session can never leave.
func (s SessionStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// QuerySession is one user question moving through the pipeline.
type QuerySession struct {
	ID        uuid.UUID
	Question  string
	Status    SessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VerificationDecision is the planner's next-action directive coming out of
// VerificationEngine.
type VerificationDecision string

const (
	DecisionAccept VerificationDecision = "ACCEPT"
	DecisionRetry  VerificationDecision = "RETRY"
	DecisionStop   VerificationDecision = "STOP"
)

// PlannerTrace is one RESEARCH/VERIFY attempt row for a session. At most one
// trace exists per (SessionID, AttemptNumber).
type PlannerTrace struct {
	SessionID            uuid.UUID
	AttemptNumber        int
	PlannerState         SessionStatus
	StrategyUsed         Strategy
	NumDocs              int
	VerificationDecision VerificationDecision
	CreatedAt            time.Time
}

// SearchLog is one search invocation; append-only.
type SearchLog struct {
	SessionID     uuid.UUID
	AttemptNumber int
	QueryUsed     string
	NumDocs       int
	Success       bool
	CreatedAt     time.Time
}

// Document is a fetched page, trimmed down to the text the rest of the
// pipeline needs. URL is unique within an attempt.
type Document struct {
	URL           string
	Domain        string
	Title         string
	ExtractedText string
	FetchedAt     time.Time
}

// Polarity is the stance a Claim takes relative to its canonical statement.
type Polarity string

const (
	PolarityAffirm      Polarity = "AFFIRM"
	PolarityNegate      Polarity = "NEGATE"
	PolarityUnspecified Polarity = "UNSPECIFIED"
)

// Claim is one atomic factual statement extracted from a single Document.
type Claim struct {
	Text         string
	Polarity     Polarity
	SourceURL    string
	SourceDomain string
}

// ClaimStatus is a ClaimGroup's resolution after verification.
type ClaimStatus string

const (
	ClaimVerified   ClaimStatus = "VERIFIED"
	ClaimUnverified ClaimStatus = "UNVERIFIED"
	ClaimConflict   ClaimStatus = "CONFLICT"
)

// ClaimGroup is an equivalence class of semantically-equivalent claims
// gathered within a single attempt (see verify.Group for the predicate).
type ClaimGroup struct {
	Claims []Claim
}

// VerifiedClaim is a ClaimGroup's resolved, persisted form.
type VerifiedClaim struct {
	CanonicalText   string
	Status          ClaimStatus
	SupportingURLs  []string
	OpposingURLs    []string
	DistinctDomains int
}

// ConfidenceLevel is ConfidenceScorer's aggregate label.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// AnswerSnapshot is the final output of a session. At most one per session.
type AnswerSnapshot struct {
	SessionID        uuid.UUID
	AnswerText       string
	ConfidenceLevel  ConfidenceLevel
	ConfidenceReason string
	CreatedAt        time.Time
}

// Evidence is a VerifiedClaim persisted against a session, bulk-written
// alongside the AnswerSnapshot in the same transaction.
type Evidence struct {
	SessionID uuid.UUID
	ClaimText string
	Status    ClaimStatus
	SourceURL string
}

// QueryCacheEntry maps a query_hash to a previously-ACCEPTed answer.
// Expired entries are never returned by a repository's cache_get.
type QueryCacheEntry struct {
	QueryHash string
	Snapshot  AnswerSnapshot
	Evidence  []Evidence
	ExpiresAt time.Time
}

// Strategy is a question-mutation policy used to form the search query.
// The first attempt of a session always uses Verbatim; retries rotate
// through the remaining strategies in order and cycle on exhaustion.
type Strategy string

const (
	StrategyVerbatim          Strategy = "VERBATIM"
	StrategyKeywordExpansion  Strategy = "KEYWORD_EXPANSION"
	StrategyQuestionReframing Strategy = "QUESTION_REFRAMING"
	StrategyDomainRestricted  Strategy = "DOMAIN_RESTRICTED"
)

// rotation is the fixed cycle order strategies follow on retry.
var rotation = []Strategy{
	StrategyVerbatim,
	StrategyKeywordExpansion,
	StrategyQuestionReframing,
	StrategyDomainRestricted,
}

// StrategyForAttempt returns the strategy for a 1-indexed attempt number.
// Attempt 1 is always VERBATIM; subsequent attempts rotate and cycle.
func StrategyForAttempt(attempt int) Strategy {
	if attempt < 1 {
		attempt = 1
	}
	return rotation[(attempt-1)%len(rotation)]
}
