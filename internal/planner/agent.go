// Package planner implements PlannerAgent (spec.md 4.1): the state machine
// that drives a single QuerySession from INIT to DONE or FAILED, enforcing
// budgets, rotating strategies on retry, writing a trace per attempt, and
// consulting/populating the query cache. Adapted from the teacher's
// internal/app.App.Run sequential pipeline (plan -> search -> select ->
// synthesize, one pass per report) generalized into a bounded
// RESEARCH<->VERIFY loop per session; the teacher's internal/planner.Plan /
// LLMPlanner / FallbackPlanner generated report queries and an outline, a
// concern this module has no use for, so that package is replaced outright
// rather than adapted (see DESIGN.md).
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/domain"
	"github.com/hyperifyio/goresearch-verify/internal/rerr"
	"github.com/hyperifyio/goresearch-verify/internal/research"
)

// Synthesizer is the seam AnswerSynthesizer is consumed through.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, claims []domain.VerifiedClaim) string
}

// Researcher is the seam ResearchAgent is consumed through, letting tests
// substitute a scripted Bundle without standing up a real WebEnvironment.
type Researcher interface {
	RunAttempt(ctx context.Context, sessionID uuid.UUID, attempt int, question string, strategy domain.Strategy, numDocs int) research.Bundle
}

// Agent drives one QuerySession end to end.
type Agent struct {
	Repos    capability.Repositories
	Research Researcher
	Synth    Synthesizer
	Budgets  Budgets
	CacheTTL time.Duration
}

// Run executes PlannerAgent for one session. It is safe to invoke exactly
// once per session; a second invocation is a programmer error detected by
// reading the current status and is a logged no-op (spec.md 4.1).
func (a *Agent) Run(ctx context.Context, sessionID uuid.UUID) error {
	budgets := a.Budgets.withDefaults()

	session, err := a.Repos.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("planner: load session: %w", err)
	}
	if session.Status != domain.StatusInit {
		log.Warn().Stringer("session_id", sessionID).Str("status", string(session.Status)).
			Msg("planner: run invoked on a non-INIT session, ignoring")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, budgets.SessionTimeout)
	defer cancel()

	if err := a.Repos.UpdateSessionStatus(ctx, sessionID, domain.StatusResearch); err != nil {
		return a.fail(ctx, sessionID, nil, fmt.Errorf("planner: transition to RESEARCH: %w", err))
	}

	var (
		lastBundle   research.Bundle
		searchesUsed int
		decision     domain.VerificationDecision
		haveBundle   bool
		lastHash     string
	)

attempts:
	for attempt := 1; attempt <= budgets.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return a.fail(ctx, sessionID, toEvidence(sessionID, lastBundle.VerifiedClaims), fmt.Errorf("planner: session wall-clock budget exceeded"))
		}

		strategy := domain.StrategyForAttempt(attempt)
		numDocs := budgets.numDocsForAttempt(attempt)

		if attempt >= 2 {
			hash := queryHash(session.Question, strategy, numDocs)
			if entry, ok, err := a.Repos.CacheGet(ctx, hash); err == nil && ok {
				log.Info().Stringer("session_id", sessionID).Str("query_hash", hash).Msg("planner: cache hit, skipping to SYNTHESIZE")
				return a.finishFromCache(ctx, sessionID, entry)
			}
		}

		if searchesUsed >= budgets.MaxSearches {
			log.Info().Stringer("session_id", sessionID).Int("searches_used", searchesUsed).Msg("planner: search budget exhausted")
			break attempts
		}

		bundle := a.Research.RunAttempt(ctx, sessionID, attempt, session.Question, strategy, numDocs)
		searchesUsed++
		haveBundle = true
		lastBundle = bundle
		decision = bundle.Decision
		lastHash = queryHash(session.Question, strategy, numDocs)

		if err := a.Repos.AppendSearchLog(ctx, stampSearchLog(bundle.SearchLog)); err != nil {
			log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: append search log failed")
		}

		plannerState := domain.StatusResearch
		if len(bundle.Documents) > 0 {
			plannerState = domain.StatusVerify
			if err := a.Repos.UpdateSessionStatus(ctx, sessionID, domain.StatusVerify); err != nil {
				log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: transition to VERIFY failed")
			}
		} else if err := a.Repos.UpdateSessionStatus(ctx, sessionID, domain.StatusResearch); err != nil {
			log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: transition to RESEARCH failed")
		}

		trace := domain.PlannerTrace{
			SessionID:            sessionID,
			AttemptNumber:        attempt,
			PlannerState:         plannerState,
			StrategyUsed:         strategy,
			NumDocs:              numDocs,
			VerificationDecision: decision,
			CreatedAt:            time.Now().UTC(),
		}
		if err := a.Repos.AppendPlannerTrace(ctx, trace); err != nil {
			log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: append trace failed")
		}

		budgetRemains := attempt < budgets.MaxAttempts && searchesUsed < budgets.MaxSearches

		if len(bundle.Documents) == 0 {
			if budgetRemains {
				continue attempts
			}
			return a.fail(ctx, sessionID, toEvidence(sessionID, bundle.VerifiedClaims), fmt.Errorf("planner: no usable documents and budget exhausted: %w", rerr.ErrDataQuality))
		}

		switch decision {
		case domain.DecisionAccept:
			break attempts
		case domain.DecisionRetry:
			if budgetRemains {
				continue attempts
			}
			break attempts
		case domain.DecisionStop:
			break attempts
		default:
			break attempts
		}
	}

	if !haveBundle {
		return a.fail(ctx, sessionID, nil, fmt.Errorf("planner: exhausted attempts without a research bundle: %w", rerr.ErrDataQuality))
	}

	return a.synthesizeAndFinish(ctx, sessionID, session.Question, lastBundle, decision, lastHash)
}

// synthesizeAndFinish writes the AnswerSnapshot and Evidence and transitions
// the session to DONE, forcing LOW confidence on non-ACCEPT outcomes with no
// VERIFIED claims (spec.md 4.1's dagger footnote).
func (a *Agent) synthesizeAndFinish(ctx context.Context, sessionID uuid.UUID, question string, bundle research.Bundle, decision domain.VerificationDecision, hash string) error {
	if err := a.Repos.UpdateSessionStatus(ctx, sessionID, domain.StatusSynthesize); err != nil {
		log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: transition to SYNTHESIZE failed")
	}

	answer := a.Synth.Synthesize(ctx, question, bundle.VerifiedClaims)

	level, reason := bundle.Confidence, bundle.ConfidenceReason
	if decision != domain.DecisionAccept && !anyVerified(bundle.VerifiedClaims) {
		level = domain.ConfidenceLow
		reason = "no VERIFIED claims survived; best-effort synthesis on partial evidence"
	}

	snap := domain.AnswerSnapshot{
		SessionID:        sessionID,
		AnswerText:       answer,
		ConfidenceLevel:  level,
		ConfidenceReason: reason,
		CreatedAt:        time.Now().UTC(),
	}
	evidence := toEvidence(sessionID, bundle.VerifiedClaims)

	if err := a.Repos.WriteAnswerWithEvidence(ctx, snap, evidence); err != nil {
		return a.fail(ctx, sessionID, evidence, fmt.Errorf("planner: write answer snapshot: %w", err))
	}

	if decision == domain.DecisionAccept {
		entry := domain.QueryCacheEntry{
			QueryHash: hash,
			Snapshot:  snap,
			Evidence:  evidence,
			ExpiresAt: time.Now().UTC().Add(a.cacheTTL()),
		}
		if err := a.Repos.CachePut(ctx, entry); err != nil {
			log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: cache put failed")
		}
	}

	if err := a.Repos.UpdateSessionStatus(ctx, sessionID, domain.StatusDone); err != nil {
		// The snapshot is already durable; fall back to FAILED (instead of
		// leaving the session stuck at SYNTHESIZE) so status still matches
		// the "AnswerSnapshot exists" invariant (spec.md 373).
		return a.fail(ctx, sessionID, evidence, fmt.Errorf("planner: transition to DONE: %w", err))
	}
	return nil
}

// finishFromCache short-circuits to SYNTHESIZE with a cached Evidence set on
// a cache hit (spec.md 4.1).
func (a *Agent) finishFromCache(ctx context.Context, sessionID uuid.UUID, entry domain.QueryCacheEntry) error {
	if err := a.Repos.UpdateSessionStatus(ctx, sessionID, domain.StatusSynthesize); err != nil {
		log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: transition to SYNTHESIZE failed")
	}
	snap := entry.Snapshot
	snap.SessionID = sessionID
	evidence := make([]domain.Evidence, len(entry.Evidence))
	for i, e := range entry.Evidence {
		e.SessionID = sessionID
		evidence[i] = e
	}
	if err := a.Repos.WriteAnswerWithEvidence(ctx, snap, evidence); err != nil {
		return a.fail(ctx, sessionID, evidence, fmt.Errorf("planner: write cached answer: %w", err))
	}
	if err := a.Repos.UpdateSessionStatus(ctx, sessionID, domain.StatusDone); err != nil {
		return a.fail(ctx, sessionID, evidence, fmt.Errorf("planner: transition to DONE: %w", err))
	}
	return nil
}

// fail writes the spec.md 4.1/5 fallback AnswerSnapshot ("Insufficient
// verified evidence.", LOW confidence, whatever Evidence was gathered before
// the failure) and transitions the session to FAILED. Every failure path in
// Run after the session has been loaded, and in synthesizeAndFinish and
// finishFromCache, goes through here so FAILED sessions satisfy the same "AnswerSnapshot existence implies
// DONE or FAILED" invariant that DONE sessions do (spec.md 373).
func (a *Agent) fail(ctx context.Context, sessionID uuid.UUID, evidence []domain.Evidence, cause error) error {
	log.Error().Err(cause).Stringer("session_id", sessionID).Msg("planner: session failed")

	if evidence == nil {
		evidence = []domain.Evidence{}
	}
	snap := domain.AnswerSnapshot{
		SessionID:        sessionID,
		AnswerText:       "Insufficient verified evidence.",
		ConfidenceLevel:  domain.ConfidenceLow,
		ConfidenceReason: fmt.Sprintf("session failed: %s", cause),
		CreatedAt:        time.Now().UTC(),
	}
	if err := a.Repos.WriteAnswerWithEvidence(ctx, snap, evidence); err != nil {
		log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: write fallback answer snapshot failed")
	}

	if err := a.Repos.UpdateSessionStatus(ctx, sessionID, domain.StatusFailed); err != nil {
		log.Error().Err(err).Stringer("session_id", sessionID).Msg("planner: transition to FAILED failed")
	}
	return cause
}

func (a *Agent) cacheTTL() time.Duration {
	if a.CacheTTL > 0 {
		return a.CacheTTL
	}
	return 24 * time.Hour
}

func anyVerified(claims []domain.VerifiedClaim) bool {
	for _, c := range claims {
		if c.Status == domain.ClaimVerified {
			return true
		}
	}
	return false
}

func toEvidence(sessionID uuid.UUID, claims []domain.VerifiedClaim) []domain.Evidence {
	var out []domain.Evidence
	for _, c := range claims {
		for _, u := range c.SupportingURLs {
			out = append(out, domain.Evidence{SessionID: sessionID, ClaimText: c.CanonicalText, Status: c.Status, SourceURL: u})
		}
		for _, u := range c.OpposingURLs {
			out = append(out, domain.Evidence{SessionID: sessionID, ClaimText: c.CanonicalText, Status: c.Status, SourceURL: u})
		}
		if len(c.SupportingURLs) == 0 && len(c.OpposingURLs) == 0 {
			out = append(out, domain.Evidence{SessionID: sessionID, ClaimText: c.CanonicalText, Status: c.Status})
		}
	}
	return out
}

// stampSearchLog fills CreatedAt, which webenv.Environment.Run leaves zero
// since it has no durable-storage concern of its own.
func stampSearchLog(l domain.SearchLog) domain.SearchLog {
	l.CreatedAt = time.Now().UTC()
	return l
}
