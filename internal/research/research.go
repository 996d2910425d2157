// Package research implements ResearchAgent (spec.md 4.7): the thin,
// one-attempt coordinator that stitches WebEnvironment, ClaimExtractor,
// VerificationEngine, and ConfidenceScorer together and hands the result
// back to PlannerAgent, which owns all persistence. Grounded on the
// teacher's internal/app.Run dry-run branch, which already stitches
// plan -> search -> select in one sequential pass without itself writing
// any output artifact — the same shape, generalized to this module's four
// components.
package research

import (
	"context"

	"github.com/google/uuid"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/confidence"
	"github.com/hyperifyio/goresearch-verify/internal/domain"
	"github.com/hyperifyio/goresearch-verify/internal/verify"
	"github.com/hyperifyio/goresearch-verify/internal/webenv"
)

// Bundle is ResearchAgent's output for one attempt (spec.md 4.7).
type Bundle struct {
	Documents        []domain.Document
	VerifiedClaims   []domain.VerifiedClaim
	Decision         domain.VerificationDecision
	Confidence       domain.ConfidenceLevel
	ConfidenceReason string
	SearchLog        domain.SearchLog
}

// Agent coordinates one research attempt.
type Agent struct {
	Environment *webenv.Environment
	Extractor   interface {
		Extract(ctx context.Context, doc domain.Document) []domain.Claim
	}
	Reframer func(ctx context.Context, question string) (string, bool)

	MaxAttempts int
}

// RunAttempt executes WebEnvironment -> ClaimExtractor -> VerificationEngine
// -> ConfidenceScorer for one attempt and returns the resulting Bundle.
func (a *Agent) RunAttempt(ctx context.Context, sessionID uuid.UUID, attempt int, question string, strategy domain.Strategy, numDocs int) Bundle {
	reframe := func(q string) (string, bool) {
		if a.Reframer == nil {
			return "", false
		}
		return a.Reframer(ctx, q)
	}
	queryText := mutateQuery(question, strategy, reframe)

	result := a.Environment.Run(ctx, sessionID, attempt, queryText, numDocs)
	if !result.Success {
		return Bundle{
			SearchLog: result.Log,
			Decision:  domain.DecisionRetry,
		}
	}

	var claims []domain.Claim
	for _, doc := range result.Documents {
		claims = append(claims, a.Extractor.Extract(ctx, doc)...)
	}

	groups := verify.Group(claims)
	verified := make([]domain.VerifiedClaim, 0, len(groups))
	for _, g := range groups {
		verified = append(verified, verify.Label(g))
	}

	maxAttempts := a.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	decision := verify.Decide(verified, attempt, maxAttempts)
	level, reason := confidence.Score(verified)

	return Bundle{
		Documents:        result.Documents,
		VerifiedClaims:   verified,
		Decision:         decision,
		Confidence:       level,
		ConfidenceReason: reason,
		SearchLog:        result.Log,
	}
}

// reframerFromLLM adapts a capability.LLMClient into the research.Agent's
// Reframer hook: a single deterministic (temperature 0) completion asking
// for a paraphrase of question, used only by QUESTION_REFRAMING.
func reframerFromLLM(client capability.LLMClient, model string) func(context.Context, string) (string, bool) {
	return func(ctx context.Context, question string) (string, bool) {
		if client == nil || model == "" {
			return "", false
		}
		out, err := client.Complete(ctx, capability.CompletionRequest{
			Model: model,
			Messages: []capability.ChatMessage{
				{Role: "system", Content: "Paraphrase the user's question as a concise search query. Respond with only the rewritten query, no explanation."},
				{Role: "user", Content: question},
			},
			Temperature: 0,
		})
		if err != nil || out == "" {
			return "", false
		}
		return out, true
	}
}

// NewReframer exposes reframerFromLLM for callers wiring an Agent.
func NewReframer(client capability.LLMClient, model string) func(context.Context, string) (string, bool) {
	return reframerFromLLM(client, model)
}
