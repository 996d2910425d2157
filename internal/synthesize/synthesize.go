// Package synthesize implements AnswerSynthesizer (spec.md 4.6): a
// grounded-generation prompt over the VerifiedClaim list, followed by a
// numeric-token integrity post-check. Adapts the teacher's
// internal/synth.Synthesizer (system/user prompt builder, single
// deterministic completion call) and borrows the citation-scanning regex
// technique of internal/validate.go (`citeRe`), retargeted from scanning
// for bracketed citations to scanning for numeric tokens.
package synthesize

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

const abstentionText = "There is insufficient verified evidence to answer this question."

// numericTokenRe matches a standalone number, optionally with thousands
// separators or a decimal point — the surface forms an answer's integrity
// check must trace back to an input claim. A trailing "," or "." is not part
// of the token, and because of the closing \b a "%" is included only when a
// word character follows it directly.
var numericTokenRe = regexp.MustCompile(`\b\d[\d,.]*%?\b`)

// Synthesizer turns a question and its VerifiedClaim evidence into an
// answer_text, enforcing grounded generation (spec.md 4.6).
type Synthesizer struct {
	Client capability.LLMClient
	Model  string
}

// Synthesize runs the primary prompt, and on an integrity-check failure
// retries once with a stricter prompt before falling back to a verbatim
// concatenation of the verified claims.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, claims []domain.VerifiedClaim) string {
	usable, tentative := usableClaims(claims)
	if len(usable) == 0 {
		return abstentionText
	}

	if s.Client != nil && strings.TrimSpace(s.Model) != "" {
		if answer, ok := s.complete(ctx, buildPrompt(question, usable, tentative, false)); ok {
			if integrityHolds(answer, usable) {
				return answer
			}
			if answer2, ok := s.complete(ctx, buildPrompt(question, usable, tentative, true)); ok {
				if integrityHolds(answer2, usable) {
					return answer2
				}
			}
		}
	}
	return concatenateVerbatim(usable)
}

func (s *Synthesizer) complete(ctx context.Context, prompt [2]string) (string, bool) {
	out, err := s.Client.Complete(ctx, capability.CompletionRequest{
		Model: s.Model,
		Messages: []capability.ChatMessage{
			{Role: "system", Content: prompt[0]},
			{Role: "user", Content: prompt[1]},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", false
	}
	out = strings.TrimSpace(out)
	return out, out != ""
}

// usableClaims restricts to VERIFIED claims by default; if none exist, it
// falls back to UNVERIFIED claims flagged as tentative (spec.md 4.6).
func usableClaims(claims []domain.VerifiedClaim) (usable []domain.VerifiedClaim, tentative bool) {
	for _, c := range claims {
		if c.Status == domain.ClaimVerified {
			usable = append(usable, c)
		}
	}
	if len(usable) > 0 {
		return usable, false
	}
	for _, c := range claims {
		if c.Status == domain.ClaimUnverified {
			usable = append(usable, c)
		}
	}
	return usable, len(usable) > 0
}

func buildPrompt(question string, claims []domain.VerifiedClaim, tentative, strict bool) [2]string {
	var sys strings.Builder
	sys.WriteString("You are a careful fact-based answerer. State only facts entailed by the numbered claims given. ")
	sys.WriteString("Never invent a URL or a numeric value that is not present in the claims. ")
	sys.WriteString("If the claims do not answer the question, respond with a short statement that evidence is insufficient.")
	if strict {
		sys.WriteString(" State only facts that appear verbatim in the numbered claims below. " +
			"Do not write any number, date, or statistic that is not copied exactly from a claim.")
	}

	var user strings.Builder
	user.WriteString("Question: ")
	user.WriteString(question)
	if tentative {
		user.WriteString("\n\nNote: the claims below are UNVERIFIED; qualify the answer as tentative.")
	}
	user.WriteString("\n\nClaims:\n")
	for i, c := range claims {
		fmt.Fprintf(&user, "%d. %s\n", i+1, c.CanonicalText)
	}
	user.WriteString("\nWrite a short, direct answer using only these claims.")
	return [2]string{sys.String(), user.String()}
}

// integrityHolds rejects an answer introducing a numeric token absent from
// every input claim (spec.md 4.6).
func integrityHolds(answer string, claims []domain.VerifiedClaim) bool {
	allowed := make(map[string]struct{})
	for _, c := range claims {
		for _, tok := range numericTokenRe.FindAllString(c.CanonicalText, -1) {
			allowed[tok] = struct{}{}
		}
	}
	for _, tok := range numericTokenRe.FindAllString(answer, -1) {
		if _, ok := allowed[tok]; !ok {
			return false
		}
	}
	return true
}

// concatenateVerbatim is the final fallback: join the verified claims
// as-is so the answer never contains an unsourced token.
func concatenateVerbatim(claims []domain.VerifiedClaim) string {
	var b strings.Builder
	for i, c := range claims {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(c.CanonicalText)
		if !strings.HasSuffix(c.CanonicalText, ".") {
			b.WriteString(".")
		}
	}
	return b.String()
}
