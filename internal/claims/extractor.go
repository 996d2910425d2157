// Package claims implements ClaimExtractor (spec.md 4.3): one LLM call per
// Document producing atomic, self-contained factual claims tagged with
// polarity. Grounded on the teacher's internal/verify.Verifier — same
// system/user prompt-building split, same strict-JSON contract, same
// deterministic-fallback philosophy — generalized from "extract claims from
// a whole Markdown report" to "extract claims from one fetched document".
package claims

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

const (
	minClaimTextLen    = 20
	maxHedgingMarkers  = 2
	maxClaimsPerDoc    = 12
	minFallbackWords   = 8
	minFallbackLetters = 10
)

// hedgingMarkers are words whose repeated presence in a sentence signals
// speculation rather than an asserted fact. A sentence with more than
// maxHedgingMarkers of these is discarded (spec.md 4.3); one hedge alone
// ("reportedly") is common enough in source prose to keep.
var hedgingMarkers = []string{
	"may", "might", "could", "possibly", "allegedly", "reportedly",
	"unconfirmed", "rumored", "speculat", "unclear whether", "some say",
}

// Extractor implements ClaimExtractor against an LLM with a deterministic
// fallback for when the model is unavailable or returns unparsable output.
type Extractor struct {
	Client capability.LLMClient
	Model  string
}

// Extract returns 0 or more Claims for a single Document (spec.md 4.3).
func (e *Extractor) Extract(ctx context.Context, doc domain.Document) []domain.Claim {
	if e.Client != nil && strings.TrimSpace(e.Model) != "" {
		if claims, ok := e.extractViaLLM(ctx, doc); ok {
			return claims
		}
	}
	return fallbackExtract(doc)
}

func (e *Extractor) extractViaLLM(ctx context.Context, doc domain.Document) ([]domain.Claim, bool) {
	req := capability.CompletionRequest{
		Model: e.Model,
		Messages: []capability.ChatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: userPrompt(doc)},
		},
		Temperature: 0,
	}
	raw, err := e.Client.Complete(ctx, req)
	if err != nil {
		return nil, false
	}
	raw = strings.TrimSpace(raw)
	if err := validateResponse([]byte(raw)); err != nil {
		return nil, false
	}
	var parsed struct {
		Claims []struct {
			Text     string `json:"text"`
			Polarity string `json:"polarity"`
		} `json:"claims"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	out := make([]domain.Claim, 0, len(parsed.Claims))
	for _, c := range parsed.Claims {
		text := strings.TrimSpace(c.Text)
		if !admissible(text) {
			continue
		}
		out = append(out, domain.Claim{
			Text:         text,
			Polarity:     normalizePolarity(c.Polarity),
			SourceURL:    doc.URL,
			SourceDomain: doc.Domain,
		})
	}
	return out, true
}

func systemPrompt() string {
	return "You are a factual claim extractor. Respond with strict JSON only: " +
		`{"claims":[{"text":string,"polarity":"AFFIRM|NEGATE|UNSPECIFIED"}]}. ` +
		"Extract atomic, self-contained factual sentences from the document. " +
		"Each claim must stand alone without pronouns or references to other claims. " +
		"Tag polarity AFFIRM when the claim asserts something is true, NEGATE when it " +
		"asserts something is false or did not happen, UNSPECIFIED otherwise. " +
		"Omit speculation, opinion, and marketing language. Extract at most 12 claims."
}

func userPrompt(doc domain.Document) string {
	var sb strings.Builder
	sb.WriteString("Source: ")
	sb.WriteString(doc.URL)
	sb.WriteString("\nTitle: ")
	sb.WriteString(doc.Title)
	sb.WriteString("\n\nDocument text:\n\n")
	sb.WriteString(doc.ExtractedText)
	return sb.String()
}

func normalizePolarity(p string) domain.Polarity {
	switch strings.ToUpper(strings.TrimSpace(p)) {
	case string(domain.PolarityAffirm):
		return domain.PolarityAffirm
	case string(domain.PolarityNegate):
		return domain.PolarityNegate
	default:
		return domain.PolarityUnspecified
	}
}

// admissible applies the discard rules of spec.md 4.3: minimum length and
// a hedging-marker ceiling.
func admissible(text string) bool {
	if len(text) < minClaimTextLen {
		return false
	}
	return countHedgingMarkers(text) <= maxHedgingMarkers
}

func countHedgingMarkers(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, marker := range hedgingMarkers {
		n += strings.Count(lower, marker)
	}
	return n
}

// fallbackExtract deterministically splits a document's extracted text
// into sentences and keeps the ones that look like standalone factual
// statements, mirroring the teacher's fallbackVerify sentence-splitting
// approach. Polarity defaults to UNSPECIFIED since the heuristic has no
// basis for asserting negation.
func fallbackExtract(doc domain.Document) []domain.Claim {
	sentences := splitIntoSentences(doc.ExtractedText)
	claims := make([]domain.Claim, 0, maxClaimsPerDoc)
	for _, s := range sentences {
		text := strings.TrimSpace(s)
		if !looksLikeSentence(text) || !admissible(text) {
			continue
		}
		claims = append(claims, domain.Claim{
			Text:         text,
			Polarity:     domain.PolarityUnspecified,
			SourceURL:    doc.URL,
			SourceDomain: doc.Domain,
		})
		if len(claims) >= maxClaimsPerDoc {
			break
		}
	}
	sort.SliceStable(claims, func(i, j int) bool { return len(claims[i].Text) > len(claims[j].Text) })
	return claims
}

func splitIntoSentences(s string) []string {
	sep := func(r rune) bool { return r == '.' || r == '\n' || r == '?' || r == '!' }
	raw := strings.FieldsFunc(s, sep)
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func looksLikeSentence(s string) bool {
	letters, words := 0, 0
	inWord := false
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			letters++
		}
		if r == ' ' || r == '\t' {
			if inWord {
				words++
				inWord = false
			}
		} else {
			inWord = true
		}
	}
	if inWord {
		words++
	}
	return letters >= minFallbackLetters && words >= minFallbackWords
}
