// Package verify implements VerificationEngine (spec.md 4.4): claim
// grouping by similarity, VERIFIED/UNVERIFIED/CONFLICT labeling, and the
// VerificationDecision the planner acts on. Grounded on the teacher's
// internal/verify.Verifier — same claim/citation data shapes and
// deterministic-fallback philosophy — generalized from "verify a single
// rendered report" to "verify the claim set gathered in one attempt".
package verify

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalize lowercases, strips punctuation, and collapses whitespace after
// NFC-normalizing the input, so claims differing only in accent
// composition or surface formatting still compare equal (spec.md 4.4).
func normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// drop
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// stopwords are excluded from the content-word bag so grouping similarity
// reflects topical overlap, not shared function words.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "for": {}, "with": {}, "as": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "by": {}, "at": {},
	"it": {}, "its": {}, "that": {}, "this": {}, "from": {}, "has": {}, "have": {},
	"had": {}, "will": {}, "would": {}, "not": {}, "no": {},
}

// contentWords tokenizes an already-normalized string into its bag of
// content words (function words and single-character tokens dropped).
func contentWords(normalized string) map[string]int {
	freq := make(map[string]int)
	for _, w := range strings.Fields(normalized) {
		if len(w) <= 1 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		freq[w]++
	}
	return freq
}

// cosineSimilarity computes the cosine similarity of two term-frequency
// bags. Returns 0 when either bag is empty.
func cosineSimilarity(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, fa := range a {
		normA += float64(fa * fa)
		if fb, ok := b[term]; ok {
			dot += float64(fa * fb)
		}
	}
	for _, fb := range b {
		normB += float64(fb * fb)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
