package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

// normalizeQuestion implements the cache-key normalization of spec.md 4.9:
// NFC, lowercase, collapse whitespace, strip terminal punctuation. This is
// deliberately lighter than verify.normalize (which strips all punctuation
// for claim matching) — the cache key only needs to be stable under
// whitespace-only and case-only edits, not under internal punctuation
// changes.
func normalizeQuestion(question string) string {
	s := norm.NFC.String(question)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// queryHash computes the stable cache key of spec.md 4.9: a hash of the
// triple (normalize(question), strategy, num_docs). Fields are joined with
// "\x1f" (ASCII unit separator, per SPEC_FULL.md 4.9) rather than a
// printable character, since ordinary question text does not contain it.
func queryHash(question string, strategy domain.Strategy, numDocs int) string {
	const fieldSep = "\x1f"
	key := normalizeQuestion(question) + fieldSep + string(strategy) + fieldSep + strconv.Itoa(numDocs)
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
