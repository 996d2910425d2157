// Package confidence implements ConfidenceScorer (spec.md 4.5): a pure
// function from a VerifiedClaim list to a (level, reason) pair. No teacher
// equivalent exists (goresearch has no aggregate-confidence concept); the
// deterministic, templated reasoning style is grounded on the teacher's
// fallbackVerify/summarizeClaims functions, which also produce a
// human-readable summary from counted claim attributes without an LLM call.
package confidence

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

// Score computes the confidence level and a deterministic, templated
// reason string for a resolved VerifiedClaim list (spec.md 4.5).
func Score(claims []domain.VerifiedClaim) (domain.ConfidenceLevel, string) {
	var verified, unverified, conflict int
	seenDomains := make(map[string]struct{})
	for _, c := range claims {
		switch c.Status {
		case domain.ClaimVerified:
			verified++
		case domain.ClaimUnverified:
			unverified++
		case domain.ClaimConflict:
			conflict++
		}
		for _, u := range c.SupportingURLs {
			seenDomains[hostOf(u)] = struct{}{}
		}
		for _, u := range c.OpposingURLs {
			seenDomains[hostOf(u)] = struct{}{}
		}
	}
	domains := len(seenDomains)

	switch {
	case conflict > 0:
		return domain.ConfidenceLow, fmt.Sprintf(
			"%d conflicting claim group(s) found; evidence disagrees across sources.", conflict)
	case verified >= 2 && domains >= 3:
		return domain.ConfidenceHigh, fmt.Sprintf(
			"%d verified claim group(s) corroborated across %d distinct domains, no conflicts.", verified, domains)
	case verified >= 1 && (domains < 3 || unverified > 0):
		reason := fmt.Sprintf("%d verified claim group(s)", verified)
		if domains < 3 {
			reason += fmt.Sprintf(" across only %d distinct domains", domains)
		}
		if unverified > 0 {
			reason += fmt.Sprintf("; %d unverified group(s) present", unverified)
		}
		reason += "."
		return domain.ConfidenceMedium, reason
	default:
		return domain.ConfidenceLow, fmt.Sprintf(
			"%d verified claim group(s) out of %d total; insufficient corroborating evidence.", verified, len(claims))
	}
}

// hostOf extracts a lowercase hostname from a URL, matching
// internal/verify/decide.go's domain-counting helper so the two packages
// agree on what a "distinct domain" is.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
