package verify

import (
	"net/url"
	"strings"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

// minVerifiedGroups is the default min_verified threshold of spec.md 4.4.
const minVerifiedGroups = 2

// Decide computes the VerificationDecision for one attempt's resolved
// groups per spec.md 4.4. attempt is the 1-indexed attempt number just
// completed; maxAttempts is the planner's budget ceiling.
func Decide(groups []domain.VerifiedClaim, attempt, maxAttempts int) domain.VerificationDecision {
	var verified, conflict int
	domains := make(map[string]struct{})
	maxDomainsInOneVerified := 0

	for _, g := range groups {
		switch g.Status {
		case domain.ClaimVerified:
			verified++
			if g.DistinctDomains > maxDomainsInOneVerified {
				maxDomainsInOneVerified = g.DistinctDomains
			}
		case domain.ClaimConflict:
			conflict++
		}
		for _, u := range g.SupportingURLs {
			domains[hostOf(u)] = struct{}{}
		}
		for _, u := range g.OpposingURLs {
			domains[hostOf(u)] = struct{}{}
		}
	}
	totalDistinctDomains := len(domains)

	if conflict == 0 {
		if len(groups) < 2 {
			if verified >= 1 && maxDomainsInOneVerified >= 3 {
				return domain.DecisionAccept
			}
		} else if verified >= minVerifiedGroups {
			return domain.DecisionAccept
		}
	}

	budgetRemains := attempt < maxAttempts
	if verified == 0 && (conflict > 0 || totalDistinctDomains < 3) && budgetRemains {
		return domain.DecisionRetry
	}

	// Tie-break: prefer RETRY over STOP while budget permits, even when
	// the RETRY-triggering condition above was not a clean match (spec.md
	// 4.4 "Tie-break on equal counts").
	if budgetRemains && verified < minVerifiedGroups {
		return domain.DecisionRetry
	}
	return domain.DecisionStop
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
