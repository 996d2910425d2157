package verify

import "github.com/hyperifyio/goresearch-verify/internal/domain"

// Label resolves one ClaimGroup into a VerifiedClaim per spec.md 4.4:
// CONFLICT when both polarities are asserted, VERIFIED when >= 2 distinct
// domains agree on a single polarity, UNVERIFIED otherwise.
func Label(g domain.ClaimGroup) domain.VerifiedClaim {
	var supporting, opposing []string
	domains := make(map[string]struct{})
	polarDomains := make(map[string]struct{})
	hasAffirm, hasNegate := false, false
	canonical := g.Claims[0].Text

	for _, c := range g.Claims {
		domains[c.SourceDomain] = struct{}{}
		switch c.Polarity {
		case domain.PolarityAffirm:
			hasAffirm = true
			polarDomains[c.SourceDomain] = struct{}{}
			supporting = append(supporting, c.SourceURL)
		case domain.PolarityNegate:
			hasNegate = true
			polarDomains[c.SourceDomain] = struct{}{}
			opposing = append(opposing, c.SourceURL)
		default:
			supporting = append(supporting, c.SourceURL)
		}
	}

	vc := domain.VerifiedClaim{
		CanonicalText:   canonical,
		SupportingURLs:  dedupe(supporting),
		OpposingURLs:    dedupe(opposing),
		DistinctDomains: len(domains),
	}

	switch {
	case hasAffirm && hasNegate:
		vc.Status = domain.ClaimConflict
	case len(polarDomains) >= 2:
		vc.Status = domain.ClaimVerified
	default:
		vc.Status = domain.ClaimUnverified
	}
	return vc
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
