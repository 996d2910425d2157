package verify

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

// claimFixture mirrors domain.Claim's fields that matter for grouping and
// labeling; SourceURL is derived from SourceDomain after generation.
type claimFixture struct {
	Text         string
	Polarity     domain.Polarity
	SourceDomain string
}

func genClaim() gopter.Gen {
	return gen.Struct(reflect.TypeOf(claimFixture{}), map[string]gopter.Gen{
		"Text":         gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		"Polarity":     gen.OneConstOf(domain.PolarityAffirm, domain.PolarityNegate, domain.PolarityUnspecified),
		"SourceDomain": gen.OneConstOf("a.example.com", "b.example.com", "c.example.com"),
	}).Map(func(v claimFixture) domain.Claim {
		return domain.Claim{
			Text:         v.Text,
			Polarity:     v.Polarity,
			SourceURL:    "https://" + v.SourceDomain + "/x",
			SourceDomain: v.SourceDomain,
		}
	})
}

// TestVerifiedLabelRequiresTwoDomains checks the quantified invariant that
// every VERIFIED VerifiedClaim has at least two distinct supporting domains
// (spec.md 8, invariant 4), across randomly generated claim groups.
func TestVerifiedLabelRequiresTwoDomains(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("VERIFIED groups always have >= 2 distinct domains", prop.ForAll(
		func(claims []domain.Claim) bool {
			if len(claims) == 0 {
				return true
			}
			vc := Label(domain.ClaimGroup{Claims: claims})
			if vc.Status != domain.ClaimVerified {
				return true
			}
			return vc.DistinctDomains >= 2
		},
		gen.SliceOfN(5, genClaim()),
	))

	properties.TestingRun(t)
}

// TestGroupIsOrderIndependent checks that grouping yields the same number of
// groups when the input order is reversed (spec.md 8). It compares group
// counts only, not group membership.
func TestGroupIsOrderIndependent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("group count is stable under reversal", prop.ForAll(
		func(claims []domain.Claim) bool {
			forward := Group(claims)
			reversed := make([]domain.Claim, len(claims))
			for i, c := range claims {
				reversed[len(claims)-1-i] = c
			}
			backward := Group(reversed)
			return len(forward) == len(backward)
		},
		gen.SliceOfN(6, genClaim()),
	))

	properties.TestingRun(t)
}
