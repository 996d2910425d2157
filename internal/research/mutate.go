package research

import (
	"strings"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

// reputableDomains is the shortlist DOMAIN_RESTRICTED appends as site:
// filters (spec.md 4.9). Kept small and deliberately generic rather than
// topic-specific, since ResearchAgent has no per-question domain model.
var reputableDomains = []string{
	"wikipedia.org",
	"reuters.com",
	"apnews.com",
	"nature.com",
	"gov",
}

var queryStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "who": {}, "when": {}, "where": {}, "why": {}, "how": {},
	"of": {}, "in": {}, "on": {}, "to": {}, "for": {}, "and": {}, "or": {},
	"does": {}, "do": {}, "did": {},
}

// mutateQuery applies the strategy-specific query mutation of spec.md 4.9.
// reframe is used only by QUESTION_REFRAMING; when it returns false (LLM
// unavailable or failed), QUESTION_REFRAMING falls back to
// KEYWORD_EXPANSION's deterministic mutation.
func mutateQuery(question string, strategy domain.Strategy, reframe func(string) (string, bool)) string {
	switch strategy {
	case domain.StrategyVerbatim:
		return question
	case domain.StrategyKeywordExpansion:
		return keywordExpand(question)
	case domain.StrategyQuestionReframing:
		if reframe != nil {
			if reframed, ok := reframe(question); ok {
				return reframed
			}
		}
		return keywordExpand(question)
	case domain.StrategyDomainRestricted:
		return domainRestrict(question)
	default:
		return question
	}
}

// keywordExpand appends the question's own content words (a crude but
// deterministic distillation), which search providers treat as an
// implicit OR-boost over the verbatim phrase.
func keywordExpand(question string) string {
	keywords := contentKeywords(question)
	if len(keywords) == 0 {
		return question
	}
	return question + " " + strings.Join(keywords, " ")
}

func domainRestrict(question string) string {
	var b strings.Builder
	b.WriteString(question)
	for _, d := range reputableDomains {
		b.WriteString(" OR site:")
		b.WriteString(d)
	}
	return b.String()
}

func contentKeywords(question string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, ".,?!;:\"'()")
		if len(w) <= 2 {
			continue
		}
		if _, stop := queryStopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}
