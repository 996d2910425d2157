package planner

import "time"

// Budgets are PlannerAgent's configuration knobs (spec.md 4.1, 6).
type Budgets struct {
	MaxAttempts    int
	MaxSearches    int
	BaseDocs       int
	DocsStep       int
	MaxNumDocs     int
	SessionTimeout time.Duration
}

// DefaultBudgets mirrors spec.md 4.1's stated defaults.
func DefaultBudgets() Budgets {
	return Budgets{
		MaxAttempts:    3,
		MaxSearches:    4,
		BaseDocs:       5,
		DocsStep:       3,
		MaxNumDocs:     15,
		SessionTimeout: 90 * time.Second,
	}
}

func (b Budgets) withDefaults() Budgets {
	d := DefaultBudgets()
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = d.MaxAttempts
	}
	if b.MaxSearches <= 0 {
		b.MaxSearches = d.MaxSearches
	}
	if b.BaseDocs <= 0 {
		b.BaseDocs = d.BaseDocs
	}
	if b.DocsStep <= 0 {
		b.DocsStep = d.DocsStep
	}
	if b.MaxNumDocs <= 0 {
		b.MaxNumDocs = d.MaxNumDocs
	}
	if b.SessionTimeout <= 0 {
		b.SessionTimeout = d.SessionTimeout
	}
	return b
}

// numDocsForAttempt implements the num_docs schedule of spec.md 4.1: attempt
// n uses base_docs + (n-1)*step, capped at MaxNumDocs.
func (b Budgets) numDocsForAttempt(attempt int) int {
	if attempt < 1 {
		attempt = 1
	}
	n := b.BaseDocs + (attempt-1)*b.DocsStep
	if n > b.MaxNumDocs {
		n = b.MaxNumDocs
	}
	return n
}
