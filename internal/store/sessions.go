package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
	"github.com/hyperifyio/goresearch-verify/internal/rerr"
)

// ErrNotMonotonic is returned by UpdateSessionStatus when the requested
// status would not advance the state machine of spec.md 4.1.
var ErrNotMonotonic = errors.New("store: status transition is not monotonic")

// validTransitions is the edge set of the state DAG in spec.md 4.1's table,
// including its RESEARCH<->VERIFY retry cycle (marked with *), the
// RESEARCH -> SYNTHESIZE shortcut the planner takes on a cache hit after an
// attempt that found no documents, and the "any -> FAILED" escape hatch.
// UpdateSessionStatus rejects anything else.
var validTransitions = map[domain.SessionStatus]map[domain.SessionStatus]bool{
	domain.StatusInit:       {domain.StatusResearch: true, domain.StatusFailed: true},
	domain.StatusResearch:   {domain.StatusResearch: true, domain.StatusVerify: true, domain.StatusSynthesize: true, domain.StatusFailed: true},
	domain.StatusVerify:     {domain.StatusResearch: true, domain.StatusVerify: true, domain.StatusSynthesize: true, domain.StatusFailed: true},
	domain.StatusSynthesize: {domain.StatusDone: true, domain.StatusFailed: true},
}

func (s *Store) CreateSession(ctx context.Context, question string) (domain.QuerySession, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.QuerySession{}, fmt.Errorf("store: question must not be empty")
	}
	id := uuid.New()
	now := time.Now().UTC()
	const q = `INSERT INTO query_sessions (session_id, question, status, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $4)`
	if _, err := s.pool.Exec(ctx, q, id, question, domain.StatusInit, now); err != nil {
		return domain.QuerySession{}, fmt.Errorf("store: create session: %w: %w", rerr.ErrStorage, err)
	}
	return domain.QuerySession{ID: id, Question: question, Status: domain.StatusInit, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (domain.QuerySession, error) {
	const q = `SELECT session_id, question, status, created_at, updated_at FROM query_sessions WHERE session_id = $1`
	row := s.pool.QueryRow(ctx, q, id)
	var sess domain.QuerySession
	if err := row.Scan(&sess.ID, &sess.Question, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.QuerySession{}, fmt.Errorf("store: session %s: %w", id, pgx.ErrNoRows)
		}
		return domain.QuerySession{}, fmt.Errorf("store: get session: %w: %w", rerr.ErrStorage, err)
	}
	return sess, nil
}

// UpdateSessionStatus reads the session's current status and validates the
// requested transition under the same row lock it writes with: the whole
// read-check-write sequence runs in one transaction with SELECT ... FOR
// UPDATE, so two concurrent Run() calls on the same session_id cannot both
// observe INIT (or any other pre-transition status) before either commits,
// closing the race the exactly-once guarantee of spec.md 4.1 depends on.
func (s *Store) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin update status tx: %w: %w", rerr.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	const lockQ = `SELECT status FROM query_sessions WHERE session_id = $1 FOR UPDATE`
	var current domain.SessionStatus
	if err := tx.QueryRow(ctx, lockQ, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("store: session %s: %w", id, pgx.ErrNoRows)
		}
		return fmt.Errorf("store: lock session: %w: %w", rerr.ErrStorage, err)
	}
	if current.Terminal() || !validTransitions[current][status] {
		return fmt.Errorf("store: session %s cannot move %s -> %s: %w: %w", id, current, status, ErrNotMonotonic, rerr.ErrProgrammer)
	}

	const updateQ = `UPDATE query_sessions SET status = $2, updated_at = $3 WHERE session_id = $1`
	if _, err := tx.Exec(ctx, updateQ, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("store: update session status: %w: %w", rerr.ErrStorage, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit update status tx: %w: %w", rerr.ErrStorage, err)
	}
	return nil
}
