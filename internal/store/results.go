package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
	"github.com/hyperifyio/goresearch-verify/internal/rerr"
)

// WriteAnswerWithEvidence writes the AnswerSnapshot and its Evidence rows in
// one transaction (spec.md 4.8).
func (s *Store) WriteAnswerWithEvidence(ctx context.Context, snap domain.AnswerSnapshot, evidence []domain.Evidence) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin write answer tx: %w: %w", rerr.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	const upsertSnap = `INSERT INTO answer_snapshots (session_id, answer_text, confidence_level, confidence_reason, created_at)
	                    VALUES ($1, $2, $3, $4, $5)
	                    ON CONFLICT (session_id) DO UPDATE SET
	                        answer_text = EXCLUDED.answer_text,
	                        confidence_level = EXCLUDED.confidence_level,
	                        confidence_reason = EXCLUDED.confidence_reason,
	                        created_at = EXCLUDED.created_at`
	if _, err := tx.Exec(ctx, upsertSnap, snap.SessionID, snap.AnswerText, snap.ConfidenceLevel, snap.ConfidenceReason, snap.CreatedAt); err != nil {
		return fmt.Errorf("store: write answer snapshot: %w: %w", rerr.ErrStorage, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM evidence WHERE session_id = $1`, snap.SessionID); err != nil {
		return fmt.Errorf("store: clear prior evidence: %w: %w", rerr.ErrStorage, err)
	}

	for _, e := range evidence {
		const insEv = `INSERT INTO evidence (session_id, claim_text, status, source_url) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, insEv, e.SessionID, e.ClaimText, e.Status, e.SourceURL); err != nil {
			return fmt.Errorf("store: write evidence: %w: %w", rerr.ErrStorage, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit write answer tx: %w: %w", rerr.ErrStorage, err)
	}
	return nil
}

func (s *Store) ReadResult(ctx context.Context, sessionID uuid.UUID) (domain.AnswerSnapshot, []domain.Evidence, error) {
	const q = `SELECT session_id, answer_text, confidence_level, confidence_reason, created_at
	           FROM answer_snapshots WHERE session_id = $1`
	row := s.pool.QueryRow(ctx, q, sessionID)
	var snap domain.AnswerSnapshot
	if err := row.Scan(&snap.SessionID, &snap.AnswerText, &snap.ConfidenceLevel, &snap.ConfidenceReason, &snap.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AnswerSnapshot{}, nil, fmt.Errorf("store: no result for session %s: %w", sessionID, pgx.ErrNoRows)
		}
		return domain.AnswerSnapshot{}, nil, fmt.Errorf("store: read result: %w: %w", rerr.ErrStorage, err)
	}

	const qEv = `SELECT session_id, claim_text, status, source_url FROM evidence WHERE session_id = $1 ORDER BY id`
	rows, err := s.pool.Query(ctx, qEv, sessionID)
	if err != nil {
		return domain.AnswerSnapshot{}, nil, fmt.Errorf("store: read evidence: %w: %w", rerr.ErrStorage, err)
	}
	defer rows.Close()

	var evidence []domain.Evidence
	for rows.Next() {
		var e domain.Evidence
		if err := rows.Scan(&e.SessionID, &e.ClaimText, &e.Status, &e.SourceURL); err != nil {
			return domain.AnswerSnapshot{}, nil, fmt.Errorf("store: scan evidence: %w: %w", rerr.ErrStorage, err)
		}
		evidence = append(evidence, e)
	}
	return snap, evidence, rows.Err()
}
