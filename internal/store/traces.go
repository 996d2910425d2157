package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
	"github.com/hyperifyio/goresearch-verify/internal/rerr"
)

func (s *Store) AppendPlannerTrace(ctx context.Context, t domain.PlannerTrace) error {
	const q = `INSERT INTO planner_traces (session_id, attempt_number, planner_state, strategy_used, num_docs, verification_decision, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7)
	           ON CONFLICT (session_id, attempt_number) DO NOTHING`
	if _, err := s.pool.Exec(ctx, q, t.SessionID, t.AttemptNumber, t.PlannerState, t.StrategyUsed, t.NumDocs, t.VerificationDecision, t.CreatedAt); err != nil {
		return fmt.Errorf("store: append planner trace: %w: %w", rerr.ErrStorage, err)
	}
	return nil
}

func (s *Store) AppendSearchLog(ctx context.Context, l domain.SearchLog) error {
	const q = `INSERT INTO search_logs (session_id, attempt_number, query_used, num_docs, success, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.pool.Exec(ctx, q, l.SessionID, l.AttemptNumber, l.QueryUsed, l.NumDocs, l.Success, l.CreatedAt); err != nil {
		return fmt.Errorf("store: append search log: %w: %w", rerr.ErrStorage, err)
	}
	return nil
}

func (s *Store) ReadTrace(ctx context.Context, sessionID uuid.UUID) ([]domain.PlannerTrace, []domain.SearchLog, error) {
	traces, err := s.readPlannerTraces(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.readSearchLogs(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return traces, logs, nil
}

func (s *Store) readPlannerTraces(ctx context.Context, sessionID uuid.UUID) ([]domain.PlannerTrace, error) {
	const q = `SELECT session_id, attempt_number, planner_state, strategy_used, num_docs, verification_decision, created_at
	           FROM planner_traces WHERE session_id = $1 ORDER BY attempt_number`
	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: read planner traces: %w: %w", rerr.ErrStorage, err)
	}
	defer rows.Close()

	var traces []domain.PlannerTrace
	for rows.Next() {
		var t domain.PlannerTrace
		if err := rows.Scan(&t.SessionID, &t.AttemptNumber, &t.PlannerState, &t.StrategyUsed, &t.NumDocs, &t.VerificationDecision, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan planner trace: %w: %w", rerr.ErrStorage, err)
		}
		traces = append(traces, t)
	}
	return traces, rows.Err()
}

func (s *Store) readSearchLogs(ctx context.Context, sessionID uuid.UUID) ([]domain.SearchLog, error) {
	const q = `SELECT session_id, attempt_number, query_used, num_docs, success, created_at
	           FROM search_logs WHERE session_id = $1 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: read search logs: %w: %w", rerr.ErrStorage, err)
	}
	defer rows.Close()

	var logs []domain.SearchLog
	for rows.Next() {
		var l domain.SearchLog
		if err := rows.Scan(&l.SessionID, &l.AttemptNumber, &l.QueryUsed, &l.NumDocs, &l.Success, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan search log: %w: %w", rerr.ErrStorage, err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
