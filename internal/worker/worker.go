// Package worker decouples a query session's run time from the HTTP
// request that created it (spec.md 9): POST /api/query enqueues a session
// and returns immediately; a bounded goroutine pool drains the queue and
// drives each session through PlannerAgent.Run. Grounded on
// Tangerg-lynx/pkg/sync.Pool's adapter-over-a-concrete-pool shape,
// concretized here with panjf2000/ants/v2 instead of left pluggable,
// since this module only ever runs one pool implementation in production.
package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

// Planner runs one query session end to end. *planner.Agent satisfies this.
type Planner interface {
	Run(ctx context.Context, sessionID uuid.UUID) error
}

// Pool is a bounded dispatcher of RunSession jobs backed by an ants.Pool.
type Pool struct {
	ants   *ants.Pool
	runner Planner
	ctx    context.Context
}

// NewPool builds a Pool with the given worker count. runner.Run is invoked
// once per Submit call, detached from the caller's context: job lifetime is
// governed by the session's own timeout (planner.Budgets.SessionTimeout),
// not by the HTTP request that enqueued it.
func NewPool(size int, runner Planner) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	p, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("worker: new ants pool: %w", err)
	}
	return &Pool{ants: p, runner: runner, ctx: context.Background()}, nil
}

// Submit enqueues sessionID for processing. It blocks only long enough to
// hand the job to a free worker goroutine (or to grow the pool up to its
// capacity); it never waits for the session to finish.
func (p *Pool) Submit(sessionID uuid.UUID) error {
	return p.ants.Submit(func() {
		if err := p.runner.Run(p.ctx, sessionID); err != nil {
			log.Error().Err(err).Stringer("session_id", sessionID).Msg("worker: session run failed")
		}
	})
}

// Running reports the number of sessions currently in flight.
func (p *Pool) Running() int {
	return p.ants.Running()
}

// Release closes the pool; it does not wait for sessions already running
// to finish.
func (p *Pool) Release() {
	p.ants.Release()
}
