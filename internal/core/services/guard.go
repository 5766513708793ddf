package services

import (
	"context"
	"sync"

	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
)

type turnCtxKey struct{}

// WithTurn marks ctx as running inside the turn scheduler. Service methods
// called with a marked context skip the turn guard, since the scheduler
// already holds it exclusively.
func WithTurn(ctx context.Context) context.Context {
	return context.WithValue(ctx, turnCtxKey{}, true)
}

func inTurn(ctx context.Context) bool {
	v, _ := ctx.Value(turnCtxKey{}).(bool)
	return v
}

// TurnGuard serializes turn processing against player-issued mutations.
// Mutations take the shared side and block while a turn is running; the turn
// scheduler takes the exclusive side and fails fast when another turn holds
// it.
type TurnGuard struct {
	mu sync.RWMutex
}

// Acquire takes the shared side for one mutating operation and returns its
// release func. Inside a turn it is a no-op: the scheduler already owns the
// exclusive side.
func (g *TurnGuard) Acquire(ctx context.Context) func() {
	if inTurn(ctx) {
		return func() {}
	}
	g.mu.RLock()
	return g.mu.RUnlock
}

// BeginTurn takes the exclusive side without blocking. It fails with
// apperrors.ErrConcurrentTurn when a turn is already in flight.
func (g *TurnGuard) BeginTurn() (func(), error) {
	if !g.mu.TryLock() {
		return nil, apperrors.ErrConcurrentTurn
	}
	return g.mu.Unlock, nil
}
