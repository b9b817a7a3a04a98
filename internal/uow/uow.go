// Package uow implements the transactional event-publication protocol:
// state changes and their domain events commit together, and events reach
// the publisher only after the transaction is durable (outbox pattern).
package uow

import (
	"context"

	"github.com/spec-kit/techsupport-manager/internal/events"
)

// State tracks the lifecycle of a unit of work. Committed and RolledBack are
// terminal; finalizing twice is a no-op.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateActive     State = "ACTIVE"
	StateCommitted  State = "COMMITTED"
	StateRolledBack State = "ROLLED_BACK"
)

// UnitOfWork couples a persistence transaction with an ordered buffer of
// domain events. Intended use:
//
//	txCtx, u, err := factory.Begin(ctx)
//	if err != nil { ... }
//	defer u.Rollback(txCtx)
//	// repository work with txCtx, then:
//	u.Enqueue(event)
//	return u.Commit(txCtx)
//
// The deferred Rollback guarantees cleanup on every exit path, including
// panics; after a successful Commit it is a no-op.
type UnitOfWork interface {
	// Enqueue appends an event to the buffer. It never publishes by itself.
	Enqueue(event events.Event)
	// Commit persists buffered events to the event store with per-aggregate
	// sequence numbers, commits the transaction, then publishes the buffer
	// in order. Publish failures after a durable commit are logged, not
	// returned; any earlier failure rolls everything back.
	Commit(ctx context.Context) error
	// Rollback aborts the transaction and discards buffered events
	// unpublished. Safe to call after Commit or a previous Rollback.
	Rollback(ctx context.Context) error
	// State reports the current lifecycle state.
	State() State
}

// Factory opens units of work. The returned context carries the underlying
// transaction so repositories called with it join the transactional scope.
type Factory interface {
	Begin(ctx context.Context) (context.Context, UnitOfWork, error)
}
