package uow

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/techsupport-manager/internal/events"
)

// MemoryFactory opens units of work with no real transaction underneath,
// for tests and DSN-less development runs. Event-store writes and
// publication still follow the commit protocol, so ordering, sequencing and
// rollback-discard behavior can be observed.
type MemoryFactory struct {
	store     events.Store
	publisher events.Publisher
	logger    *zap.Logger

	// LastUnit is the most recently begun unit, exposed for assertions.
	LastUnit *MemoryUnitOfWork
}

// NewMemoryFactory constructs the factory. A nil logger is replaced with a
// no-op logger.
func NewMemoryFactory(store events.Store, publisher events.Publisher, logger *zap.Logger) *MemoryFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryFactory{store: store, publisher: publisher, logger: logger}
}

// Begin opens a unit of work. The context is returned unchanged: memory
// repositories apply writes directly.
func (f *MemoryFactory) Begin(ctx context.Context) (context.Context, UnitOfWork, error) {
	u := &MemoryUnitOfWork{
		store:     f.store,
		publisher: f.publisher,
		logger:    f.logger,
		state:     StateActive,
		sequences: make(map[string]int64),
	}
	f.LastUnit = u
	return ctx, u, nil
}

// MemoryUnitOfWork mirrors the Postgres unit of work without a transaction.
type MemoryUnitOfWork struct {
	store     events.Store
	publisher events.Publisher
	logger    *zap.Logger
	state     State
	buffer    []events.Event
	sequences map[string]int64
}

// Enqueue appends an event to the buffer.
func (u *MemoryUnitOfWork) Enqueue(event events.Event) {
	u.buffer = append(u.buffer, event)
}

// State reports the current lifecycle state.
func (u *MemoryUnitOfWork) State() State {
	return u.state
}

// Commit stores and publishes buffered events following the protocol order.
func (u *MemoryUnitOfWork) Commit(ctx context.Context) error {
	if u.state != StateActive {
		return nil
	}
	var written []writtenEvent
	for _, event := range u.buffer {
		sequence, err := u.nextSequence(ctx, event.AggregateID)
		if err != nil {
			u.undoAppends(ctx, written)
			_ = u.Rollback(ctx)
			return err
		}
		if err := u.store.Append(ctx, event, sequence); err != nil {
			u.undoAppends(ctx, written)
			_ = u.Rollback(ctx)
			return err
		}
		written = append(written, writtenEvent{aggregateID: event.AggregateID, sequence: sequence})
	}
	u.state = StateCommitted
	for _, event := range u.buffer {
		if err := u.publisher.Publish(ctx, event); err != nil {
			u.logger.Error("event publish failed after commit",
				zap.String("event_id", event.EventID),
				zap.String("event_type", string(event.EventType)),
				zap.Error(err))
		}
	}
	u.buffer = nil
	return nil
}

// Rollback discards the buffer unpublished.
func (u *MemoryUnitOfWork) Rollback(context.Context) error {
	if u.state != StateActive {
		return nil
	}
	u.state = StateRolledBack
	u.buffer = nil
	return nil
}

type writtenEvent struct {
	aggregateID string
	sequence    int64
}

// undoAppends removes events already stored by an aborting commit. There is
// no real transaction underneath, so a failed scope must clean up after
// itself to leave the store untouched, as the transactional unit of work
// would.
func (u *MemoryUnitOfWork) undoAppends(ctx context.Context, written []writtenEvent) {
	discarder, ok := u.store.(interface {
		Discard(ctx context.Context, aggregateID string, sequence int64)
	})
	if !ok {
		return
	}
	for _, w := range written {
		discarder.Discard(ctx, w.aggregateID, w.sequence)
	}
}

func (u *MemoryUnitOfWork) nextSequence(ctx context.Context, aggregateID string) (int64, error) {
	if _, ok := u.sequences[aggregateID]; !ok {
		last, err := u.store.LastSequence(ctx, aggregateID)
		if err != nil {
			return 0, err
		}
		u.sequences[aggregateID] = last
	}
	u.sequences[aggregateID]++
	return u.sequences[aggregateID], nil
}
