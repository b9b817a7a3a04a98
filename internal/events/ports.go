package events

import "context"

// Publisher delivers events to downstream consumers. Implementations provide
// at-least-once semantics; consumers must tolerate redelivery.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	PublishBatch(ctx context.Context, batch []Event) error
}

// StoredEvent is an event as recorded in the store, carrying its position in
// the per-aggregate stream.
type StoredEvent struct {
	Event
	Sequence int64
}

// Store durably records events per aggregate with monotonic sequence numbers
// starting at 1 (the outbox side of the transactional-publication protocol).
type Store interface {
	// Append records the event at the given sequence. A sequence collision
	// for the same aggregate yields a domain.ConcurrencyConflict.
	Append(ctx context.Context, event Event, sequence int64) error
	// EventsForAggregate returns events with Sequence > sinceSequence in
	// ascending order.
	EventsForAggregate(ctx context.Context, aggregateID string, sinceSequence int64) ([]StoredEvent, error)
	// LastSequence returns the highest recorded sequence for the aggregate,
	// or 0 when none exist.
	LastSequence(ctx context.Context, aggregateID string) (int64, error)
}
