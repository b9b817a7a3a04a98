package uow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/techsupport-manager/internal/events"
	"github.com/spec-kit/techsupport-manager/internal/repository"
)

// PostgresFactory opens units of work backed by pgx transactions.
type PostgresFactory struct {
	pool      *pgxpool.Pool
	store     events.Store
	publisher events.Publisher
	logger    *zap.Logger
}

// NewPostgresFactory constructs the factory.
func NewPostgresFactory(pool *pgxpool.Pool, store events.Store, publisher events.Publisher, logger *zap.Logger) *PostgresFactory {
	return &PostgresFactory{pool: pool, store: store, publisher: publisher, logger: logger}
}

// Begin opens a transaction and returns a context that carries it, so
// repository calls made with that context are invisible outside the scope
// until Commit.
func (f *PostgresFactory) Begin(ctx context.Context) (context.Context, UnitOfWork, error) {
	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return ctx, nil, err
	}
	u := &postgresUnitOfWork{
		tx:        tx,
		store:     f.store,
		publisher: f.publisher,
		logger:    f.logger,
		state:     StateActive,
		sequences: make(map[string]int64),
	}
	return repository.WithQuerier(ctx, tx), u, nil
}

type postgresUnitOfWork struct {
	tx        pgx.Tx
	store     events.Store
	publisher events.Publisher
	logger    *zap.Logger
	state     State
	buffer    []events.Event
	sequences map[string]int64
}

func (u *postgresUnitOfWork) Enqueue(event events.Event) {
	u.buffer = append(u.buffer, event)
}

func (u *postgresUnitOfWork) State() State {
	return u.state
}

func (u *postgresUnitOfWork) Commit(ctx context.Context) error {
	if u.state != StateActive {
		return nil
	}

	// Step 1: record events in the store inside the open transaction.
	for _, event := range u.buffer {
		sequence, err := u.nextSequence(ctx, event.AggregateID)
		if err != nil {
			u.abort(ctx, "sequence lookup failed", err)
			return err
		}
		if err := u.store.Append(ctx, event, sequence); err != nil {
			u.abort(ctx, "event store append failed", err)
			return err
		}
	}

	// Step 2: make the state change durable.
	if err := u.tx.Commit(ctx); err != nil {
		u.abort(ctx, "transaction commit failed", err)
		return err
	}
	u.state = StateCommitted

	// Step 3: publish in enqueue order. The commit is authoritative; a
	// publish failure leaves the event durably stored for redelivery and
	// must not surface as an operation failure.
	for _, event := range u.buffer {
		if err := u.publisher.Publish(ctx, event); err != nil {
			u.logger.Error("event publish failed after commit",
				zap.String("event_id", event.EventID),
				zap.String("event_type", string(event.EventType)),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err))
		}
	}

	// Step 4: release the buffer.
	u.buffer = nil
	return nil
}

func (u *postgresUnitOfWork) Rollback(ctx context.Context) error {
	if u.state != StateActive {
		return nil
	}
	err := u.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		u.logger.Error("transaction rollback failed", zap.Error(err))
	}
	u.state = StateRolledBack
	u.buffer = nil
	return nil
}

func (u *postgresUnitOfWork) abort(ctx context.Context, msg string, err error) {
	u.logger.Error(msg, zap.Error(err))
	_ = u.Rollback(ctx)
}

// nextSequence hands out monotonic per-aggregate sequence numbers, seeded
// from the store's last recorded sequence so numbering stays continuous
// across unit-of-work instances.
func (u *postgresUnitOfWork) nextSequence(ctx context.Context, aggregateID string) (int64, error) {
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
