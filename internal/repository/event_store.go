package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/techsupport-manager/internal/domain"
	"github.com/spec-kit/techsupport-manager/internal/events"
)

const pgUniqueViolation = "23505"

// eventStore persists domain events in the ticket_events table. A unique
// constraint on (aggregate_id, sequence) turns concurrent appends into
// ConcurrencyConflict errors instead of silent duplicates.
type eventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore instantiates the Postgres event store.
func NewEventStore(pool *pgxpool.Pool) events.Store {
	return &eventStore{pool: pool}
}

func (s *eventStore) Append(ctx context.Context, event events.Event, sequence int64) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO ticket_events (event_id, aggregate_id, aggregate_type, event_type,
                                   occurred_at, schema_version, sequence, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err = querierOr(ctx, s.pool).Exec(ctx, query,
		event.EventID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		event.OccurredAt,
		event.SchemaVersion,
		sequence,
		payload,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.NewConcurrencyConflict(
			fmt.Sprintf("sequence %d already recorded for aggregate %s", sequence, event.AggregateID))
	}
	return err
}

func (s *eventStore) EventsForAggregate(ctx context.Context, aggregateID string, sinceSequence int64) ([]events.StoredEvent, error) {
	const query = `
        SELECT event_id, aggregate_id, aggregate_type, event_type,
               occurred_at, schema_version, sequence, payload
        FROM ticket_events
        WHERE aggregate_id=$1 AND sequence > $2
        ORDER BY sequence ASC`
	rows, err := querierOr(ctx, s.pool).Query(ctx, query, aggregateID, sinceSequence)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []events.StoredEvent
	for rows.Next() {
		var stored events.StoredEvent
		var payload json.RawMessage
		if err := rows.Scan(
			&stored.EventID,
			&stored.AggregateID,
			&stored.AggregateType,
			&stored.EventType,
			&stored.OccurredAt,
			&stored.SchemaVersion,
			&stored.Sequence,
			&payload,
		); err != nil {
			return nil, err
		}
		stored.Payload = payload
		result = append(result, stored)
	}
	return result, rows.Err()
}

func (s *eventStore) LastSequence(ctx context.Context, aggregateID string) (int64, error) {
	var last int64
	err := querierOr(ctx, s.pool).QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM ticket_events WHERE aggregate_id=$1`,
		aggregateID).Scan(&last)
	return last, err
}
