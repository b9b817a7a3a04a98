package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories issue queries through it so the same code runs against the
// pool or inside a Unit-of-Work transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type querierKey struct{}

// WithQuerier returns a context carrying the given querier, typically an
// open transaction. Repositories join it transparently.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, querierKey{}, q)
}

// QuerierFromContext extracts a querier previously stored with WithQuerier.
func QuerierFromContext(ctx context.Context) (Querier, bool) {
	q, ok := ctx.Value(querierKey{}).(Querier)
	return q, ok
}

func querierOr(ctx context.Context, fallback Querier) Querier {
	if q, ok := QuerierFromContext(ctx); ok {
		return q
	}
	return fallback
}
