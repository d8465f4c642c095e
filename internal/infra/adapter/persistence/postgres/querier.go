package postgres

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB the repositories use. Both *sql.DB and
// circuitbreaker.DBCircuitBreaker satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
