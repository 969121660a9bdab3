package storage

import (
	"context"
	"errors"
)

// ErrStorageFailed is the generic condition surfaced to callers when a
// persistence operation fails. Concrete driver errors are wrapped so that
// callers can branch on this sentinel without knowing the backend.
var ErrStorageFailed = errors.New("storage operation failed")

// Rows defines the interface for query result rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// Result defines the interface for execution results.
type Result interface {
	RowsAffected() (int64, error)
}

// Querier executes interpolated SQL against either a connection pool or an
// open transaction. Repositories take a Querier per call so that the same
// repository code serves the request path (transaction begun by the
// middleware) and the background path (transaction begun by the committer).
type Querier interface {
	Query(ctx context.Context, sql string) (Rows, error)
	Exec(ctx context.Context, sql string) (Result, error)
}

// Tx is an open database transaction. Rollback after a successful Commit
// must be a harmless no-op, so that callers can release the handle in a
// deferred guard regardless of outcome.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is the top-level database handle: a Querier for plain reads plus the
// ability to begin transactions.
type DB interface {
	Querier
	BeginTx(ctx context.Context) (Tx, error)
}
