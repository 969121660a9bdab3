package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/storage/postgres/internal/adapters"
)

// ErrNilDatabaseConnection is returned when a nil connection handle is supplied.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

// NewDBFromPGXPool wraps a pgx connection pool as a storage.DB.
func NewDBFromPGXPool(pool *pgxpool.Pool) (storage.DB, error) {
	if pool == nil {
		return nil, ErrNilDatabaseConnection
	}

	return adapters.NewPGXAdapter(pool), nil
}

// NewDBFromSQLX wraps a sqlx database handle as a storage.DB.
func NewDBFromSQLX(db *sqlx.DB) (storage.DB, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return adapters.NewSQLXAdapter(db), nil
}
