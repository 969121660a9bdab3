package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import

	"github.com/librisys/loanservice/storage"
)

const (
	dialectPostgres = "postgres"

	booksTable         = "books"
	reservationsTable  = "reservations"
	notificationsTable = "notifications"
	customersTable     = "customers"

	colID           = "id"
	colTitle        = "title"
	colISBN         = "isbn"
	colIsReserved   = "is_reserved"
	colIsBorrowed   = "is_borrowed"
	colReturnDate   = "return_date"
	colBookID       = "book_id"
	colCustomerID   = "customer_id"
	colIsNotified   = "is_notified"
	colFirstName    = "first_name"
	colLastName     = "last_name"
	colEmail        = "email"
	colDateCreated  = "date_created"
	colDateModified = "date_modified"

	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgQueryFailed      = "database query execution failed"
	logMsgExecFailed       = "database execution failed"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrTable           = "table"
)

// Logger interface for SQL error logging in the repositories.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// dialect is the shared goqu dialect wrapper for all repositories.
var dialect = goqu.Dialect(dialectPostgres)

// repoBase bundles the row plumbing every repository needs.
type repoBase struct {
	logger Logger
	table  string
}

// exec runs a statement and maps driver failures to the storage condition.
func (b repoBase) exec(ctx context.Context, q storage.Querier, sqlQuery string) error {
	if _, execErr := q.Exec(ctx, sqlQuery); execErr != nil {
		b.logger.Error(logMsgExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		return storageErr(execErr)
	}

	return nil
}

// queryGeneratedID runs an INSERT ... RETURNING id statement.
func (b repoBase) queryGeneratedID(ctx context.Context, q storage.Querier, sqlQuery string, dest *int64) error {
	rows, queryErr := q.Query(ctx, sqlQuery)
	if queryErr != nil {
		b.logger.Error(logMsgExecFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return storageErr(queryErr)
	}
	defer b.closeRows(rows)

	if !rows.Next() {
		return storageErr(sql.ErrNoRows)
	}

	if scanErr := rows.Scan(dest); scanErr != nil {
		b.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error(), logAttrTable, b.table)
		return storageErr(scanErr)
	}

	return nil
}

// queryCount runs a single-value COUNT query.
func (b repoBase) queryCount(ctx context.Context, q storage.Querier, sqlQuery string) (int64, error) {
	rows, queryErr := q.Query(ctx, sqlQuery)
	if queryErr != nil {
		b.logger.Error(logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return 0, storageErr(queryErr)
	}
	defer b.closeRows(rows)

	var count int64
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			b.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error(), logAttrTable, b.table)
			return 0, storageErr(scanErr)
		}
	}

	return count, nil
}

// closeRows safely closes database rows and logs any errors.
func (b repoBase) closeRows(rows storage.Rows) {
	if closeErr := rows.Close(); closeErr != nil {
		b.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// nullableTime converts an optional time into a value goqu renders as NULL
// or a timestamp literal.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}

// storageErr wraps a driver error into the generic storage failure condition.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", storage.ErrStorageFailed, err)
}

// buildErr wraps a goqu build error; these indicate a programming mistake
// rather than a runtime storage failure but surface the same way to callers.
func buildErr(err error) error {
	return errors.Join(storage.ErrStorageFailed, err)
}
