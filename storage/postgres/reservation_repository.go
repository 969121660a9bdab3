package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
)

// ReservationRepository persists reservations (holds customers place on
// books). Rows are written inside a request transaction and later swept by
// the expiry scheduler, so every method takes its Querier explicitly.
type ReservationRepository struct {
	repoBase
}

// NewReservationRepository creates a new ReservationRepository.
func NewReservationRepository(logger Logger) *ReservationRepository {
	return &ReservationRepository{repoBase: repoBase{logger: logger, table: reservationsTable}}
}

// Insert stores a new reservation and assigns the generated id to the entity.
func (r *ReservationRepository) Insert(ctx context.Context, q storage.Querier, reservation *core.Reservation) error {
	insertStmt := dialect.Insert(reservationsTable).
		Cols(colBookID, colCustomerID, colDateCreated, colDateModified).
		Vals(goqu.Vals{
			reservation.BookID,
			reservation.CustomerID.String(),
			reservation.DateCreated,
			reservation.DateModified,
		}).
		Returning(colID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, reservationsTable)
		return buildErr(toSQLErr)
	}

	return r.queryGeneratedID(ctx, q, sqlQuery, &reservation.ID)
}

// Delete removes one reservation. A reservation already deleted by another
// path is not an error.
func (r *ReservationRepository) Delete(ctx context.Context, q storage.Querier, id core.ReservationID) error {
	deleteStmt := dialect.Delete(reservationsTable).Where(goqu.Ex{colID: id})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, reservationsTable)
		return buildErr(toSQLErr)
	}

	return r.exec(ctx, q, sqlQuery)
}

// DeleteForBook removes all reservations held against a book. Used when a
// book leaves the catalog.
func (r *ReservationRepository) DeleteForBook(ctx context.Context, q storage.Querier, bookID core.BookID) error {
	deleteStmt := dialect.Delete(reservationsTable).Where(goqu.Ex{colBookID: bookID})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, reservationsTable)
		return buildErr(toSQLErr)
	}

	return r.exec(ctx, q, sqlQuery)
}

// ListExpired returns the reservations whose hold window has elapsed by
// asOf. The window math runs in the query so a sweep sees one consistent
// cutoff regardless of how long scanning takes.
func (r *ReservationRepository) ListExpired(ctx context.Context, q storage.Querier, asOf time.Time) ([]core.Reservation, error) {
	cutoff := asOf.Add(-core.ReservationHoldWindow)

	selectStmt := dialect.From(reservationsTable).
		Select(colID, colBookID, colCustomerID, colDateCreated, colDateModified).
		Where(goqu.C(colDateCreated).Lte(cutoff)).
		Order(goqu.C(colDateCreated).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, reservationsTable)
		return nil, buildErr(toSQLErr)
	}

	rows, queryErr := q.Query(ctx, sqlQuery)
	if queryErr != nil {
		r.logger.Error(logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, storageErr(queryErr)
	}
	defer r.closeRows(rows)

	var expired []core.Reservation
	for rows.Next() {
		reservation, scanErr := r.scanReservation(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		expired = append(expired, reservation)
	}

	return expired, nil
}

func (r *ReservationRepository) scanReservation(rows storage.Rows) (core.Reservation, error) {
	var reservation core.Reservation
	var customerID string
	var dateCreated, dateModified sql.NullTime

	scanErr := rows.Scan(
		&reservation.ID,
		&reservation.BookID,
		&customerID,
		&dateCreated,
		&dateModified,
	)
	if scanErr != nil {
		r.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error(), logAttrTable, reservationsTable)
		return core.Reservation{}, storageErr(scanErr)
	}

	parsed, parseErr := core.ParseCustomerID(customerID)
	if parseErr != nil {
		r.logger.Error(logMsgScanRowFailed, logAttrError, parseErr.Error(), logAttrTable, reservationsTable)
		return core.Reservation{}, storageErr(parseErr)
	}

	reservation.CustomerID = parsed
	reservation.DateCreated = dateCreated.Time
	reservation.DateModified = dateModified.Time

	return reservation, nil
}
