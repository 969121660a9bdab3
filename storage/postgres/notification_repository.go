package postgres

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
)

// NotificationRepository persists availability subscriptions. A row links a
// customer to a book they want to hear about; is_notified flips once a
// message went out so the same subscriber is never mailed twice.
type NotificationRepository struct {
	repoBase
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(logger Logger) *NotificationRepository {
	return &NotificationRepository{repoBase: repoBase{logger: logger, table: notificationsTable}}
}

// Insert stores a new subscription and assigns the generated id to the entity.
func (r *NotificationRepository) Insert(ctx context.Context, q storage.Querier, notification *core.Notification) error {
	insertStmt := dialect.Insert(notificationsTable).
		Cols(colBookID, colCustomerID, colIsNotified, colDateCreated, colDateModified).
		Vals(goqu.Vals{
			notification.BookID,
			notification.CustomerID.String(),
			notification.IsNotified,
			notification.DateCreated,
			notification.DateModified,
		}).
		Returning(colID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, notificationsTable)
		return buildErr(toSQLErr)
	}

	return r.queryGeneratedID(ctx, q, sqlQuery, &notification.ID)
}

// Update rewrites the mutable columns of a subscription row.
func (r *NotificationRepository) Update(ctx context.Context, q storage.Querier, notification core.Notification) error {
	updateStmt := dialect.Update(notificationsTable).
		Set(goqu.Record{
			colIsNotified:   notification.IsNotified,
			colDateModified: notification.DateModified,
		}).
		Where(goqu.Ex{colID: notification.ID})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, notificationsTable)
		return buildErr(toSQLErr)
	}

	return r.exec(ctx, q, sqlQuery)
}

// DeleteForBook removes all subscriptions for a book. Used when a book
// leaves the catalog.
func (r *NotificationRepository) DeleteForBook(ctx context.Context, q storage.Querier, bookID core.BookID) error {
	deleteStmt := dialect.Delete(notificationsTable).Where(goqu.Ex{colBookID: bookID})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, notificationsTable)
		return buildErr(toSQLErr)
	}

	return r.exec(ctx, q, sqlQuery)
}

// ListActiveForBook returns the subscriptions for a book whose customers
// have not been notified yet.
func (r *NotificationRepository) ListActiveForBook(ctx context.Context, q storage.Querier, bookID core.BookID) ([]core.Notification, error) {
	selectStmt := dialect.From(notificationsTable).
		Select(colID, colBookID, colCustomerID, colIsNotified, colDateCreated, colDateModified).
		Where(goqu.Ex{colBookID: bookID, colIsNotified: false}).
		Order(goqu.C(colDateCreated).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, notificationsTable)
		return nil, buildErr(toSQLErr)
	}

	rows, queryErr := q.Query(ctx, sqlQuery)
	if queryErr != nil {
		r.logger.Error(logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, storageErr(queryErr)
	}
	defer r.closeRows(rows)

	var active []core.Notification
	for rows.Next() {
		notification, scanErr := r.scanNotification(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		active = append(active, notification)
	}

	return active, nil
}

// IsDuplicate reports whether the customer already holds a pending
// subscription for the book.
func (r *NotificationRepository) IsDuplicate(ctx context.Context, q storage.Querier, bookID core.BookID, customerID core.CustomerID) (bool, error) {
	selectStmt := dialect.From(notificationsTable).
		Select(goqu.COUNT(colID)).
		Where(goqu.Ex{colBookID: bookID, colCustomerID: customerID.String(), colIsNotified: false})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, notificationsTable)
		return false, buildErr(toSQLErr)
	}

	count, err := r.queryCount(ctx, q, sqlQuery)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *NotificationRepository) scanNotification(rows storage.Rows) (core.Notification, error) {
	var notification core.Notification
	var customerID string
	var dateCreated, dateModified sql.NullTime

	scanErr := rows.Scan(
		&notification.ID,
		&notification.BookID,
		&customerID,
		&notification.IsNotified,
		&dateCreated,
		&dateModified,
	)
	if scanErr != nil {
		r.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error(), logAttrTable, notificationsTable)
		return core.Notification{}, storageErr(scanErr)
	}

	parsed, parseErr := core.ParseCustomerID(customerID)
	if parseErr != nil {
		r.logger.Error(logMsgScanRowFailed, logAttrError, parseErr.Error(), logAttrTable, notificationsTable)
		return core.Notification{}, storageErr(parseErr)
	}

	notification.CustomerID = parsed
	notification.DateCreated = dateCreated.Time
	notification.DateModified = dateModified.Time

	return notification, nil
}
