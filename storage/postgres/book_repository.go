package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
)

// BookRepository persists books. All methods take the Querier to run
// against, so the same repository serves pool reads, request transactions,
// and the per-sweep handles of the expiry scheduler.
type BookRepository struct {
	repoBase
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(logger Logger) *BookRepository {
	return &BookRepository{repoBase: repoBase{logger: logger, table: booksTable}}
}

// GetByID fetches a book by id. The second return value is false when no
// such book exists.
func (r *BookRepository) GetByID(ctx context.Context, q storage.Querier, id core.BookID) (core.Book, bool, error) {
	selectStmt := dialect.From(booksTable).
		Select(colID, colTitle, colISBN, colIsReserved, colIsBorrowed, colReturnDate, colDateCreated, colDateModified).
		Where(goqu.Ex{colID: id})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, booksTable)
		return core.Book{}, false, buildErr(toSQLErr)
	}

	rows, queryErr := q.Query(ctx, sqlQuery)
	if queryErr != nil {
		r.logger.Error(logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return core.Book{}, false, storageErr(queryErr)
	}
	defer r.closeRows(rows)

	if !rows.Next() {
		return core.Book{}, false, nil
	}

	book, scanErr := r.scanBook(rows)
	if scanErr != nil {
		return core.Book{}, false, scanErr
	}

	return book, true, nil
}

// List returns all catalog entries ordered by id.
func (r *BookRepository) List(ctx context.Context, q storage.Querier) ([]core.Book, error) {
	selectStmt := dialect.From(booksTable).
		Select(colID, colTitle, colISBN, colIsReserved, colIsBorrowed, colReturnDate, colDateCreated, colDateModified).
		Order(goqu.C(colID).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, booksTable)
		return nil, buildErr(toSQLErr)
	}

	rows, queryErr := q.Query(ctx, sqlQuery)
	if queryErr != nil {
		r.logger.Error(logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, storageErr(queryErr)
	}
	defer r.closeRows(rows)

	var books []core.Book
	for rows.Next() {
		book, scanErr := r.scanBook(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		books = append(books, book)
	}

	return books, nil
}

// Insert stores a new book and assigns the generated id to the entity.
func (r *BookRepository) Insert(ctx context.Context, q storage.Querier, book *core.Book) error {
	insertStmt := dialect.Insert(booksTable).
		Cols(colTitle, colISBN, colIsReserved, colIsBorrowed, colReturnDate, colDateCreated, colDateModified).
		Vals(goqu.Vals{
			book.Title,
			book.ISBN,
			book.IsReserved,
			book.IsBorrowed,
			nullableTime(book.ReturnDate),
			book.DateCreated,
			book.DateModified,
		}).
		Returning(colID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, booksTable)
		return buildErr(toSQLErr)
	}

	return r.queryGeneratedID(ctx, q, sqlQuery, &book.ID)
}

// Update rewrites the mutable columns of a book row. A row that vanished
// concurrently is not an error; the change is simply obsolete.
func (r *BookRepository) Update(ctx context.Context, q storage.Querier, book core.Book) error {
	updateStmt := dialect.Update(booksTable).
		Set(goqu.Record{
			colTitle:        book.Title,
			colISBN:         book.ISBN,
			colIsReserved:   book.IsReserved,
			colIsBorrowed:   book.IsBorrowed,
			colReturnDate:   nullableTime(book.ReturnDate),
			colDateModified: book.DateModified,
		}).
		Where(goqu.Ex{colID: book.ID})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, booksTable)
		return buildErr(toSQLErr)
	}

	return r.exec(ctx, q, sqlQuery)
}

// Delete removes a book row.
func (r *BookRepository) Delete(ctx context.Context, q storage.Querier, id core.BookID) error {
	deleteStmt := dialect.Delete(booksTable).Where(goqu.Ex{colID: id})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, booksTable)
		return buildErr(toSQLErr)
	}

	return r.exec(ctx, q, sqlQuery)
}

// IsISBNTaken reports whether a book with the given ISBN already exists.
func (r *BookRepository) IsISBNTaken(ctx context.Context, q storage.Querier, isbn core.ISBN) (bool, error) {
	selectStmt := dialect.From(booksTable).
		Select(goqu.COUNT(colID)).
		Where(goqu.Ex{colISBN: isbn})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		r.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, booksTable)
		return false, buildErr(toSQLErr)
	}

	count, err := r.queryCount(ctx, q, sqlQuery)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Reserve places a hold on the book: it fetches the row, applies the domain
// transition, and persists the flags. Fails with core.ErrBookNotFound when
// the book is missing and core.ErrBookAlreadyReserved when a hold is active.
func (r *BookRepository) Reserve(ctx context.Context, q storage.Querier, id core.BookID, now time.Time) (core.Book, error) {
	book, found, err := r.GetByID(ctx, q, id)
	if err != nil {
		return core.Book{}, err
	}
	if !found {
		return core.Book{}, core.ErrBookNotFound
	}

	reserved, reserveErr := core.ReserveBook(book)
	if reserveErr != nil {
		return core.Book{}, reserveErr
	}

	reserved.DateModified = now
	if updateErr := r.Update(ctx, q, reserved); updateErr != nil {
		return core.Book{}, updateErr
	}

	return reserved, nil
}

// scanBook reads one book row from the current rows position.
func (r *BookRepository) scanBook(rows storage.Rows) (core.Book, error) {
	var book core.Book
	var returnDate, dateCreated, dateModified sql.NullTime

	scanErr := rows.Scan(
		&book.ID,
		&book.Title,
		&book.ISBN,
		&book.IsReserved,
		&book.IsBorrowed,
		&returnDate,
		&dateCreated,
		&dateModified,
	)
	if scanErr != nil {
		r.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error(), logAttrTable, booksTable)
		return core.Book{}, storageErr(scanErr)
	}

	if returnDate.Valid {
		rd := returnDate.Time
		book.ReturnDate = &rd
	}
	book.DateCreated = dateCreated.Time
	book.DateModified = dateModified.Time

	return book, nil
}
