package core

import (
	"errors"
	"time"
)

// ErrBookAlreadyReserved is returned when a reservation is attempted on a book
// that already carries an active hold.
var ErrBookAlreadyReserved = errors.New("book is already reserved")

// ErrBookNotFound is returned when an operation expects a book that does not
// exist (anymore). Background reconciliation treats this as already resolved
// by another path.
var ErrBookNotFound = errors.New("book not found")

// Book is a catalog entry. Availability is derived from the three state
// fields below; IsReserved and IsBorrowed are never both true.
type Book struct {
	EntityMeta
	Title      string
	ISBN       ISBN
	IsReserved bool
	IsBorrowed bool
	ReturnDate *time.Time
}

// IsAvailable reports whether the book can be reserved or borrowed right now.
func (b Book) IsAvailable() bool {
	return !b.IsReserved && !b.IsBorrowed && b.ReturnDate == nil
}

// ReserveBook marks the book as held. It fails when a hold is already active;
// clearing the borrowed flag keeps the reserved/borrowed exclusivity intact.
func ReserveBook(book Book) (Book, error) {
	if book.IsReserved {
		return Book{}, ErrBookAlreadyReserved
	}

	book.IsReserved = true
	book.IsBorrowed = false

	return book, nil
}

// UpdateBookDetails rewrites the catalog fields and loan-state flags of a
// book. It raises BookAvailable when the update leaves the book available,
// so waiting customers learn about returned or freed copies.
func UpdateBookDetails(book Book, title string, isbn ISBN, isReserved bool, isBorrowed bool, returnDate *time.Time, occurredAt time.Time) (Book, DomainEvents) {
	book.Title = title
	book.ISBN = isbn
	book.IsReserved = isReserved
	book.IsBorrowed = isBorrowed
	book.ReturnDate = returnDate

	var events DomainEvents
	if book.IsAvailable() {
		events = append(events, BuildBookAvailable(book.ID, occurredAt))
	}

	return book, events
}

// ReleaseExpiredHold clears the reserved flag and the hold return date after a
// reservation ran out. It raises BookAvailable when the book ends up available
// again (it may still be borrowed, in which case nothing is raised).
func ReleaseExpiredHold(book Book, occurredAt time.Time) (Book, DomainEvents) {
	book.IsReserved = false
	book.ReturnDate = nil

	var events DomainEvents
	if book.IsAvailable() {
		events = append(events, BuildBookAvailable(book.ID, occurredAt))
	}

	return book, events
}
