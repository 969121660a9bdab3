package reservationcreated

import (
	"context"
	"errors"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// HandlerName identifies this handler in dispatch warning logs.
const HandlerName = "reservationcreated.Handler"

// BookStore defines the interface needed by the Handler to place the hold.
type BookStore interface {
	Reserve(ctx context.Context, q storage.Querier, id core.BookID, now time.Time) (core.Book, error)
}

// Handler reacts to ReservationCreated by marking the book reserved. The
// write joins the request transaction when the event is drained inside a
// request scope; background dispatches run against the fallback Querier.
type Handler struct {
	books BookStore
	db    storage.Querier
	clock func() time.Time
}

// NewHandler creates a new Handler with the provided dependencies.
func NewHandler(books BookStore, db storage.Querier) *Handler {
	return &Handler{
		books: books,
		db:    db,
		clock: time.Now,
	}
}

// Handle places the hold on the reserved book. A book that vanished before
// the event arrived counts as already resolved by another path.
func (h *Handler) Handle(ctx context.Context, event core.DomainEvent) error {
	created, isMatch := event.(core.ReservationCreated)
	if !isMatch {
		return nil
	}

	q := unitofwork.QuerierFrom(unitofwork.ScopeFromContext(ctx), h.db)

	_, err := h.books.Reserve(ctx, q, created.BookID, core.ToOccurredAt(h.clock()))
	if errors.Is(err, core.ErrBookNotFound) {
		return nil
	}

	return err
}
