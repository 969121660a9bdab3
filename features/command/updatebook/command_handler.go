package updatebook

import (
	"context"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// BookStore defines the interface needed by the CommandHandler for book
// persistence.
type BookStore interface {
	GetByID(ctx context.Context, q storage.Querier, id core.BookID) (core.Book, bool, error)
	Update(ctx context.Context, q storage.Querier, book core.Book) error
}

// Committer defines the interface needed by the CommandHandler to complete
// its unit of work.
type Committer interface {
	Commit(ctx context.Context, scope *unitofwork.Scope, unit *unitofwork.UnitOfWork) error
	Now() time.Time
}

// CommandHandler rewrites a book's fields. When the update leaves the book
// available it raises BookAvailable, so subscribers waiting on the book get
// their notification through the reaction pipeline.
type CommandHandler struct {
	books     BookStore
	committer Committer
	db        storage.Querier
}

// NewCommandHandler creates a new CommandHandler with the provided dependencies.
func NewCommandHandler(books BookStore, committer Committer, db storage.Querier) CommandHandler {
	return CommandHandler{
		books:     books,
		committer: committer,
		db:        db,
	}
}

// Handle executes the command and returns the updated book.
func (h CommandHandler) Handle(ctx context.Context, scope *unitofwork.Scope, command Command) (core.Book, error) {
	q := unitofwork.QuerierFrom(scope, h.db)

	book, found, err := h.books.GetByID(ctx, q, command.BookID)
	if err != nil {
		return core.Book{}, err
	}
	if !found {
		return core.Book{}, core.ErrBookNotFound
	}

	updated, events := core.UpdateBookDetails(
		book,
		command.Title,
		command.ISBN,
		command.IsReserved,
		command.IsBorrowed,
		command.ReturnDate,
		h.committer.Now(),
	)

	unit := unitofwork.New()
	unit.StageUpdate(&updated.EntityMeta, func(writeCtx context.Context, writeQ storage.Querier) error {
		return h.books.Update(writeCtx, writeQ, updated)
	})
	unit.Raise(events...)

	if commitErr := h.committer.Commit(ctx, scope, unit); commitErr != nil {
		return core.Book{}, commitErr
	}

	return updated, nil
}
