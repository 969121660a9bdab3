package deletebook

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
	Delete(ctx context.Context, q storage.Querier, id core.BookID) error
}

// Committer defines the interface needed by the CommandHandler to complete
// its unit of work.
type Committer interface {
	Commit(ctx context.Context, scope *unitofwork.Scope, unit *unitofwork.UnitOfWork) error
	Now() time.Time
}

// CommandHandler removes a book from the catalog and raises BookDeleted so
// the reaction pipeline can clean up reservations and subscriptions. The
// event carries the ISBN and title because the row is gone by the time any
// handler runs.
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

// Handle executes the command.
func (h CommandHandler) Handle(ctx context.Context, scope *unitofwork.Scope, command Command) error {
	q := unitofwork.QuerierFrom(scope, h.db)

	book, found, err := h.books.GetByID(ctx, q, command.BookID)
	if err != nil {
		return err
	}
	if !found {
		return core.ErrBookNotFound
	}

	unit := unitofwork.New()
	unit.StageDelete(func(writeCtx context.Context, writeQ storage.Querier) error {
		return h.books.Delete(writeCtx, writeQ, book.ID)
	})
	unit.Raise(core.BuildBookDeleted(book.ID, book.ISBN, book.Title, h.committer.Now()))

	return h.committer.Commit(ctx, scope, unit)
}
