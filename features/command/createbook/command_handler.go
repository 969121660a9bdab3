package createbook

import (
	"context"
	"errors"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// ErrISBNAlreadyInUse is returned when another catalog entry already carries
// the command's ISBN.
var ErrISBNAlreadyInUse = errors.New("a book with this isbn already exists")

// BookStore defines the interface needed by the CommandHandler for book
// persistence.
type BookStore interface {
	Insert(ctx context.Context, q storage.Querier, book *core.Book) error
	IsISBNTaken(ctx context.Context, q storage.Querier, isbn core.ISBN) (bool, error)
}

// Committer defines the interface needed by the CommandHandler to complete
// its unit of work.
type Committer interface {
	Commit(ctx context.Context, scope *unitofwork.Scope, unit *unitofwork.UnitOfWork) error
	Now() time.Time
}

// CommandHandler adds a book to the catalog after guarding ISBN uniqueness.
type CommandHandler struct {
	books     BookStore
	committer Committer
	db        storage.Querier
}

// NewCommandHandler creates a new CommandHandler with the provided dependencies.
// The db Querier serves reads when the handler runs without a request scope.
func NewCommandHandler(books BookStore, committer Committer, db storage.Querier) CommandHandler {
	return CommandHandler{
		books:     books,
		committer: committer,
		db:        db,
	}
}

// Handle executes the command and returns the stored book with its
// generated id and audit timestamps.
func (h CommandHandler) Handle(ctx context.Context, scope *unitofwork.Scope, command Command) (core.Book, error) {
	q := unitofwork.QuerierFrom(scope, h.db)

	taken, err := h.books.IsISBNTaken(ctx, q, command.ISBN)
	if err != nil {
		return core.Book{}, err
	}
	if taken {
		return core.Book{}, ErrISBNAlreadyInUse
	}

	book := core.Book{
		Title: command.Title,
		ISBN:  command.ISBN,
	}

	unit := unitofwork.New()
	unit.StageInsert(&book.EntityMeta, func(writeCtx context.Context, writeQ storage.Querier) error {
		return h.books.Insert(writeCtx, writeQ, &book)
	})

	if commitErr := h.committer.Commit(ctx, scope, unit); commitErr != nil {
		return core.Book{}, commitErr
	}

	return book, nil
}
