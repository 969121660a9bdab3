package createreservation

import (
	"context"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// BookStore defines the interface needed by the CommandHandler to verify
// the book exists.
type BookStore interface {
	GetByID(ctx context.Context, q storage.Querier, id core.BookID) (core.Book, bool, error)
}

// ReservationStore defines the interface needed by the CommandHandler for
// reservation persistence.
type ReservationStore interface {
	Insert(ctx context.Context, q storage.Querier, reservation *core.Reservation) error
}

// Committer defines the interface needed by the CommandHandler to complete
// its unit of work.
type Committer interface {
	Commit(ctx context.Context, scope *unitofwork.Scope, unit *unitofwork.UnitOfWork) error
	Now() time.Time
}

// CommandHandler records a hold on a book and raises ReservationCreated.
// Marking the book itself reserved is the reaction handler's job, so the
// write happens in the same drain that delivers the event.
type CommandHandler struct {
	books        BookStore
	reservations ReservationStore
	committer    Committer
	db           storage.Querier
}

// NewCommandHandler creates a new CommandHandler with the provided dependencies.
func NewCommandHandler(books BookStore, reservations ReservationStore, committer Committer, db storage.Querier) CommandHandler {
	return CommandHandler{
		books:        books,
		reservations: reservations,
		committer:    committer,
		db:           db,
	}
}

// Handle executes the command and returns the stored reservation.
func (h CommandHandler) Handle(ctx context.Context, scope *unitofwork.Scope, command Command) (core.Reservation, error) {
	q := unitofwork.QuerierFrom(scope, h.db)

	_, found, err := h.books.GetByID(ctx, q, command.BookID)
	if err != nil {
		return core.Reservation{}, err
	}
	if !found {
		return core.Reservation{}, core.ErrBookNotFound
	}

	reservation := core.Reservation{
		BookID:     command.BookID,
		CustomerID: command.CustomerID,
	}

	unit := unitofwork.New()
	unit.StageInsert(&reservation.EntityMeta, func(writeCtx context.Context, writeQ storage.Querier) error {
		return h.reservations.Insert(writeCtx, writeQ, &reservation)
	})
	unit.Raise(core.BuildReservationCreated(command.BookID, h.committer.Now()))

	if commitErr := h.committer.Commit(ctx, scope, unit); commitErr != nil {
		return core.Reservation{}, commitErr
	}

	return reservation, nil
}
