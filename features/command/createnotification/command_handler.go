package createnotification

import (
	"context"
	"errors"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// ErrAlreadySubscribed is returned when the customer already holds a
// pending subscription for the book.
var ErrAlreadySubscribed = errors.New("customer is already subscribed to this book")

// BookStore defines the interface needed by the CommandHandler to verify
// the book exists.
type BookStore interface {
	GetByID(ctx context.Context, q storage.Querier, id core.BookID) (core.Book, bool, error)
}

// NotificationStore defines the interface needed by the CommandHandler for
// subscription persistence.
type NotificationStore interface {
	Insert(ctx context.Context, q storage.Querier, notification *core.Notification) error
	IsDuplicate(ctx context.Context, q storage.Querier, bookID core.BookID, customerID core.CustomerID) (bool, error)
}

// Committer defines the interface needed by the CommandHandler to complete
// its unit of work.
type Committer interface {
	Commit(ctx context.Context, scope *unitofwork.Scope, unit *unitofwork.UnitOfWork) error
	Now() time.Time
}

// CommandHandler records an availability subscription for a customer,
// guarding against duplicate pending subscriptions for the same book.
type CommandHandler struct {
	books         BookStore
	notifications NotificationStore
	committer     Committer
	db            storage.Querier
}

// NewCommandHandler creates a new CommandHandler with the provided dependencies.
func NewCommandHandler(books BookStore, notifications NotificationStore, committer Committer, db storage.Querier) CommandHandler {
	return CommandHandler{
		books:         books,
		notifications: notifications,
		committer:     committer,
		db:            db,
	}
}

// Handle executes the command and returns the stored subscription.
func (h CommandHandler) Handle(ctx context.Context, scope *unitofwork.Scope, command Command) (core.Notification, error) {
	q := unitofwork.QuerierFrom(scope, h.db)

	_, found, err := h.books.GetByID(ctx, q, command.BookID)
	if err != nil {
		return core.Notification{}, err
	}
	if !found {
		return core.Notification{}, core.ErrBookNotFound
	}

	duplicate, err := h.notifications.IsDuplicate(ctx, q, command.BookID, command.CustomerID)
	if err != nil {
		return core.Notification{}, err
	}
	if duplicate {
		return core.Notification{}, ErrAlreadySubscribed
	}

	notification := core.Notification{
		BookID:     command.BookID,
		CustomerID: command.CustomerID,
	}

	unit := unitofwork.New()
	unit.StageInsert(&notification.EntityMeta, func(writeCtx context.Context, writeQ storage.Querier) error {
		return h.notifications.Insert(writeCtx, writeQ, &notification)
	})

	if commitErr := h.committer.Commit(ctx, scope, unit); commitErr != nil {
		return core.Notification{}, commitErr
	}

	return notification, nil
}
