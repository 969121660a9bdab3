package expiry

import (
	"context"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// BookStore defines the interface needed by the scheduler for book state.
type BookStore interface {
	GetByID(ctx context.Context, q storage.Querier, id core.BookID) (core.Book, bool, error)
	Update(ctx context.Context, q storage.Querier, book core.Book) error
}

// ReservationStore defines the interface needed by the scheduler to find
// and remove expired reservations.
type ReservationStore interface {
	ListExpired(ctx context.Context, q storage.Querier, asOf time.Time) ([]core.Reservation, error)
	Delete(ctx context.Context, q storage.Querier, id core.ReservationID) error
}

// NotificationStore defines the interface needed by the scheduler to find
// and mark waiting subscribers.
type NotificationStore interface {
	ListActiveForBook(ctx context.Context, q storage.Querier, bookID core.BookID) ([]core.Notification, error)
	Update(ctx context.Context, q storage.Querier, notification core.Notification) error
}

// CustomerDirectory defines the interface needed by the scheduler to
// resolve subscriber contact addresses.
type CustomerDirectory interface {
	GetContact(ctx context.Context, q storage.Querier, id core.CustomerID) (core.Customer, bool, error)
}

// MessageSender defines the interface needed by the scheduler to deliver
// availability mail. A false result and an error are treated identically.
type MessageSender interface {
	SendMessage(ctx context.Context, to string, subject string, body string) (bool, error)
}

// Committer defines the interface needed by the scheduler to complete the
// release unit of work. Without a request scope the committer dispatches
// the raised events immediately after its commit.
type Committer interface {
	Commit(ctx context.Context, scope *unitofwork.Scope, unit *unitofwork.UnitOfWork) error
}

// SweepDeps bundles the dependencies of one sweep. The factory acquires a
// fresh set at sweep start and Release returns them at sweep end, so no
// handle outlives the sweep that used it.
type SweepDeps struct {
	Querier       storage.Querier
	Books         BookStore
	Reservations  ReservationStore
	Notifications NotificationStore
	Customers     CustomerDirectory
	Sender        MessageSender
	Committer     Committer
	Release       func()
}

// DepsFactory acquires the dependencies for one sweep.
type DepsFactory func(ctx context.Context) (SweepDeps, error)
