package bookdeleted

import (
	"context"
	"fmt"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/shell"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// HandlerName identifies this handler in dispatch warning logs.
const HandlerName = "bookdeleted.Handler"

const (
	logMsgCourtesyMailFailed  = "failed to send subscription cancellation mail"
	logMsgContactLookupFailed = "failed to resolve subscriber contact"
)

// ReservationStore defines the interface needed by the Handler to drop the
// deleted book's reservations.
type ReservationStore interface {
	DeleteForBook(ctx context.Context, q storage.Querier, bookID core.BookID) error
}

// NotificationStore defines the interface needed by the Handler to clean up
// the deleted book's subscriptions.
type NotificationStore interface {
	ListActiveForBook(ctx context.Context, q storage.Querier, bookID core.BookID) ([]core.Notification, error)
	DeleteForBook(ctx context.Context, q storage.Querier, bookID core.BookID) error
}

// CustomerDirectory defines the interface needed by the Handler to resolve
// subscriber contact addresses.
type CustomerDirectory interface {
	GetContact(ctx context.Context, q storage.Querier, id core.CustomerID) (core.Customer, bool, error)
}

// MessageSender defines the interface needed by the Handler for courtesy
// mail. A false result and an error are treated identically.
type MessageSender interface {
	SendMessage(ctx context.Context, to string, subject string, body string) (bool, error)
}

// Handler reacts to BookDeleted by removing the book's reservations and
// subscriptions. Pending subscribers get a courtesy mail first, built from
// the event's ISBN and title because the book row is already gone. Mail
// failures are logged and never block the cleanup.
type Handler struct {
	reservations  ReservationStore
	notifications NotificationStore
	customers     CustomerDirectory
	sender        MessageSender
	db            storage.Querier
	logger        shell.Logger
}

// NewHandler creates a new Handler with the provided dependencies.
func NewHandler(
	reservations ReservationStore,
	notifications NotificationStore,
	customers CustomerDirectory,
	sender MessageSender,
	db storage.Querier,
	logger shell.Logger,
) *Handler {

	return &Handler{
		reservations:  reservations,
		notifications: notifications,
		customers:     customers,
		sender:        sender,
		db:            db,
		logger:        logger,
	}
}

// Handle cleans up after a deleted book.
func (h *Handler) Handle(ctx context.Context, event core.DomainEvent) error {
	deleted, isMatch := event.(core.BookDeleted)
	if !isMatch {
		return nil
	}

	q := unitofwork.QuerierFrom(unitofwork.ScopeFromContext(ctx), h.db)

	if err := h.reservations.DeleteForBook(ctx, q, deleted.BookID); err != nil {
		return err
	}

	subscriptions, err := h.notifications.ListActiveForBook(ctx, q, deleted.BookID)
	if err != nil {
		return err
	}

	for _, subscription := range subscriptions {
		h.sendCancellationMail(ctx, q, subscription, deleted)
	}

	return h.notifications.DeleteForBook(ctx, q, deleted.BookID)
}

func (h *Handler) sendCancellationMail(ctx context.Context, q storage.Querier, subscription core.Notification, deleted core.BookDeleted) {
	contact, found, err := h.customers.GetContact(ctx, q, subscription.CustomerID)
	if err != nil {
		h.logger.Warn(logMsgContactLookupFailed,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, deleted.BookID,
			shell.LogAttrError, err.Error(),
		)

		return
	}
	if !found {
		return
	}

	subject := fmt.Sprintf("Book no longer available: %s", deleted.Title)
	body := fmt.Sprintf(
		"Hello %s %s,\n\nthe book %q (ISBN %s) has been removed from our catalog. Your availability subscription has been cancelled.\n",
		contact.FirstName, contact.LastName, deleted.Title, deleted.ISBN,
	)

	sent, sendErr := h.sender.SendMessage(ctx, contact.Email, subject, body)
	if sendErr != nil || !sent {
		h.logger.Warn(logMsgCourtesyMailFailed,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, deleted.BookID,
			shell.LogAttrError, errText(sendErr),
		)
	}
}

func errText(err error) string {
	if err == nil {
		return "send rejected"
	}

	return err.Error()
}
