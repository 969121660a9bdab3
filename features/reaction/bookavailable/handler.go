package bookavailable

import (
	"context"
	"fmt"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/shell"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// HandlerName identifies this handler in dispatch warning logs.
const HandlerName = "bookavailable.Handler"

const (
	logMsgAvailableMailFailed   = "failed to send book available mail"
	logMsgContactLookupFailed   = "failed to resolve subscriber contact"
	logMsgMarkNotifiedFailed    = "failed to mark subscription notified"
	logMsgSubscriberHasNoRecord = "subscriber has no contact record"
)

// BookStore defines the interface needed by the Handler to re-fetch the
// book before each send.
type BookStore interface {
	GetByID(ctx context.Context, q storage.Querier, id core.BookID) (core.Book, bool, error)
}

// NotificationStore defines the interface needed by the Handler for
// subscription persistence.
type NotificationStore interface {
	ListActiveForBook(ctx context.Context, q storage.Querier, bookID core.BookID) ([]core.Notification, error)
	Update(ctx context.Context, q storage.Querier, notification core.Notification) error
}

// CustomerDirectory defines the interface needed by the Handler to resolve
// subscriber contact addresses.
type CustomerDirectory interface {
	GetContact(ctx context.Context, q storage.Querier, id core.CustomerID) (core.Customer, bool, error)
}

// MessageSender defines the interface needed by the Handler to deliver the
// availability mail. A false result and an error are treated identically:
// the subscription stays unnotified and eligible for the next attempt.
type MessageSender interface {
	SendMessage(ctx context.Context, to string, subject string, body string) (bool, error)
}

// Handler reacts to BookAvailable by mailing every not-yet-notified
// subscriber of the book. A subscription is marked notified only after its
// message was verifiably delivered; one subscriber's failure never blocks
// the others.
type Handler struct {
	books         BookStore
	notifications NotificationStore
	customers     CustomerDirectory
	sender        MessageSender
	db            storage.Querier
	logger        shell.Logger
	clock         func() time.Time
}

// NewHandler creates a new Handler with the provided dependencies.
func NewHandler(
	books BookStore,
	notifications NotificationStore,
	customers CustomerDirectory,
	sender MessageSender,
	db storage.Querier,
	logger shell.Logger,
) *Handler {

	return &Handler{
		books:         books,
		notifications: notifications,
		customers:     customers,
		sender:        sender,
		db:            db,
		logger:        logger,
		clock:         time.Now,
	}
}

// Handle notifies the waiting subscribers of the now-available book.
func (h *Handler) Handle(ctx context.Context, event core.DomainEvent) error {
	available, isMatch := event.(core.BookAvailable)
	if !isMatch {
		return nil
	}

	q := unitofwork.QuerierFrom(unitofwork.ScopeFromContext(ctx), h.db)

	subscriptions, err := h.notifications.ListActiveForBook(ctx, q, available.BookID)
	if err != nil {
		return err
	}

	for _, subscription := range subscriptions {
		// Guards against the book vanishing between sends.
		book, found, fetchErr := h.books.GetByID(ctx, q, available.BookID)
		if fetchErr != nil {
			return fetchErr
		}
		if !found {
			return nil
		}

		h.notifySubscriber(ctx, q, subscription, book)
	}

	return nil
}

func (h *Handler) notifySubscriber(ctx context.Context, q storage.Querier, subscription core.Notification, book core.Book) {
	contact, found, err := h.customers.GetContact(ctx, q, subscription.CustomerID)
	if err != nil {
		h.logger.Warn(logMsgContactLookupFailed,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, book.ID,
			shell.LogAttrError, err.Error(),
		)

		return
	}
	if !found {
		h.logger.Warn(logMsgSubscriberHasNoRecord,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, book.ID,
		)

		return
	}

	subject := fmt.Sprintf("Book available: %s", book.Title)
	body := fmt.Sprintf(
		"Hello %s %s,\n\nthe book %q (ISBN %s) is available again. Reserve it now before someone else does.\n",
		contact.FirstName, contact.LastName, book.Title, book.ISBN,
	)

	sent, sendErr := h.sender.SendMessage(ctx, contact.Email, subject, body)
	if sendErr != nil || !sent {
		h.logger.Warn(logMsgAvailableMailFailed,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, book.ID,
			shell.LogAttrError, sendErrText(sendErr),
		)

		return
	}

	notified := core.MarkNotified(subscription)
	notified.DateModified = core.ToOccurredAt(h.clock())

	if updateErr := h.notifications.Update(ctx, q, notified); updateErr != nil {
		h.logger.Warn(logMsgMarkNotifiedFailed,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, book.ID,
			shell.LogAttrError, updateErr.Error(),
		)
	}
}

func sendErrText(err error) string {
	if err == nil {
		return "send rejected"
	}

	return err.Error()
}
