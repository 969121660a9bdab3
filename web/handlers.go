package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/features/command/createbook"
	"github.com/librisys/loanservice/features/command/createnotification"
	"github.com/librisys/loanservice/features/command/createreservation"
	"github.com/librisys/loanservice/features/command/deletebook"
	"github.com/librisys/loanservice/features/command/updatebook"
	"github.com/librisys/loanservice/shell"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

var json = jsoniter.ConfigFastest

const logMsgWriteResponseFailed = "failed to write response body"

// BookReader defines the interface needed by the read endpoints.
type BookReader interface {
	GetByID(ctx context.Context, q storage.Querier, id core.BookID) (core.Book, bool, error)
	List(ctx context.Context, q storage.Querier) ([]core.Book, error)
}

// Handlers is the thin JSON surface over the command handlers. It decodes
// requests, extracts the consistency scope from the context, delegates, and
// maps domain errors to status codes.
type Handlers struct {
	books              BookReader
	createBook         createbook.CommandHandler
	updateBook         updatebook.CommandHandler
	deleteBook         deletebook.CommandHandler
	createReservation  createreservation.CommandHandler
	createNotification createnotification.CommandHandler
	db                 storage.Querier
	logger             shell.Logger
}

// NewHandlers creates the JSON surface with the provided dependencies.
func NewHandlers(
	books BookReader,
	createBook createbook.CommandHandler,
	updateBook updatebook.CommandHandler,
	deleteBook deletebook.CommandHandler,
	createReservation createreservation.CommandHandler,
	createNotification createnotification.CommandHandler,
	db storage.Querier,
	logger shell.Logger,
) *Handlers {

	return &Handlers{
		books:              books,
		createBook:         createBook,
		updateBook:         updateBook,
		deleteBook:         deleteBook,
		createReservation:  createReservation,
		createNotification: createNotification,
		db:                 db,
		logger:             logger,
	}
}

type bookPayload struct {
	Title      string     `json:"title"`
	ISBN       string     `json:"isbn"`
	IsReserved bool       `json:"isReserved"`
	IsBorrowed bool       `json:"isBorrowed"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
}

type bookResponse struct {
	ID           core.BookID `json:"id"`
	Title        string      `json:"title"`
	ISBN         string      `json:"isbn"`
	IsReserved   bool        `json:"isReserved"`
	IsBorrowed   bool        `json:"isBorrowed"`
	ReturnDate   *time.Time  `json:"returnDate,omitempty"`
	DateCreated  time.Time   `json:"dateCreated"`
	DateModified time.Time   `json:"dateModified"`
}

type reservationPayload struct {
	BookID     core.BookID `json:"bookId"`
	CustomerID string      `json:"customerId"`
}

type reservationResponse struct {
	ID          core.ReservationID `json:"id"`
	BookID      core.BookID        `json:"bookId"`
	CustomerID  string             `json:"customerId"`
	DateCreated time.Time          `json:"dateCreated"`
}

type notificationResponse struct {
	ID          core.NotificationID `json:"id"`
	BookID      core.BookID         `json:"bookId"`
	CustomerID  string              `json:"customerId"`
	IsNotified  bool                `json:"isNotified"`
	DateCreated time.Time           `json:"dateCreated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateBook handles POST /books.
func (h *Handlers) CreateBook(w http.ResponseWriter, r *http.Request) {
	var payload bookPayload
	if !h.decode(w, r, &payload) {
		return
	}

	scope := unitofwork.ScopeFromContext(r.Context())
	book, err := h.createBook.Handle(r.Context(), scope, createbook.BuildCommand(payload.Title, payload.ISBN))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toBookResponse(book))
}

// ListBooks handles GET /books.
func (h *Handlers) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := unitofwork.QuerierFrom(unitofwork.ScopeFromContext(r.Context()), h.db)

	books, err := h.books.List(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}

	responses := make([]bookResponse, 0, len(books))
	for _, book := range books {
		responses = append(responses, toBookResponse(book))
	}

	h.writeJSON(w, http.StatusOK, responses)
}

// GetBook handles GET /books/{bookID}.
func (h *Handlers) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := h.bookIDFromURL(w, r)
	if !ok {
		return
	}

	q := unitofwork.QuerierFrom(unitofwork.ScopeFromContext(r.Context()), h.db)

	book, found, err := h.books.GetByID(r.Context(), q, bookID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !found {
		h.writeError(w, core.ErrBookNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, toBookResponse(book))
}

// UpdateBook handles PUT /books/{bookID}.
func (h *Handlers) UpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := h.bookIDFromURL(w, r)
	if !ok {
		return
	}

	var payload bookPayload
	if !h.decode(w, r, &payload) {
		return
	}

	scope := unitofwork.ScopeFromContext(r.Context())
	command := updatebook.BuildCommand(bookID, payload.Title, payload.ISBN, payload.IsReserved, payload.IsBorrowed, payload.ReturnDate)

	book, err := h.updateBook.Handle(r.Context(), scope, command)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toBookResponse(book))
}

// DeleteBook handles DELETE /books/{bookID}.
func (h *Handlers) DeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := h.bookIDFromURL(w, r)
	if !ok {
		return
	}

	scope := unitofwork.ScopeFromContext(r.Context())
	if err := h.deleteBook.Handle(r.Context(), scope, deletebook.BuildCommand(bookID)); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateReservation handles POST /reservations.
func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var payload reservationPayload
	if !h.decode(w, r, &payload) {
		return
	}

	customerID, parseErr := core.ParseCustomerID(payload.CustomerID)
	if parseErr != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid customer id"})
		return
	}

	scope := unitofwork.ScopeFromContext(r.Context())
	command := createreservation.BuildCommand(payload.BookID, customerID)

	reservation, err := h.createReservation.Handle(r.Context(), scope, command)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, reservationResponse{
		ID:          reservation.ID,
		BookID:      reservation.BookID,
		CustomerID:  reservation.CustomerID.String(),
		DateCreated: reservation.DateCreated,
	})
}

// CreateNotification handles POST /notifications.
func (h *Handlers) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var payload reservationPayload
	if !h.decode(w, r, &payload) {
		return
	}

	customerID, parseErr := core.ParseCustomerID(payload.CustomerID)
	if parseErr != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid customer id"})
		return
	}

	scope := unitofwork.ScopeFromContext(r.Context())
	command := createnotification.BuildCommand(payload.BookID, customerID)

	notification, err := h.createNotification.Handle(r.Context(), scope, command)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, notificationResponse{
		ID:          notification.ID,
		BookID:      notification.BookID,
		CustomerID:  notification.CustomerID.String(),
		IsNotified:  notification.IsNotified,
		DateCreated: notification.DateCreated,
	})
}

func (h *Handlers) bookIDFromURL(w http.ResponseWriter, r *http.Request) (core.BookID, bool) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "bookID"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid book id"})
		return 0, false
	}

	return bookID, true
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}

	return true
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrBookNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, createbook.ErrISBNAlreadyInUse),
		errors.Is(err, createnotification.ErrAlreadySubscribed),
		errors.Is(err, core.ErrBookAlreadyReserved):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn(logMsgWriteResponseFailed, shell.LogAttrError, err.Error())
	}
}

func toBookResponse(book core.Book) bookResponse {
	return bookResponse{
		ID:           book.ID,
		Title:        book.Title,
		ISBN:         book.ISBN,
		IsReserved:   book.IsReserved,
		IsBorrowed:   book.IsBorrowed,
		ReturnDate:   book.ReturnDate,
		DateCreated:  book.DateCreated,
		DateModified: book.DateModified,
	}
}

func toErrText(recovered any) string {
	return fmt.Sprintf("%v", recovered)
}
