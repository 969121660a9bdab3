package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
)

// MemoryBookStore is an in-memory book repository matching the signatures
// of the postgres implementation. The Querier parameter is accepted and
// ignored so the store satisfies the consumer-side interfaces of the
// feature packages.
type MemoryBookStore struct {
	mu     sync.Mutex
	books  map[core.BookID]core.Book
	nextID core.BookID

	// FailUpdate makes every Update fail with this error.
	FailUpdate error

	// FailUpdateFor makes Update fail for specific book ids only.
	FailUpdateFor map[core.BookID]error

	// FailReserve makes Reserve fail with this error.
	FailReserve error
}

// NewMemoryBookStore creates an empty MemoryBookStore.
func NewMemoryBookStore() *MemoryBookStore {
	return &MemoryBookStore{books: make(map[core.BookID]core.Book), nextID: 1}
}

// Put seeds a book, assigning an id when the book has none, and returns the
// stored value.
func (s *MemoryBookStore) Put(book core.Book) core.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID == 0 {
		book.ID = s.nextID
		s.nextID++
	} else if book.ID >= s.nextID {
		s.nextID = book.ID + 1
	}

	s.books[book.ID] = book

	return book
}

// GetByID fetches a book by id.
func (s *MemoryBookStore) GetByID(_ context.Context, _ storage.Querier, id core.BookID) (core.Book, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, found := s.books[id]

	return book, found, nil
}

// List returns all stored books ordered by id.
func (s *MemoryBookStore) List(_ context.Context, _ storage.Querier) ([]core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := make([]core.Book, 0, len(s.books))
	for _, book := range s.books {
		books = append(books, book)
	}

	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })

	return books, nil
}

// Insert stores a new book and assigns the generated id.
func (s *MemoryBookStore) Insert(_ context.Context, _ storage.Querier, book *core.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book.ID = s.nextID
	s.nextID++
	s.books[book.ID] = *book

	return nil
}

// Update rewrites a stored book. A missing row is not an error.
func (s *MemoryBookStore) Update(_ context.Context, _ storage.Querier, book core.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, hit := s.FailUpdateFor[book.ID]; hit {
		return err
	}
	if s.FailUpdate != nil {
		return s.FailUpdate
	}

	if _, found := s.books[book.ID]; found {
		s.books[book.ID] = book
	}

	return nil
}

// Delete removes a book. A missing row is not an error.
func (s *MemoryBookStore) Delete(_ context.Context, _ storage.Querier, id core.BookID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.books, id)

	return nil
}

// IsISBNTaken reports whether any stored book carries the ISBN.
func (s *MemoryBookStore) IsISBNTaken(_ context.Context, _ storage.Querier, isbn core.ISBN) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, book := range s.books {
		if book.ISBN == isbn {
			return true, nil
		}
	}

	return false, nil
}

// Reserve places a hold on the book, mirroring the postgres repository
// semantics.
func (s *MemoryBookStore) Reserve(_ context.Context, _ storage.Querier, id core.BookID, now time.Time) (core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailReserve != nil {
		return core.Book{}, s.FailReserve
	}

	book, found := s.books[id]
	if !found {
		return core.Book{}, core.ErrBookNotFound
	}

	reserved, err := core.ReserveBook(book)
	if err != nil {
		return core.Book{}, err
	}

	reserved.DateModified = now
	s.books[id] = reserved

	return reserved, nil
}

// MemoryReservationStore is an in-memory reservation repository matching
// the signatures of the postgres implementation.
type MemoryReservationStore struct {
	mu           sync.Mutex
	reservations map[core.ReservationID]core.Reservation
	nextID       core.ReservationID

	// FailDelete makes every Delete fail with this error.
	FailDelete error

	// FailDeleteFor makes Delete fail for specific reservation ids only.
	FailDeleteFor map[core.ReservationID]error
}

// NewMemoryReservationStore creates an empty MemoryReservationStore.
func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{reservations: make(map[core.ReservationID]core.Reservation), nextID: 1}
}

// Put seeds a reservation, assigning an id when it has none, and returns
// the stored value.
func (s *MemoryReservationStore) Put(reservation core.Reservation) core.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reservation.ID == 0 {
		reservation.ID = s.nextID
		s.nextID++
	} else if reservation.ID >= s.nextID {
		s.nextID = reservation.ID + 1
	}

	s.reservations[reservation.ID] = reservation

	return reservation
}

// Get fetches a stored reservation for assertions.
func (s *MemoryReservationStore) Get(id core.ReservationID) (core.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, found := s.reservations[id]

	return reservation, found
}

// Insert stores a new reservation and assigns the generated id.
func (s *MemoryReservationStore) Insert(_ context.Context, _ storage.Querier, reservation *core.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation.ID = s.nextID
	s.nextID++
	s.reservations[reservation.ID] = *reservation

	return nil
}

// Delete removes a reservation. A missing row is not an error.
func (s *MemoryReservationStore) Delete(_ context.Context, _ storage.Querier, id core.ReservationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, hit := s.FailDeleteFor[id]; hit {
		return err
	}
	if s.FailDelete != nil {
		return s.FailDelete
	}

	delete(s.reservations, id)

	return nil
}

// DeleteForBook removes all reservations held against a book.
func (s *MemoryReservationStore) DeleteForBook(_ context.Context, _ storage.Querier, bookID core.BookID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, reservation := range s.reservations {
		if reservation.BookID == bookID {
			delete(s.reservations, id)
		}
	}

	return nil
}

// ListExpired returns the reservations whose hold window has elapsed by
// asOf, oldest first.
func (s *MemoryReservationStore) ListExpired(_ context.Context, _ storage.Querier, asOf time.Time) ([]core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []core.Reservation
	for _, reservation := range s.reservations {
		if reservation.ExpiredAt(asOf) {
			expired = append(expired, reservation)
		}
	}

	sortReservationsByCreation(expired)

	return expired, nil
}

// Len reports how many reservations the store holds.
func (s *MemoryReservationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.reservations)
}

func sortReservationsByCreation(reservations []core.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if reservations[i].DateCreated.Equal(reservations[j].DateCreated) {
			return reservations[i].ID < reservations[j].ID
		}

		return reservations[i].DateCreated.Before(reservations[j].DateCreated)
	})
}

// MemoryNotificationStore is an in-memory notification repository matching
// the signatures of the postgres implementation.
type MemoryNotificationStore struct {
	mu            sync.Mutex
	notifications map[core.NotificationID]core.Notification
	nextID        core.NotificationID

	// FailUpdate makes every Update fail with this error.
	FailUpdate error
}

// NewMemoryNotificationStore creates an empty MemoryNotificationStore.
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{notifications: make(map[core.NotificationID]core.Notification), nextID: 1}
}

// Put seeds a notification, assigning an id when it has none, and returns
// the stored value.
func (s *MemoryNotificationStore) Put(notification core.Notification) core.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	if notification.ID == 0 {
		notification.ID = s.nextID
		s.nextID++
	} else if notification.ID >= s.nextID {
		s.nextID = notification.ID + 1
	}

	s.notifications[notification.ID] = notification

	return notification
}

// Get fetches a stored notification for assertions.
func (s *MemoryNotificationStore) Get(id core.NotificationID) (core.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification, found := s.notifications[id]

	return notification, found
}

// Insert stores a new subscription and assigns the generated id.
func (s *MemoryNotificationStore) Insert(_ context.Context, _ storage.Querier, notification *core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification.ID = s.nextID
	s.nextID++
	s.notifications[notification.ID] = *notification

	return nil
}

// Update rewrites a stored subscription.
func (s *MemoryNotificationStore) Update(_ context.Context, _ storage.Querier, notification core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpdate != nil {
		return s.FailUpdate
	}

	if _, found := s.notifications[notification.ID]; found {
		s.notifications[notification.ID] = notification
	}

	return nil
}

// DeleteForBook removes all subscriptions for a book.
func (s *MemoryNotificationStore) DeleteForBook(_ context.Context, _ storage.Querier, bookID core.BookID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, notification := range s.notifications {
		if notification.BookID == bookID {
			delete(s.notifications, id)
		}
	}

	return nil
}

// ListActiveForBook returns the not-yet-notified subscriptions for a book,
// oldest first.
func (s *MemoryNotificationStore) ListActiveForBook(_ context.Context, _ storage.Querier, bookID core.BookID) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []core.Notification
	for _, notification := range s.notifications {
		if notification.BookID == bookID && !notification.IsNotified {
			active = append(active, notification)
		}
	}

	sortNotificationsByID(active)

	return active, nil
}

// IsDuplicate reports whether the customer already holds a pending
// subscription for the book.
func (s *MemoryNotificationStore) IsDuplicate(_ context.Context, _ storage.Querier, bookID core.BookID, customerID core.CustomerID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, notification := range s.notifications {
		if notification.BookID == bookID && notification.CustomerID == customerID && !notification.IsNotified {
			return true, nil
		}
	}

	return false, nil
}

// Len reports how many subscriptions the store holds.
func (s *MemoryNotificationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.notifications)
}

func sortNotificationsByID(notifications []core.Notification) {
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].ID < notifications[j].ID
	})
}

// MemoryCustomerDirectory resolves customer contacts from a seeded map.
type MemoryCustomerDirectory struct {
	mu        sync.Mutex
	customers map[core.CustomerID]core.Customer
}

// NewMemoryCustomerDirectory creates an empty MemoryCustomerDirectory.
func NewMemoryCustomerDirectory() *MemoryCustomerDirectory {
	return &MemoryCustomerDirectory{customers: make(map[core.CustomerID]core.Customer)}
}

// Put seeds a customer contact record.
func (d *MemoryCustomerDirectory) Put(customer core.Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.customers[customer.ID] = customer
}

// GetContact fetches the contact record for a customer.
func (d *MemoryCustomerDirectory) GetContact(_ context.Context, _ storage.Querier, id core.CustomerID) (core.Customer, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	customer, found := d.customers[id]

	return customer, found, nil
}
