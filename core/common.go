package core

import (
	"time"

	"github.com/google/uuid"
)

// Using alias types instead of full value objects keeps the entities plain
// while the signatures stay readable.

// BookID identifies a book row.
type BookID = int64

// ReservationID identifies a reservation row.
type ReservationID = int64

// NotificationID identifies a notification subscription row.
type NotificationID = int64

// CustomerID identifies a customer in the identity store.
type CustomerID = uuid.UUID

// ISBN is the international standard book number in its printed form.
type ISBN = string

// OccurredAt represents when a domain event occurred.
type OccurredAt = time.Time

// ReservationHoldWindow is how long a reservation holds a book before it
// expires. Expiry is always computed against this window, never stored.
const ReservationHoldWindow = 24 * time.Hour

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision.
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}

// ParseCustomerID parses a customer id from its string form.
func ParseCustomerID(value string) (CustomerID, error) {
	return uuid.Parse(value)
}
