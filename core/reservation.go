package core

import (
	"time"
)

// Reservation is a hold a customer placed on a book. A reservation keeps the
// book for ReservationHoldWindow after creation and is reconciled away by the
// expiry scheduler once that window has elapsed.
type Reservation struct {
	EntityMeta
	BookID     BookID
	CustomerID CustomerID
}

// ExpiredAt reports whether the hold window has elapsed at the given instant.
// A reservation without a creation timestamp is never considered expired.
func (r Reservation) ExpiredAt(now time.Time) bool {
	if r.DateCreated.IsZero() {
		return false
	}

	return !now.Before(r.DateCreated.Add(ReservationHoldWindow))
}
