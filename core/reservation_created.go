package core

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ReservationCreatedEventType is the event type identifier.
const ReservationCreatedEventType = "ReservationCreated"

// ReservationCreated is raised when a customer places a hold on a book.
type ReservationCreated struct {
	BookID     BookID     `json:"bookId"`
	OccurredAt OccurredAt `json:"occurredAt"`
}

// BuildReservationCreated creates a new ReservationCreated event.
func BuildReservationCreated(bookID BookID, occurredAt time.Time) ReservationCreated {
	return ReservationCreated{
		BookID:     bookID,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e ReservationCreated) EventType() string {
	return ReservationCreatedEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReservationCreated) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// PayloadToJSON serializes the event payload.
func (e ReservationCreated) PayloadToJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(e)
}
