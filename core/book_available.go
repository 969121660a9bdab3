package core

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// BookAvailableEventType is the event type identifier.
const BookAvailableEventType = "BookAvailable"

// BookAvailable is raised when a book transitions back into the available
// state, so waiting customers can be notified.
type BookAvailable struct {
	BookID     BookID     `json:"bookId"`
	OccurredAt OccurredAt `json:"occurredAt"`
}

// BuildBookAvailable creates a new BookAvailable event.
func BuildBookAvailable(bookID BookID, occurredAt time.Time) BookAvailable {
	return BookAvailable{
		BookID:     bookID,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookAvailable) EventType() string {
	return BookAvailableEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookAvailable) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// PayloadToJSON serializes the event payload.
func (e BookAvailable) PayloadToJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(e)
}
