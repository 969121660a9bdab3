package core

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// BookDeletedEventType is the event type identifier.
const BookDeletedEventType = "BookDeleted"

// BookDeleted is raised when a book is removed from the library. It keeps the
// ISBN and title so that reaction handlers can still address subscribers after
// the row is gone.
type BookDeleted struct {
	BookID     BookID     `json:"bookId"`
	ISBN       ISBN       `json:"isbn"`
	Title      string     `json:"title"`
	OccurredAt OccurredAt `json:"occurredAt"`
}

// BuildBookDeleted creates a new BookDeleted event.
func BuildBookDeleted(bookID BookID, isbn ISBN, title string, occurredAt time.Time) BookDeleted {
	return BookDeleted{
		BookID:     bookID,
		ISBN:       isbn,
		Title:      title,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookDeleted) EventType() string {
	return BookDeletedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookDeleted) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// PayloadToJSON serializes the event payload.
func (e BookDeleted) PayloadToJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(e)
}
