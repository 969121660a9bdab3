package core

import (
	"time"
)

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

// DomainEvent represents a business fact that other parts of the system may
// react to. Events are immutable once constructed and carry only the minimal
// identifiers a handler needs to re-fetch current state - never a snapshot of
// mutable data.
type DomainEvent interface {
	// EventType returns the string identifier for this event type.
	EventType() string

	// HasOccurredAt returns when this event occurred.
	HasOccurredAt() time.Time

	// PayloadToJSON serializes the event payload, used for logging and
	// observability at the dispatch boundary.
	PayloadToJSON() ([]byte, error)
}
