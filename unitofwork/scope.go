package unitofwork

import (
	"sync"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
)

// Scope is the request-scoped coordination point of the event pipeline: it
// carries the open transaction the whole request runs in and the deferred
// queue of events awaiting post-response delivery.
//
// A Scope belongs to exactly one request and is never shared across
// requests or with the expiry scheduler. The queue is allocated lazily on
// the first Enqueue, so requests that raise no events pay nothing.
type Scope struct {
	mu    sync.Mutex
	tx    storage.Tx
	queue []core.DomainEvent
}

// NewScope creates a Scope around the request's open transaction.
func NewScope(tx storage.Tx) *Scope {
	return &Scope{tx: tx}
}

// Tx returns the transaction the request runs in.
func (s *Scope) Tx() storage.Tx {
	return s.tx
}

// Enqueue appends events to the deferred queue in raise order.
func (s *Scope) Enqueue(events ...core.DomainEvent) {
	if len(events) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue == nil {
		s.queue = make([]core.DomainEvent, 0, len(events))
	}

	s.queue = append(s.queue, events...)
}

// Dequeue removes and returns the oldest deferred event. The second return
// value is false when the queue is empty.
func (s *Scope) Dequeue() (core.DomainEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, false
	}

	event := s.queue[0]
	s.queue = s.queue[1:]

	return event, true
}

// DrainAll removes and returns all deferred events in enqueue order.
func (s *Scope) DrainAll() core.DomainEvents {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := core.DomainEvents(s.queue)
	s.queue = nil

	return drained
}

// Len reports how many events are waiting in the deferred queue.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue)
}
