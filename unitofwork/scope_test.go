package unitofwork_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/testutil"
	"github.com/librisys/loanservice/unitofwork"
)

func Test_Scope_Enqueue_And_DrainAll_PreserveOrder(t *testing.T) {
	// setup
	scope := unitofwork.NewScope(&testutil.FakeTx{})
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := core.BuildReservationCreated(1, occurredAt)
	second := core.BuildBookAvailable(2, occurredAt)
	third := core.BuildBookDeleted(3, "978-0134190440", "The Go Programming Language", occurredAt)

	// act
	scope.Enqueue(first, second)
	scope.Enqueue(third)
	drained := scope.DrainAll()

	// assert
	assert.Len(t, drained, 3)
	assert.Equal(t, first, drained[0])
	assert.Equal(t, second, drained[1])
	assert.Equal(t, third, drained[2])
	assert.Equal(t, 0, scope.Len())
}

func Test_Scope_Dequeue_ReturnsOldestFirst(t *testing.T) {
	// setup
	scope := unitofwork.NewScope(&testutil.FakeTx{})
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scope.Enqueue(core.BuildReservationCreated(10, occurredAt))
	scope.Enqueue(core.BuildBookAvailable(20, occurredAt))

	// act
	firstOut, firstOK := scope.Dequeue()
	secondOut, secondOK := scope.Dequeue()
	_, thirdOK := scope.Dequeue()

	// assert
	assert.True(t, firstOK)
	assert.Equal(t, core.ReservationCreatedEventType, firstOut.EventType())
	assert.True(t, secondOK)
	assert.Equal(t, core.BookAvailableEventType, secondOut.EventType())
	assert.False(t, thirdOK)
}

func Test_Scope_Dequeue_OnEmptyQueue_ReportsEmpty(t *testing.T) {
	// setup
	scope := unitofwork.NewScope(&testutil.FakeTx{})

	// act
	event, ok := scope.Dequeue()

	// assert
	assert.Nil(t, event)
	assert.False(t, ok)
	assert.Empty(t, scope.DrainAll())
}

func Test_Scope_Queue_IsStrictlyFIFO(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// setup
		scope := unitofwork.NewScope(&testutil.FakeTx{})
		occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		bookIDs := rapid.SliceOfN(rapid.Int64Range(1, 1_000_000), 0, 50).Draw(t, "bookIDs")

		for _, bookID := range bookIDs {
			scope.Enqueue(core.BuildReservationCreated(bookID, occurredAt))
		}

		// act
		var drained []core.DomainEvent
		for {
			event, ok := scope.Dequeue()
			if !ok {
				break
			}
			drained = append(drained, event)
		}

		// assert
		if len(drained) != len(bookIDs) {
			t.Fatalf("drained %d events, enqueued %d", len(drained), len(bookIDs))
		}
		for i, event := range drained {
			created, isCreated := event.(core.ReservationCreated)
			if !isCreated {
				t.Fatalf("unexpected event type %s at position %d", event.EventType(), i)
			}
			if created.BookID != bookIDs[i] {
				t.Fatalf("position %d: got book id %d, want %d", i, created.BookID, bookIDs[i])
			}
		}
	})
}
