package updatebook_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/features/command/updatebook"
	"github.com/librisys/loanservice/testutil"
	"github.com/librisys/loanservice/unitofwork"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []core.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event core.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.published = append(p.published, event)
}

func (p *recordingPublisher) events() []core.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := make([]core.DomainEvent, len(p.published))
	copy(copied, p.published)

	return copied
}

type handlerFixture struct {
	books     *testutil.MemoryBookStore
	publisher *recordingPublisher
	clock     *testutil.FixedClock
	handler   updatebook.CommandHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	db := testutil.NewFakeDB()
	books := testutil.NewMemoryBookStore()
	publisher := &recordingPublisher{}
	clock := testutil.NewFixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	committer, err := unitofwork.NewCommitter(db, publisher, testutil.NewLoggerSpy(), unitofwork.WithClock(clock.Now))
	require.NoError(t, err)

	return &handlerFixture{
		books:     books,
		publisher: publisher,
		clock:     clock,
		handler:   updatebook.NewCommandHandler(books, committer, db),
	}
}

func Test_CommandHandler_Handle_RewritesFieldsAndStampsDateModified(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	created := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	book := fixture.books.Put(core.Book{
		EntityMeta: core.EntityMeta{DateCreated: created, DateModified: created},
		Title:      "Old Title",
		ISBN:       "978-0134190440",
		IsReserved: true,
	})
	command := updatebook.BuildCommand(book.ID, "New Title", "978-0134190440", true, false, nil)

	// act
	updated, err := fixture.handler.Handle(context.Background(), nil, command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, created, updated.DateCreated, "DateCreated must survive updates")
	assert.Equal(t, fixture.clock.Now(), updated.DateModified, "DateModified should be stamped by the committer")

	stored, found, err := fixture.books.GetByID(context.Background(), nil, book.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, updated, stored)
}

func Test_CommandHandler_Handle_RaisesBookAvailable_When_UpdateFreesTheBook(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	book := fixture.books.Put(core.Book{Title: "Held Book", ISBN: "978-0134190440", IsReserved: true})
	command := updatebook.BuildCommand(book.ID, "Held Book", "978-0134190440", false, false, nil)

	// act
	_, err := fixture.handler.Handle(context.Background(), nil, command)

	// assert
	require.NoError(t, err)

	published := fixture.publisher.events()
	require.Len(t, published, 1, "Freeing the book should raise exactly one event")

	available, isMatch := published[0].(core.BookAvailable)
	require.True(t, isMatch, "The raised event should be BookAvailable")
	assert.Equal(t, book.ID, available.BookID)
}

func Test_CommandHandler_Handle_RaisesNoEvent_When_BookStaysUnavailable(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	book := fixture.books.Put(core.Book{Title: "Borrowed Book", ISBN: "978-0134190440", IsBorrowed: true})
	returnDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	command := updatebook.BuildCommand(book.ID, "Borrowed Book", "978-0134190440", false, true, &returnDate)

	// act
	_, err := fixture.handler.Handle(context.Background(), nil, command)

	// assert
	require.NoError(t, err)
	assert.Empty(t, fixture.publisher.events(), "A still-borrowed book should raise nothing")
}

func Test_CommandHandler_Handle_When_BookDoesNotExist(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	command := updatebook.BuildCommand(999, "Ghost", "978-0134190440", false, false, nil)

	// act
	_, err := fixture.handler.Handle(context.Background(), nil, command)

	// assert
	require.ErrorIs(t, err, core.ErrBookNotFound)
}

func Test_CommandHandler_Handle_WithScope_DefersTheEventIntoTheScopeQueue(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	book := fixture.books.Put(core.Book{Title: "Held Book", ISBN: "978-0134190440", IsReserved: true})

	db := testutil.NewFakeDB()
	tx, err := db.BeginTx(context.Background())
	require.NoError(t, err)
	scope := unitofwork.NewScope(tx)
	ctx := unitofwork.ContextWithScope(context.Background(), scope)

	command := updatebook.BuildCommand(book.ID, "Held Book", "978-0134190440", false, false, nil)

	// act
	_, err = fixture.handler.Handle(ctx, scope, command)

	// assert
	require.NoError(t, err)
	assert.Empty(t, fixture.publisher.events(), "Deferred events must not be dispatched during the request")
	assert.Equal(t, 1, scope.Len(), "BookAvailable should wait in the scope queue")
}
