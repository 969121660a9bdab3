package deletebook_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/features/command/deletebook"
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

func newHandlerForTest(t *testing.T, books *testutil.MemoryBookStore, publisher *recordingPublisher) deletebook.CommandHandler {
	t.Helper()

	db := testutil.NewFakeDB()
	clock := testutil.NewFixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	committer, err := unitofwork.NewCommitter(db, publisher, testutil.NewLoggerSpy(), unitofwork.WithClock(clock.Now))
	require.NoError(t, err)

	return deletebook.NewCommandHandler(books, committer, db)
}

func Test_CommandHandler_Handle_RemovesBookAndRaisesBookDeleted(t *testing.T) {
	// setup
	books := testutil.NewMemoryBookStore()
	publisher := &recordingPublisher{}
	book := books.Put(core.Book{Title: "Doomed Book", ISBN: "978-0134190440"})
	handler := newHandlerForTest(t, books, publisher)

	// act
	err := handler.Handle(context.Background(), nil, deletebook.BuildCommand(book.ID))

	// assert
	require.NoError(t, err)

	_, found, getErr := books.GetByID(context.Background(), nil, book.ID)
	require.NoError(t, getErr)
	assert.False(t, found, "The book row should be gone")

	published := publisher.events()
	require.Len(t, published, 1)

	deleted, isMatch := published[0].(core.BookDeleted)
	require.True(t, isMatch, "The raised event should be BookDeleted")
	assert.Equal(t, book.ID, deleted.BookID)
	assert.Equal(t, book.ISBN, deleted.ISBN, "The event carries the ISBN because the row is gone")
	assert.Equal(t, book.Title, deleted.Title, "The event carries the title because the row is gone")
}

func Test_CommandHandler_Handle_When_BookDoesNotExist(t *testing.T) {
	// setup
	books := testutil.NewMemoryBookStore()
	publisher := &recordingPublisher{}
	handler := newHandlerForTest(t, books, publisher)

	// act
	err := handler.Handle(context.Background(), nil, deletebook.BuildCommand(999))

	// assert
	require.ErrorIs(t, err, core.ErrBookNotFound)
	assert.Empty(t, publisher.events(), "A failed delete raises nothing")
}
