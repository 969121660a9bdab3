package bookdeleted_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/features/reaction/bookdeleted"
	"github.com/librisys/loanservice/testutil"
)

type handlerFixture struct {
	reservations  *testutil.MemoryReservationStore
	notifications *testutil.MemoryNotificationStore
	customers     *testutil.MemoryCustomerDirectory
	sender        *testutil.FakeMessageSender
	logger        *testutil.LoggerSpy
	handler       *bookdeleted.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	fixture := &handlerFixture{
		reservations:  testutil.NewMemoryReservationStore(),
		notifications: testutil.NewMemoryNotificationStore(),
		customers:     testutil.NewMemoryCustomerDirectory(),
		sender:        testutil.NewFakeMessageSender(),
		logger:        testutil.NewLoggerSpy(),
	}
	fixture.handler = bookdeleted.NewHandler(
		fixture.reservations,
		fixture.notifications,
		fixture.customers,
		fixture.sender,
		testutil.NewFakeDB(),
		fixture.logger,
	)

	return fixture
}

func buildDeletedEvent(bookID core.BookID) core.BookDeleted {
	return core.BuildBookDeleted(
		bookID, "978-0134190440", "Doomed Book", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	)
}

func Test_Handler_Handle_CleansUpReservationsAndSubscriptions(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	const bookID = core.BookID(1)

	subscriber := core.Customer{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	fixture.customers.Put(subscriber)
	fixture.reservations.Put(core.Reservation{BookID: bookID, CustomerID: uuid.New()})
	fixture.notifications.Put(core.Notification{BookID: bookID, CustomerID: subscriber.ID})

	// act
	err := fixture.handler.Handle(context.Background(), buildDeletedEvent(bookID))

	// assert
	require.NoError(t, err)
	assert.Zero(t, fixture.reservations.Len(), "Reservations for the book should be gone")
	assert.Zero(t, fixture.notifications.Len(), "Subscriptions for the book should be gone")

	sent := fixture.sender.Sent()
	require.Len(t, sent, 1, "The subscriber should get a courtesy mail")
	assert.Equal(t, "ada@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Doomed Book")
}

func Test_Handler_Handle_LeavesOtherBooksAlone(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	fixture.reservations.Put(core.Reservation{BookID: 1, CustomerID: uuid.New()})
	fixture.reservations.Put(core.Reservation{BookID: 2, CustomerID: uuid.New()})
	fixture.notifications.Put(core.Notification{BookID: 2, CustomerID: uuid.New()})

	// act
	err := fixture.handler.Handle(context.Background(), buildDeletedEvent(1))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.reservations.Len(), "Holds on other books must survive")
	assert.Equal(t, 1, fixture.notifications.Len(), "Subscriptions on other books must survive")
}

func Test_Handler_Handle_SkipsDeliveredSubscriptions(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	subscriber := core.Customer{ID: uuid.New(), Email: "done@example.com"}
	fixture.customers.Put(subscriber)
	fixture.notifications.Put(core.Notification{BookID: 1, CustomerID: subscriber.ID, IsNotified: true})

	// act
	err := fixture.handler.Handle(context.Background(), buildDeletedEvent(1))

	// assert
	require.NoError(t, err)
	assert.Empty(t, fixture.sender.Sent(), "Delivered subscriptions get no courtesy mail")
	assert.Zero(t, fixture.notifications.Len(), "The stale row is still removed")
}

func Test_Handler_Handle_When_SendingTheCourtesyMailFails(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	subscriber := core.Customer{ID: uuid.New(), Email: "down@example.com"}
	fixture.customers.Put(subscriber)
	fixture.sender.FailFor = map[string]error{"down@example.com": errors.New("relay unreachable")}
	fixture.notifications.Put(core.Notification{BookID: 1, CustomerID: subscriber.ID})

	// act
	err := fixture.handler.Handle(context.Background(), buildDeletedEvent(1))

	// assert: mail is best-effort, the cleanup still completes
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.logger.CountLevel("WARN"), "The failed send should be logged")
	assert.Zero(t, fixture.notifications.Len(), "Cleanup must not depend on mail delivery")
}

func Test_Handler_Handle_When_SubscriberHasNoContactRecord(t *testing.T) {
	// setup: subscription references a customer the directory does not know
	fixture := newHandlerFixture(t)
	fixture.notifications.Put(core.Notification{BookID: 1, CustomerID: uuid.New()})

	// act
	err := fixture.handler.Handle(context.Background(), buildDeletedEvent(1))

	// assert
	require.NoError(t, err)
	assert.Empty(t, fixture.sender.Sent())
	assert.Zero(t, fixture.notifications.Len(), "The orphaned subscription is still removed")
}

func Test_Handler_Handle_IgnoresOtherEventTypes(t *testing.T) {
	// setup
	fixture := newHandlerFixture(t)
	fixture.reservations.Put(core.Reservation{BookID: 1, CustomerID: uuid.New()})

	// act
	err := fixture.handler.Handle(
		context.Background(), core.BuildBookAvailable(1, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.reservations.Len(), "Foreign event types must not trigger cleanup")
}
