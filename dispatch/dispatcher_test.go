package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/dispatch"
	"github.com/librisys/loanservice/shell"
	"github.com/librisys/loanservice/testutil"
)

type handlerRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *handlerRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, name)
}

func (r *handlerRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]string, len(r.calls))
	copy(copied, r.calls)

	return copied
}

func Test_Dispatcher_Publish_InvokesHandlers_InSubscriptionOrder(t *testing.T) {
	// setup
	recorder := &handlerRecorder{}
	dispatcher := dispatch.NewDispatcher(testutil.NewLoggerSpy())
	dispatcher.Subscribe(core.BookAvailableEventType, "first", func(_ context.Context, _ core.DomainEvent) error {
		recorder.record("first")
		return nil
	})
	dispatcher.Subscribe(core.BookAvailableEventType, "second", func(_ context.Context, _ core.DomainEvent) error {
		recorder.record("second")
		return nil
	})

	// act
	dispatcher.Publish(context.Background(), core.BuildBookAvailable(1, time.Now()))

	// assert
	assert.Equal(t, []string{"first", "second"}, recorder.recorded())
}

func Test_Dispatcher_Publish_RoutesByEventType(t *testing.T) {
	// setup
	recorder := &handlerRecorder{}
	dispatcher := dispatch.NewDispatcher(testutil.NewLoggerSpy())
	dispatcher.Subscribe(core.BookDeletedEventType, "on_deleted", func(_ context.Context, _ core.DomainEvent) error {
		recorder.record("on_deleted")
		return nil
	})

	// act
	dispatcher.Publish(context.Background(), core.BuildBookAvailable(1, time.Now()))

	// assert
	assert.Empty(t, recorder.recorded())
}

func Test_Dispatcher_FailingHandler_DoesNotStopTheFanOut(t *testing.T) {
	// setup
	recorder := &handlerRecorder{}
	logger := testutil.NewLoggerSpy()
	metrics := testutil.NewMetricsCollectorSpy()
	dispatcher := dispatch.NewDispatcher(logger, dispatch.WithMetrics(metrics))

	dispatcher.Subscribe(core.ReservationCreatedEventType, "failing", func(_ context.Context, _ core.DomainEvent) error {
		recorder.record("failing")
		return errors.New("handler broke")
	})
	dispatcher.Subscribe(core.ReservationCreatedEventType, "surviving", func(_ context.Context, _ core.DomainEvent) error {
		recorder.record("surviving")
		return nil
	})

	// act
	dispatcher.Publish(context.Background(), core.BuildReservationCreated(1, time.Now()))

	// assert
	assert.Equal(t, []string{"failing", "surviving"}, recorder.recorded())
	assert.Equal(t, 1, logger.CountLevel("WARN"))
	assert.Equal(t, 1, metrics.CounterTotal(shell.DispatchFailuresMetric))
}

func Test_Dispatcher_PanickingHandler_IsContained(t *testing.T) {
	// setup
	recorder := &handlerRecorder{}
	logger := testutil.NewLoggerSpy()
	dispatcher := dispatch.NewDispatcher(logger)

	dispatcher.Subscribe(core.ReservationCreatedEventType, "panicking", func(_ context.Context, _ core.DomainEvent) error {
		panic("handler panicked")
	})
	dispatcher.Subscribe(core.ReservationCreatedEventType, "surviving", func(_ context.Context, _ core.DomainEvent) error {
		recorder.record("surviving")
		return nil
	})

	// act
	require.NotPanics(t, func() {
		dispatcher.Publish(context.Background(), core.BuildReservationCreated(1, time.Now()))
	})

	// assert
	assert.Equal(t, []string{"surviving"}, recorder.recorded())
	assert.Equal(t, 1, logger.CountLevel("WARN"))
}

func Test_Dispatcher_Publish_WithoutSubscribers_IsANoOp(t *testing.T) {
	// setup
	logger := testutil.NewLoggerSpy()
	dispatcher := dispatch.NewDispatcher(logger)

	// act
	dispatcher.Publish(context.Background(), core.BuildBookDeleted(1, "978-0134190440", "The Go Programming Language", time.Now()))

	// assert
	assert.Equal(t, 0, logger.CountLevel("WARN"))
	assert.Equal(t, 1, logger.CountLevel("DEBUG"))
}
