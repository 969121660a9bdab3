package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/shell"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/testutil"
	"github.com/librisys/loanservice/unitofwork"
	"github.com/librisys/loanservice/web"
)

type orderedPublisher struct {
	mu        sync.Mutex
	published []core.DomainEvent
	onPublish func(ctx context.Context, event core.DomainEvent)
}

func (p *orderedPublisher) Publish(ctx context.Context, event core.DomainEvent) {
	p.mu.Lock()
	p.published = append(p.published, event)
	callback := p.onPublish
	p.mu.Unlock()

	if callback != nil {
		callback(ctx, event)
	}
}

func (p *orderedPublisher) events() []core.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := make([]core.DomainEvent, len(p.published))
	copy(copied, p.published)

	return copied
}

func Test_EventualConsistency_PublishesDeferredEvents_AfterResponse_InFIFOOrder(t *testing.T) {
	// setup
	db := testutil.NewFakeDB()
	publisher := &orderedPublisher{}
	logger := testutil.NewLoggerSpy()
	middleware := web.NewEventualConsistency(db, publisher, logger)

	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var publishedBeforeResponse int

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := unitofwork.ScopeFromContext(r.Context())
		require.NotNil(t, scope, "the middleware must put a scope into the request context")

		scope.Enqueue(core.BuildReservationCreated(1, occurredAt))
		scope.Enqueue(core.BuildBookAvailable(2, occurredAt))

		publishedBeforeResponse = len(publisher.events())
		w.WriteHeader(http.StatusCreated)
	})

	recorder := httptest.NewRecorder()

	// act
	middleware.Handler(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/books", nil))

	// assert
	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, 0, publishedBeforeResponse, "no event may dispatch before the response is produced")

	published := publisher.events()
	require.Len(t, published, 2)
	assert.Equal(t, core.ReservationCreatedEventType, published[0].EventType())
	assert.Equal(t, core.BookAvailableEventType, published[1].EventType())

	require.Len(t, db.OpenedTxs(), 1)
	assert.True(t, db.OpenedTxs()[0].Committed())
}

func Test_EventualConsistency_DrainsEventsEnqueuedDuringDispatch(t *testing.T) {
	// setup
	db := testutil.NewFakeDB()
	logger := testutil.NewLoggerSpy()
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	publisher := &orderedPublisher{}
	publisher.onPublish = func(ctx context.Context, event core.DomainEvent) {
		// A handler raising a follow-up event in the same request scope.
		if event.EventType() == core.ReservationCreatedEventType {
			unitofwork.ScopeFromContext(ctx).Enqueue(core.BuildBookAvailable(9, occurredAt))
		}
	}

	middleware := web.NewEventualConsistency(db, publisher, logger)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unitofwork.ScopeFromContext(r.Context()).Enqueue(core.BuildReservationCreated(1, occurredAt))
		w.WriteHeader(http.StatusOK)
	})

	// act
	middleware.Handler(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/reservations", nil))

	// assert
	published := publisher.events()
	require.Len(t, published, 2, "events enqueued during the drain must be drained too")
	assert.Equal(t, core.ReservationCreatedEventType, published[0].EventType())
	assert.Equal(t, core.BookAvailableEventType, published[1].EventType())
}

func Test_EventualConsistency_CommitFailureAfterResponse_IsSwallowed(t *testing.T) {
	// setup
	db := testutil.NewFakeDB()
	db.FailCommit = errors.New("connection lost")
	logger := testutil.NewLoggerSpy()
	middleware := web.NewEventualConsistency(db, noopPublisher(), logger)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()

	// act
	middleware.Handler(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/books", nil))

	// assert
	assert.Equal(t, http.StatusOK, recorder.Code, "the caller must never see a post-response failure")
	assert.Equal(t, 1, logger.CountLevel("WARN"))
	require.Len(t, db.OpenedTxs(), 1)
	assert.True(t, db.OpenedTxs()[0].RolledBack(), "the deferred guard must release the failed transaction")
}

func Test_EventualConsistency_BeginTxFailure_FailsTheRequest(t *testing.T) {
	// setup
	db := testutil.NewFakeDB()
	db.FailBeginTx = errors.New("pool exhausted")
	logger := testutil.NewLoggerSpy()
	middleware := web.NewEventualConsistency(db, noopPublisher(), logger)

	handlerRan := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		handlerRan = true
	})

	recorder := httptest.NewRecorder()

	// act
	middleware.Handler(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/books", nil))

	// assert
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.False(t, handlerRan)
}

func Test_EventualConsistency_RecordsDrainMetrics(t *testing.T) {
	// setup
	db := testutil.NewFakeDB()
	logger := testutil.NewLoggerSpy()
	metrics := testutil.NewMetricsCollectorSpy()
	middleware := web.NewEventualConsistency(db, noopPublisher(), logger, web.WithMetrics(metrics))

	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unitofwork.ScopeFromContext(r.Context()).Enqueue(core.BuildBookAvailable(1, occurredAt))
		w.WriteHeader(http.StatusOK)
	})

	// act
	middleware.Handler(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/books", nil))

	// assert
	durations := metrics.DurationRecords()
	require.Len(t, durations, 1)
	assert.Equal(t, shell.DeferredDrainDurationMetric, durations[0].Metric)

	values := metrics.ValueRecords()
	require.Len(t, values, 1)
	assert.Equal(t, float64(1), values[0].Value)
}

func Test_RateLimit_RejectsExcessRequests(t *testing.T) {
	// setup
	limited := web.RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/books", nil)
	request.RemoteAddr = "203.0.113.5:4711"

	// act
	first := httptest.NewRecorder()
	limited.ServeHTTP(first, request)
	second := httptest.NewRecorder()
	limited.ServeHTTP(second, request)

	// assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func Test_RecoverPanic_Returns500(t *testing.T) {
	// setup
	logger := testutil.NewLoggerSpy()
	guarded := web.RecoverPanic(logger)(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()

	// act
	guarded.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/books", nil))

	// assert
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, 1, logger.CountLevel("ERROR"))
}

func noopPublisher() *orderedPublisher {
	return &orderedPublisher{}
}

// commitContextTx records the context state it sees at commit time.
type commitContextTx struct {
	committed    bool
	commitCtxErr error
}

func (t *commitContextTx) Query(_ context.Context, _ string) (storage.Rows, error) {
	return nil, nil
}

func (t *commitContextTx) Exec(_ context.Context, _ string) (storage.Result, error) {
	return nil, nil
}

func (t *commitContextTx) Commit(ctx context.Context) error {
	t.committed = true
	t.commitCtxErr = ctx.Err()

	return nil
}

func (t *commitContextTx) Rollback(_ context.Context) error {
	return nil
}

type commitContextDB struct {
	tx *commitContextTx
}

func (db *commitContextDB) Query(_ context.Context, _ string) (storage.Rows, error) {
	return nil, nil
}

func (db *commitContextDB) Exec(_ context.Context, _ string) (storage.Result, error) {
	return nil, nil
}

func (db *commitContextDB) BeginTx(_ context.Context) (storage.Tx, error) {
	return db.tx, nil
}

func Test_EventualConsistency_DrainAndCommit_SurviveClientDisconnect(t *testing.T) {
	// setup: the client connection closes right after the response went
	// out, which cancels the request context before the deferred phase
	tx := &commitContextTx{}
	db := &commitContextDB{tx: tx}
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	publisher := &orderedPublisher{}
	var publishCtxErr error
	publisher.onPublish = func(ctx context.Context, _ core.DomainEvent) {
		publishCtxErr = ctx.Err()
	}

	middleware := web.NewEventualConsistency(db, publisher, testutil.NewLoggerSpy())

	requestCtx, closeConnection := context.WithCancel(context.Background())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unitofwork.ScopeFromContext(r.Context()).Enqueue(core.BuildBookAvailable(1, occurredAt))
		w.WriteHeader(http.StatusCreated)
		closeConnection()
	})

	request := httptest.NewRequest(http.MethodPost, "/books", nil).WithContext(requestCtx)

	// act
	middleware.Handler(next).ServeHTTP(httptest.NewRecorder(), request)

	// assert
	require.Error(t, requestCtx.Err(), "the request context must be canceled before the deferred phase")
	assert.NoError(t, publishCtxErr, "dispatch must not run on the canceled request context")
	assert.True(t, tx.committed, "the request transaction must still commit")
	assert.NoError(t, tx.commitCtxErr, "the commit must not run on the canceled request context")

	require.Len(t, publisher.events(), 1, "the deferred event must still be drained")
}
