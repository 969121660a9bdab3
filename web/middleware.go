package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/librisys/loanservice/shell"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

const (
	logMsgBeginTxFailed       = "failed to begin request transaction"
	logMsgPostCommitFailed    = "failed to commit request transaction after response"
	logMsgTxRollbackFailed    = "failed to roll back request transaction"
	logMsgDeferredDrainDone   = "drained deferred events after response"
	logMsgHandlerPanicked     = "request handler panicked"
	logAttrRemoteAddr         = "remote_addr"
	logAttrDrainedCount       = "drained_count"
	staleClientEvictionWindow = 3 * time.Minute
)

// EventualConsistency brackets every request in a database transaction and
// publishes the request's deferred events after the response went out.
//
// The protocol per request: begin a transaction, serve the request with a
// Scope in the context, flush the response to the client, drain the
// deferred queue strictly FIFO publishing each event sequentially, commit.
// Dispatch and commit failures at this point are logged as warnings and
// swallowed, because the caller already received a successful response.
// The transaction handle is released in a deferred guard regardless of
// outcome.
type EventualConsistency struct {
	db        storage.DB
	publisher unitofwork.Publisher
	logger    shell.Logger
	metrics   shell.MetricsCollector
	clock     func() time.Time
}

// EventualConsistencyOption defines a functional option for configuring
// the middleware.
type EventualConsistencyOption func(*EventualConsistency)

// WithMetrics sets the metrics collector recording drain outcomes.
func WithMetrics(metrics shell.MetricsCollector) EventualConsistencyOption {
	return func(m *EventualConsistency) {
		m.metrics = metrics
	}
}

// NewEventualConsistency creates the middleware.
func NewEventualConsistency(db storage.DB, publisher unitofwork.Publisher, logger shell.Logger, options ...EventualConsistencyOption) *EventualConsistency {
	middleware := &EventualConsistency{
		db:        db,
		publisher: publisher,
		logger:    logger,
		clock:     time.Now,
	}

	for _, option := range options {
		option(middleware)
	}

	return middleware
}

// Handler wraps the next handler in the consistency protocol.
func (m *EventualConsistency) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tx, beginErr := m.db.BeginTx(ctx)
		if beginErr != nil {
			m.logger.Error(logMsgBeginTxFailed, shell.LogAttrError, beginErr.Error())
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

			return
		}

		// Releases the handle on every path, including handler panics.
		// Rollback after a successful commit is a no-op. The release runs
		// detached from the request context so a closed client connection
		// cannot cancel it.
		defer func() {
			releaseCtx := context.WithoutCancel(ctx)
			if rollbackErr := tx.Rollback(releaseCtx); rollbackErr != nil {
				m.logger.Warn(logMsgTxRollbackFailed, shell.LogAttrError, rollbackErr.Error())
			}
		}()

		scope := unitofwork.NewScope(tx)
		next.ServeHTTP(w, r.WithContext(unitofwork.ContextWithScope(ctx, scope)))

		// Response-completion point: push the written bytes to the client
		// before any event is published, so publication never delays the
		// response.
		if flusher, canFlush := w.(http.Flusher); canFlush {
			flusher.Flush()
		}

		m.drainAndCommit(r, scope, tx)
	})
}

// drainAndCommit dequeues one event at a time so that events enqueued while
// a handler's own dispatch runs in the same request scope are drained too.
// net/http cancels the request context as soon as the client connection
// closes, which routinely happens right after the client read its response.
// The drain and the commit run past that point, so they get a context that
// keeps the request values but survives the cancellation; otherwise a
// disconnect would fail the commit and discard writes the caller was
// already told succeeded.
func (m *EventualConsistency) drainAndCommit(r *http.Request, scope *unitofwork.Scope, tx storage.Tx) {
	ctx := unitofwork.ContextWithScope(context.WithoutCancel(r.Context()), scope)
	started := m.clock()
	drained := 0

	for {
		event, ok := scope.Dequeue()
		if !ok {
			break
		}

		m.publisher.Publish(ctx, event)
		drained++
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		m.logger.Warn(logMsgPostCommitFailed,
			shell.LogAttrError, commitErr.Error(),
			logAttrDrainedCount, drained,
		)
	}

	if drained > 0 {
		m.logger.Debug(logMsgDeferredDrainDone, logAttrDrainedCount, drained)
	}

	if m.metrics != nil {
		m.metrics.RecordDuration(shell.DeferredDrainDurationMetric, m.clock().Sub(started), nil)
		m.metrics.RecordValue(shell.DeferredDrainEventsMetric, float64(drained), nil)
	}
}

// RecoverPanic converts a downstream panic into a clean 500 response
// instead of a silently dropped connection.
func RecoverPanic(logger shell.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Error(logMsgHandlerPanicked, shell.LogAttrError, toErrText(recovered))
					w.Header().Set("Connection", "close")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type rateLimitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a per-IP token bucket to the outer surface. Stale
// client entries are evicted on the fly so the map does not grow forever.
func RateLimit(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*rateLimitedClient)
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, splitErr := net.SplitHostPort(r.RemoteAddr)
			if splitErr != nil {
				ip = r.RemoteAddr
			}

			mu.Lock()
			entry, known := clients[ip]
			if !known {
				entry = &rateLimitedClient{limiter: rate.NewLimiter(rps, burst)}
				clients[ip] = entry
			}
			entry.lastSeen = time.Now()

			for addr, c := range clients {
				if time.Since(c.lastSeen) > staleClientEvictionWindow {
					delete(clients, addr)
				}
			}
			mu.Unlock()

			if !entry.limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
