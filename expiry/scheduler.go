package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/shell"
	"github.com/librisys/loanservice/storage"
	"github.com/librisys/loanservice/unitofwork"
)

// DefaultInterval is the pause between two sweeps unless configured
// otherwise.
const DefaultInterval = time.Hour

// ErrNonPositiveInterval occurs when WithInterval is given a zero or
// negative duration.
var ErrNonPositiveInterval = errors.New("sweep interval must be positive")

// ErrNilSchedulerClock occurs when WithClock is given a nil clock function.
var ErrNilSchedulerClock = errors.New("clock function must not be nil")

const (
	logMsgAcquireDepsFailed     = "failed to acquire sweep dependencies"
	logMsgListExpiredFailed     = "failed to list expired reservations"
	logMsgReleaseFailed         = "failed to release book of expired reservation"
	logMsgNotifyFailed          = "failed to notify subscriber of released book"
	logMsgDeleteFailed          = "failed to delete expired reservation"
	logMsgSweepFinished         = "expiry sweep finished"
	logMsgSchedulerStopped      = "expiry scheduler stopped"
	logAttrExpiredCount         = "expired_count"
	logAttrReconciledCount      = "reconciled_count"
	logAttrFailedCount          = "failed_count"
)

// Scheduler is the long-running reconciliation loop for expired
// reservations. Once per interval it lists the reservations whose hold
// window has elapsed and, for each one independently, releases the book,
// notifies the remaining waiting subscribers, and deletes the reservation.
//
// A failure in one reservation's steps is logged with the reservation id
// and never stops the rest of the sweep. Cancellation interrupts the
// inter-sweep sleep immediately and is checked before each new sweep; an
// in-flight reservation is allowed to finish its steps.
type Scheduler struct {
	acquire  DepsFactory
	interval time.Duration
	logger   shell.Logger
	metrics  shell.MetricsCollector
	clock    func() time.Time
}

// SchedulerOption defines a functional option for configuring a Scheduler.
type SchedulerOption func(*Scheduler) error

// WithInterval sets the pause between two sweeps. Defaults to one hour.
func WithInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) error {
		if interval <= 0 {
			return ErrNonPositiveInterval
		}

		s.interval = interval

		return nil
	}
}

// WithClock sets the time source the expiry cutoff is computed from.
// Defaults to time.Now.
func WithClock(clock func() time.Time) SchedulerOption {
	return func(s *Scheduler) error {
		if clock == nil {
			return ErrNilSchedulerClock
		}

		s.clock = clock

		return nil
	}
}

// WithMetrics sets the metrics collector recording sweep outcomes.
func WithMetrics(metrics shell.MetricsCollector) SchedulerOption {
	return func(s *Scheduler) error {
		s.metrics = metrics
		return nil
	}
}

// NewScheduler creates a Scheduler acquiring its dependencies through the
// given factory.
func NewScheduler(acquire DepsFactory, logger shell.Logger, options ...SchedulerOption) (*Scheduler, error) {
	scheduler := &Scheduler{
		acquire:  acquire,
		interval: DefaultInterval,
		logger:   logger,
		clock:    time.Now,
	}

	for _, option := range options {
		if err := option(scheduler); err != nil {
			return nil, err
		}
	}

	return scheduler, nil
}

// Run executes sweeps until the context is canceled. The first sweep starts
// immediately; cancellation during the inter-sweep sleep returns promptly.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			s.logger.Info(logMsgSchedulerStopped)
			return
		}

		s.Sweep(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info(logMsgSchedulerStopped)
			return
		case <-ticker.C:
		}
	}
}

// Sweep performs one full reconciliation pass. It is exported so that
// operational tooling can trigger an out-of-schedule pass.
func (s *Scheduler) Sweep(ctx context.Context) {
	started := s.clock()

	deps, err := s.acquire(ctx)
	if err != nil {
		s.logger.Error(logMsgAcquireDepsFailed, shell.LogAttrError, err.Error())
		return
	}

	if deps.Release != nil {
		defer deps.Release()
	}

	asOf := core.ToOccurredAt(s.clock())

	expired, listErr := deps.Reservations.ListExpired(ctx, deps.Querier, asOf)
	if listErr != nil {
		s.logger.Error(logMsgListExpiredFailed, shell.LogAttrError, listErr.Error())
		return
	}

	reconciled := 0
	failed := 0

	// Cancellation stops the scheduler before the next sweep, never inside
	// a reservation that is already being reconciled; the steps of the
	// current reservation always run to completion.
	stepCtx := context.WithoutCancel(ctx)

	for _, reservation := range expired {
		if s.reconcile(stepCtx, deps, reservation, asOf) {
			reconciled++
		} else {
			failed++
			s.recordFailure()
		}
	}

	s.recordSweep(s.clock().Sub(started), reconciled)
	s.logger.Info(logMsgSweepFinished,
		logAttrExpiredCount, len(expired),
		logAttrReconciledCount, reconciled,
		logAttrFailedCount, failed,
	)
}

// reconcile runs the three reconciliation steps for one expired
// reservation. Each step is guarded on its own, matching the per-item
// isolation contract. It reports whether all steps went through cleanly.
func (s *Scheduler) reconcile(ctx context.Context, deps SweepDeps, reservation core.Reservation, asOf time.Time) bool {
	clean := true

	if err := s.releaseBook(ctx, deps, reservation.BookID, asOf); err != nil {
		s.logger.Warn(logMsgReleaseFailed,
			shell.LogAttrReservationID, reservation.ID,
			shell.LogAttrBookID, reservation.BookID,
			shell.LogAttrError, err.Error(),
		)
		clean = false
	}

	if err := s.notifySubscribers(ctx, deps, reservation.BookID, asOf); err != nil {
		s.logger.Warn(logMsgNotifyFailed,
			shell.LogAttrReservationID, reservation.ID,
			shell.LogAttrBookID, reservation.BookID,
			shell.LogAttrError, err.Error(),
		)
		clean = false
	}

	if err := deps.Reservations.Delete(ctx, deps.Querier, reservation.ID); err != nil {
		s.logger.Warn(logMsgDeleteFailed,
			shell.LogAttrReservationID, reservation.ID,
			shell.LogAttrBookID, reservation.BookID,
			shell.LogAttrError, err.Error(),
		)
		clean = false
	}

	return clean
}

// releaseBook clears the hold on the reserved book through the committer,
// so a release that makes the book available raises BookAvailable and
// dispatches it right after the commit. A book that no longer exists counts
// as already resolved by another path.
func (s *Scheduler) releaseBook(ctx context.Context, deps SweepDeps, bookID core.BookID, asOf time.Time) error {
	book, found, err := deps.Books.GetByID(ctx, deps.Querier, bookID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	released, events := core.ReleaseExpiredHold(book, asOf)

	unit := unitofwork.New()
	unit.StageUpdate(&released.EntityMeta, func(writeCtx context.Context, writeQ storage.Querier) error {
		return deps.Books.Update(writeCtx, writeQ, released)
	})
	unit.Raise(events...)

	return deps.Committer.Commit(ctx, nil, unit)
}

// notifySubscribers covers the waiting subscribers the dispatched
// BookAvailable reaction did not already mark notified, so each subscriber
// gets at most one message per sweep. One subscriber's failure never blocks
// the others.
func (s *Scheduler) notifySubscribers(ctx context.Context, deps SweepDeps, bookID core.BookID, asOf time.Time) error {
	subscriptions, err := deps.Notifications.ListActiveForBook(ctx, deps.Querier, bookID)
	if err != nil {
		return err
	}

	for _, subscription := range subscriptions {
		// Guards against the book vanishing between sends.
		book, found, fetchErr := deps.Books.GetByID(ctx, deps.Querier, bookID)
		if fetchErr != nil {
			return fetchErr
		}
		if !found {
			return nil
		}

		s.notifyOne(ctx, deps, subscription, book, asOf)
	}

	return nil
}

func (s *Scheduler) notifyOne(ctx context.Context, deps SweepDeps, subscription core.Notification, book core.Book, asOf time.Time) {
	contact, found, err := deps.Customers.GetContact(ctx, deps.Querier, subscription.CustomerID)
	if err != nil {
		s.logger.Warn(logMsgNotifyFailed,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, book.ID,
			shell.LogAttrError, err.Error(),
		)

		return
	}
	if !found {
		return
	}

	subject := fmt.Sprintf("Book available: %s", book.Title)
	body := fmt.Sprintf(
		"Hello %s %s,\n\nthe book %q (ISBN %s) is available again. Reserve it now before someone else does.\n",
		contact.FirstName, contact.LastName, book.Title, book.ISBN,
	)

	sent, sendErr := deps.Sender.SendMessage(ctx, contact.Email, subject, body)
	if sendErr != nil || !sent {
		s.logger.Warn(logMsgNotifyFailed,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, book.ID,
			shell.LogAttrError, sendFailureText(sendErr),
		)

		return
	}

	notified := core.MarkNotified(subscription)
	notified.DateModified = asOf

	if updateErr := deps.Notifications.Update(ctx, deps.Querier, notified); updateErr != nil {
		s.logger.Warn(logMsgNotifyFailed,
			shell.LogAttrCustomerID, subscription.CustomerID.String(),
			shell.LogAttrBookID, book.ID,
			shell.LogAttrError, updateErr.Error(),
		)
	}
}

func (s *Scheduler) recordSweep(elapsed time.Duration, reconciled int) {
	if s.metrics == nil {
		return
	}

	s.metrics.RecordDuration(shell.ExpirySweepDurationMetric, elapsed, nil)
	s.metrics.RecordValue(shell.ExpiryReservationsReconciledMetric, float64(reconciled), nil)
}

func (s *Scheduler) recordFailure() {
	if s.metrics == nil {
		return
	}

	s.metrics.IncrementCounter(shell.ExpiryReservationFailuresMetric, nil)
}

func sendFailureText(err error) string {
	if err == nil {
		return "send rejected"
	}

	return err.Error()
}
