package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/shell"
	"github.com/librisys/loanservice/storage"
)

// ErrNilClock occurs when WithClock is given a nil clock function.
var ErrNilClock = errors.New("clock function must not be nil")

const (
	logMsgEventsDeferred   = "deferred events to request scope"
	logMsgEventsDispatched = "dispatched events after commit"
	logMsgRollbackFailed   = "failed to roll back unit of work transaction"
)

// Publisher routes one event to its registered handlers. Implementations
// must isolate handler failures internally and never fail the caller.
type Publisher interface {
	Publish(ctx context.Context, event core.DomainEvent)
}

// Committer drives a UnitOfWork to completion: it stamps audit timestamps
// on every staged entity, flushes the staged writes, clears the pending
// events only after the flush verifiably succeeded, and then decides the
// delivery mode.
//
// With a request Scope the events are appended to the scope's deferred
// queue and published after the response went out; the surrounding
// transaction is the scope's and commits in the consistency middleware.
// Without a scope the committer opens its own transaction, commits it, and
// dispatches the events immediately and sequentially before returning.
type Committer struct {
	db        storage.DB
	publisher Publisher
	logger    shell.Logger
	clock     func() time.Time
}

// CommitterOption defines a functional option for configuring a Committer.
type CommitterOption func(*Committer) error

// WithClock sets the time source used for audit stamping and event
// occurrence times. Defaults to time.Now.
func WithClock(clock func() time.Time) CommitterOption {
	return func(c *Committer) error {
		if clock == nil {
			return ErrNilClock
		}

		c.clock = clock

		return nil
	}
}

// NewCommitter creates a Committer backed by the given database handle and
// publisher.
func NewCommitter(db storage.DB, publisher Publisher, logger shell.Logger, options ...CommitterOption) (*Committer, error) {
	committer := &Committer{
		db:        db,
		publisher: publisher,
		logger:    logger,
		clock:     time.Now,
	}

	for _, option := range options {
		if err := option(committer); err != nil {
			return nil, err
		}
	}

	return committer, nil
}

// Now returns the committer's current time, normalized the way audit
// timestamps and event occurrence times are stored.
func (c *Committer) Now() time.Time {
	return core.ToOccurredAt(c.clock())
}

// Commit completes the unit of work. When scope is non-nil the staged
// writes run inside the scope's transaction and the raised events move to
// the scope's deferred queue; the caller's transaction commit happens
// later, after the response. When scope is nil the committer brackets the
// writes in its own transaction and dispatches the events right after the
// commit succeeds.
//
// If any write or the commit fails, the unit's pending events are left in
// place and nothing is delivered.
func (c *Committer) Commit(ctx context.Context, scope *Scope, unit *UnitOfWork) error {
	c.stampAuditTimestamps(unit)

	if scope != nil {
		return c.commitIntoScope(ctx, scope, unit)
	}

	return c.commitStandalone(ctx, unit)
}

func (c *Committer) commitIntoScope(ctx context.Context, scope *Scope, unit *UnitOfWork) error {
	if err := c.flushWrites(ctx, scope.Tx(), unit); err != nil {
		return err
	}

	events := unit.PendingEvents()
	unit.clearEvents()
	scope.Enqueue(events...)

	if len(events) > 0 {
		c.logger.Debug(logMsgEventsDeferred, shell.LogAttrEventCount, len(events))
	}

	return nil
}

func (c *Committer) commitStandalone(ctx context.Context, unit *UnitOfWork) error {
	tx, beginErr := c.db.BeginTx(ctx)
	if beginErr != nil {
		return fmt.Errorf("begin transaction: %w", beginErr)
	}

	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			c.logger.Warn(logMsgRollbackFailed, shell.LogAttrError, rollbackErr.Error())
		}
	}()

	if err := c.flushWrites(ctx, tx, unit); err != nil {
		return err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}

	events := unit.PendingEvents()
	unit.clearEvents()

	for _, event := range events {
		c.publisher.Publish(ctx, event)
	}

	if len(events) > 0 {
		c.logger.Debug(logMsgEventsDispatched, shell.LogAttrEventCount, len(events))
	}

	return nil
}

func (c *Committer) flushWrites(ctx context.Context, q storage.Querier, unit *UnitOfWork) error {
	for _, write := range unit.writes {
		if err := write.execute(ctx, q); err != nil {
			return err
		}
	}

	return nil
}

func (c *Committer) stampAuditTimestamps(unit *UnitOfWork) {
	now := c.Now()

	for _, write := range unit.writes {
		if write.meta == nil {
			continue
		}

		if write.isNew {
			write.meta.DateCreated = now
		}

		write.meta.DateModified = now
	}
}
