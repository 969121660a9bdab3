package unitofwork

import (
	"context"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
)

// Write is one staged persistence operation, executed against whatever
// Querier the committer resolves for the unit of work.
type Write func(ctx context.Context, q storage.Querier) error

type stagedWrite struct {
	meta    *core.EntityMeta
	isNew   bool
	execute Write
}

// UnitOfWork is one coherent set of entity mutations committed together,
// plus the domain events they raised. Business operations return their
// updated entities and events as values; the handler stages both here and
// hands the whole unit to the Committer.
//
// A UnitOfWork is not safe for concurrent use and is discarded after one
// commit attempt.
type UnitOfWork struct {
	writes []stagedWrite
	events []core.DomainEvent
}

// New creates an empty UnitOfWork.
func New() *UnitOfWork {
	return &UnitOfWork{}
}

// StageInsert stages the creation of an entity. The committer stamps both
// audit timestamps on meta before executing the write.
func (u *UnitOfWork) StageInsert(meta *core.EntityMeta, write Write) {
	u.writes = append(u.writes, stagedWrite{meta: meta, isNew: true, execute: write})
}

// StageUpdate stages the modification of an entity. The committer stamps
// the modification timestamp on meta before executing the write.
func (u *UnitOfWork) StageUpdate(meta *core.EntityMeta, write Write) {
	u.writes = append(u.writes, stagedWrite{meta: meta, execute: write})
}

// StageDelete stages a removal. Deletes carry no audit stamping.
func (u *UnitOfWork) StageDelete(write Write) {
	u.writes = append(u.writes, stagedWrite{execute: write})
}

// Raise records domain events in raise order. Events stay pending until the
// committer has verified the flush succeeded; a failed commit leaves them
// in place.
func (u *UnitOfWork) Raise(events ...core.DomainEvent) {
	u.events = append(u.events, events...)
}

// PendingEvents returns the events raised so far, in raise order.
func (u *UnitOfWork) PendingEvents() core.DomainEvents {
	return core.DomainEvents(u.events)
}

// clearEvents empties the pending list. Only the committer calls this, and
// only after a verified successful flush.
func (u *UnitOfWork) clearEvents() {
	u.events = nil
}
