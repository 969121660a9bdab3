package core

import (
	"time"
)

// EntityMeta carries the identity and audit fields shared by all persisted
// entities. DateCreated and DateModified are stamped by the unit-of-work
// committer right before a flush; business code never touches them.
type EntityMeta struct {
	ID           int64
	DateCreated  time.Time
	DateModified time.Time
}

// IsPersisted reports whether the entity has been assigned a row id.
func (m EntityMeta) IsPersisted() bool {
	return m.ID != 0
}
