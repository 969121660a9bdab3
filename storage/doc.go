// Package storage defines the narrow persistence contract the core depends
// on: a Querier for interpolated SQL, transactions with guaranteed-release
// semantics, and the generic ErrStorageFailed condition.
//
// Concrete implementations live in storage/postgres; tests use the in-memory
// implementation from testutil.
package storage
