package testutil

import (
	"context"
	"sync"

	"github.com/librisys/loanservice/storage"
)

// FakeDB is an in-memory storage.DB stand-in for pipeline tests. The
// staged writes under test are closures that mutate the in-memory stores,
// so the fake only has to hand out transaction handles and record their
// lifecycle; its Query and Exec are never meant to run real SQL.
type FakeDB struct {
	mu sync.Mutex

	// FailBeginTx makes BeginTx fail with this error.
	FailBeginTx error

	// FailCommit is handed to every transaction the fake opens.
	FailCommit error

	openedTxs []*FakeTx
}

// NewFakeDB creates a new FakeDB.
func NewFakeDB() *FakeDB {
	return &FakeDB{}
}

// Query implements the storage.Querier interface. The fake serves no rows.
func (db *FakeDB) Query(_ context.Context, _ string) (storage.Rows, error) {
	return emptyRows{}, nil
}

// Exec implements the storage.Querier interface.
func (db *FakeDB) Exec(_ context.Context, _ string) (storage.Result, error) {
	return fakeResult{}, nil
}

// BeginTx implements the storage.DB interface.
func (db *FakeDB) BeginTx(_ context.Context) (storage.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.FailBeginTx != nil {
		return nil, db.FailBeginTx
	}

	tx := &FakeTx{FailCommit: db.FailCommit}
	db.openedTxs = append(db.openedTxs, tx)

	return tx, nil
}

// OpenedTxs returns every transaction handed out so far, in open order.
func (db *FakeDB) OpenedTxs() []*FakeTx {
	db.mu.Lock()
	defer db.mu.Unlock()

	copied := make([]*FakeTx, len(db.openedTxs))
	copy(copied, db.openedTxs)

	return copied
}

// FakeTx records its lifecycle. Rollback after a successful Commit is a
// no-op, matching the storage.Tx contract.
type FakeTx struct {
	mu sync.Mutex

	// FailCommit makes Commit fail with this error.
	FailCommit error

	committed  bool
	rolledBack bool
}

// Query implements the storage.Querier interface.
func (tx *FakeTx) Query(_ context.Context, _ string) (storage.Rows, error) {
	return emptyRows{}, nil
}

// Exec implements the storage.Querier interface.
func (tx *FakeTx) Exec(_ context.Context, _ string) (storage.Result, error) {
	return fakeResult{}, nil
}

// Commit implements the storage.Tx interface.
func (tx *FakeTx) Commit(_ context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.FailCommit != nil {
		return tx.FailCommit
	}

	tx.committed = true

	return nil
}

// Rollback implements the storage.Tx interface.
func (tx *FakeTx) Rollback(_ context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed {
		return nil
	}

	tx.rolledBack = true

	return nil
}

// Committed reports whether Commit succeeded on this transaction.
func (tx *FakeTx) Committed() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	return tx.committed
}

// RolledBack reports whether the transaction ended in a rollback.
func (tx *FakeTx) RolledBack() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	return tx.rolledBack
}

type emptyRows struct{}

func (emptyRows) Next() bool { return false }

func (emptyRows) Scan(_ ...any) error { return nil }

func (emptyRows) Close() error { return nil }

type fakeResult struct{}

func (fakeResult) RowsAffected() (int64, error) { return 0, nil }
