// Package unitofwork implements the commit side of the event pipeline.
//
// A business operation stages its entity writes and raised events on a
// UnitOfWork; the Committer stamps audit timestamps, flushes the writes,
// and clears the events only after the flush verifiably succeeded. Delivery
// mode depends on the presence of a request Scope: with one, events join
// the scope's deferred queue and leave after the response; without one,
// they dispatch immediately and sequentially after the commit.
//
// The Scope travels through explicit parameters; ContextWithScope and
// ScopeFromContext exist only to cross the http.Handler and dispatch
// boundaries.
package unitofwork
