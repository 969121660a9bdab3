// Package dispatch fans published domain events out to their registered
// handlers. The dispatcher standardizes failure isolation: every handler
// invocation is guarded, failures and panics are logged as warnings and
// counted, and neither the remaining handlers nor the publisher are
// affected.
package dispatch
