// Package testutil provides the shared test doubles of the loan service:
// spies for the logger and metrics collector, an in-memory storage.DB fake
// recording transaction lifecycles, in-memory stores matching the postgres
// repository signatures, a recording message sender, a fixed clock, and an
// in-memory customer directory.
package testutil
