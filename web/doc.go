// Package web is the HTTP surface of the loan service. Its center is the
// EventualConsistency middleware, which brackets every request in a
// database transaction and drains the request's deferred events strictly
// FIFO after the response has been flushed to the client; dispatch and
// commit failures past that point are logged and swallowed, never surfaced
// to the caller. The JSON handlers on top are deliberately thin.
package web
