// Package deletebook implements the use case of removing a book from the
// catalog. The raised BookDeleted event drives the cleanup of reservations
// and notification subscriptions.
package deletebook
