// Package bookdeleted reacts to BookDeleted events by removing the book's
// reservations and notification subscriptions, mailing pending subscribers
// a courtesy cancellation first.
package bookdeleted
