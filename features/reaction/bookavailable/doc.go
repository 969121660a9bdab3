// Package bookavailable reacts to BookAvailable events by mailing the
// waiting subscribers of the book. Subscriptions flip to notified only on a
// verifiably delivered message.
package bookavailable
