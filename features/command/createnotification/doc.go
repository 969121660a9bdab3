// Package createnotification implements the use case of subscribing a
// customer to a book's availability, guarding against duplicate pending
// subscriptions.
package createnotification
