// Package reservationcreated reacts to ReservationCreated events by
// flipping the reserved flag on the book.
package reservationcreated
