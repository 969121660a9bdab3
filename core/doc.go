// Package core contains the domain model of the library-loan backend:
// books, reservations, notification subscriptions, and the domain events
// raised by business operations (ReservationCreated, BookDeleted,
// BookAvailable).
//
// Business operations are pure functions that return the updated entity
// together with the events it raised; nothing in this package performs I/O.
// Derived state (reservation expiry, book availability) is always computed,
// never stored, so that wall-clock evaluation and persisted state cannot
// drift apart.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would
// be called the 'domain' layer.
package core
