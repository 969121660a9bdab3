// Package createreservation implements the use case of placing a hold on a
// book. The raised ReservationCreated event drives the reserved flag on the
// book through the reaction pipeline.
package createreservation
