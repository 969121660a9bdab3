package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/librisys/loanservice/shell"
)

const (
	defaultRateLimitPerSecond = rate.Limit(20)
	defaultRateLimitBurst     = 40
)

// NewRouter assembles the HTTP surface: panic recovery and rate limiting on
// the outside, the eventual-consistency bracket inside, then the JSON
// handlers.
func NewRouter(handlers *Handlers, consistency *EventualConsistency, logger shell.Logger) http.Handler {
	router := chi.NewRouter()

	router.Use(RecoverPanic(logger))
	router.Use(RateLimit(defaultRateLimitPerSecond, defaultRateLimitBurst))
	router.Use(consistency.Handler)

	router.Route("/books", func(r chi.Router) {
		r.Post("/", handlers.CreateBook)
		r.Get("/", handlers.ListBooks)
		r.Get("/{bookID}", handlers.GetBook)
		r.Put("/{bookID}", handlers.UpdateBook)
		r.Delete("/{bookID}", handlers.DeleteBook)
	})

	router.Post("/reservations", handlers.CreateReservation)
	router.Post("/notifications", handlers.CreateNotification)

	return router
}
