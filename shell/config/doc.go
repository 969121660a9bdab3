// Package config provides environment-driven settings with sensible
// defaults: database connection configs for the pgx pool and the sqlx/lib-pq
// alternative, the expiry sweep interval, and the HTTP listen address.
package config
