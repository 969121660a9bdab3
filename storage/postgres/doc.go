// Package postgres provides the PostgreSQL repositories of the loan service.
//
// Repositories are stateless and take the storage.Querier to run against on
// every call, so a single repository instance serves plain pool reads, the
// per-request transaction opened by the consistency middleware, and the
// fresh handles the expiry scheduler acquires per sweep.
//
// SQL is built with goqu and handed to the adapters as fully interpolated
// strings, supporting both pgx pools and sqlx/database-sql connections
// through the storage.DB abstraction.
//
// Usage example:
//
//	pool, _ := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolConfig())
//	db := postgres.NewDBFromPGXPool(pool)
//	books := postgres.NewBookRepository(logger)
//	book, found, err := books.GetByID(ctx, db, bookID)
package postgres
