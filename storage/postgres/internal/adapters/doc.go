// Package adapters wraps the concrete database drivers (pgx pool, sqlx)
// behind the storage interfaces, including transaction handles. All SQL
// arrives fully interpolated from the goqu builder, so the adapters only
// need string execution.
package adapters
