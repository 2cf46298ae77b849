// Package postgres provides PostgreSQL implementations of the persistence
// interfaces declared in internal/store and internal/task, the pgconn error
// mapping they share, and the embedded goose migrations that create their
// tables.
package postgres
