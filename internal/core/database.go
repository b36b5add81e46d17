package core

import "context"

// Database defines the interface for the relational record store.
// Implementations wrap a concrete driver (MySQL via database/sql) and own
// the connection pool; callers obtain scoped units of work through BeginTx.
type Database interface {
	// Query executes a SELECT statement and returns rows.
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)

	// Exec executes a non-query statement and returns a result.
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)

	// BeginTx starts a new transaction. Each transaction is one unit of
	// work and must be committed or rolled back before being discarded.
	BeginTx(ctx context.Context) (Transaction, error)

	// Ping verifies the connection to the store is alive.
	Ping(ctx context.Context) error

	// Close closes the underlying connection pool.
	Close() error
}

// Rows is a cursor over the result of a query.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Result reports the outcome of a write statement.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Transaction is a scoped unit of work against the store.
type Transaction interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
	Commit() error
	Rollback() error
}
