// Package db abstracts relational persistence so repositories stay
// independent of the concrete driver.
package db

import "context"

// Database is the minimal surface repositories need from a SQL database.
type Database interface {
	Querier

	// Transaction executes fn within a database transaction, rolling back
	// if fn returns an error.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// Ping verifies the connection is still alive.
	Ping(ctx context.Context) error

	// Close closes the underlying pool.
	Close() error
}

// Transaction exposes query operations bound to an open transaction.
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Querier abstracts database operations for both database and transaction.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Rows iterates a multi-row result set.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Row is a single-row result.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result reports the outcome of a write.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}
