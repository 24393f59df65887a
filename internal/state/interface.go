package state

import (
	"context"
	"io"
)

// Transactor runs a function inside one database transaction and serves
// reads outside of one.
type Transactor interface {
	Transaction(ctx context.Context, fn func(s *Store) error) error
	Store() *Store
}

// Database is everything the service layer needs from the SQLite backend.
type Database interface {
	io.Closer
	Transactor
	Ping(ctx context.Context) error
}

// Compile-time verification that DB implements Database.
var _ Database = (*DB)(nil)
