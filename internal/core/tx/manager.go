// Package tx defines the transaction contract domain services depend
// on, keeping them free of any database driver import. The PostgreSQL
// implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs work inside a database transaction.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back
	// otherwise. A nested call joins the transaction already carried
	// by ctx instead of opening a second one.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager is a Manager that can also open read-only
// transactions, where the database rejects writes outright.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
