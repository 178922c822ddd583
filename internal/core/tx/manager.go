// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces, never on a concrete driver;
// the implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunSerializable executes fn in a serializable transaction.
	// Used for read-balance-then-append sequences (set-mode, bulk updates,
	// order completion) so concurrent writers cannot both act on a stale
	// balance.
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}
