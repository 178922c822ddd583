// Package branch provides the branch scope as an explicit context value.
//
// Branches are the tenancy boundary: warehouses, products, stores and orders
// belong to exactly one branch, and no operation may cross branches. The scope
// is installed at exactly two entry points: the auth middleware (from the JWT
// branch claim) and the webhook gateway (from the matched store's branch).
// It is never process-global state.
package branch

import (
	"context"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
)

type ctxKey struct{}

// WithID returns a context scoped to the given branch.
func WithID(ctx context.Context, branchID id.ID) context.Context {
	return context.WithValue(ctx, ctxKey{}, branchID)
}

// ID returns the branch id from context, if any.
func ID(ctx context.Context) (id.ID, bool) {
	branchID, ok := ctx.Value(ctxKey{}).(id.ID)
	if !ok || id.IsNil(branchID) {
		return id.Nil(), false
	}
	return branchID, true
}

// MustID returns the branch id from context or a validation error.
// Operations that are meaningless without a branch (order creation,
// reconciliation) call this first.
func MustID(ctx context.Context) (id.ID, error) {
	branchID, ok := ID(ctx)
	if !ok {
		return id.Nil(), apperror.NewValidationField("branch_id", "branch context is required")
	}
	return branchID, nil
}
