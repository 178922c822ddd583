package warehouse

import (
	"context"

	"storesync/internal/core/id"
)

// Repository provides warehouse catalog access.
type Repository interface {
	// GetByID returns a warehouse or a not-found error.
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)

	// GetDefault returns the branch's active default warehouse, or nil when
	// the branch has none.
	GetDefault(ctx context.Context, branchID id.ID) (*Warehouse, error)

	// FirstActiveInBranch returns any active warehouse in the branch, or nil.
	FirstActiveInBranch(ctx context.Context, branchID id.ID) (*Warehouse, error)

	// FirstActiveAny returns any active warehouse regardless of branch, or
	// nil. Used only when no branch context exists at all.
	FirstActiveAny(ctx context.Context) (*Warehouse, error)
}
