package ledger

import (
	"context"
	"time"

	"storesync/internal/core/id"
	"storesync/internal/core/types"
)

// BalanceFilter narrows a balance query.
type BalanceFilter struct {
	// WarehouseID restricts the sum to one warehouse.
	WarehouseID *id.ID

	// BranchID restricts the sum to warehouses belonging to a branch.
	BranchID *id.ID
}

// MovementFilter narrows a movement history query.
type MovementFilter struct {
	WarehouseID *id.ID
	Type        *MovementType
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// Repository persists ledger entries. Implementations must treat the table as
// append-only.
type Repository interface {
	// Insert appends one movement.
	Insert(ctx context.Context, m *Movement) error

	// SumQuantities returns the sum of signed quantities for a product,
	// optionally filtered. Zero (not an error) when no entries match.
	SumQuantities(ctx context.Context, productID id.ID, f BalanceFilter) (types.Quantity, error)

	// History returns movements for a product, newest first.
	History(ctx context.Context, productID id.ID, f MovementFilter) ([]Movement, error)
}

// ProductStore is the slice of the product catalog the ledger needs:
// existence/branch checks and the denormalized cached total.
type ProductStore interface {
	// GetRef returns minimal product info or a not-found error.
	GetRef(ctx context.Context, productID id.ID) (ProductRef, error)

	// AdjustCachedQuantity shifts the product's cached on-hand total.
	// Called in the same transaction as the movement insert.
	AdjustCachedQuantity(ctx context.Context, productID id.ID, delta types.Quantity) error
}

// ProductRef is the minimal product projection used by ledger operations.
type ProductRef struct {
	ID       id.ID
	BranchID id.ID
	Name     string
}

// WarehouseResolver picks a warehouse for stock-update operations under the
// lenient (availability-first) policy.
type WarehouseResolver interface {
	ResolveForStockUpdate(ctx context.Context, preferredID *id.ID, productBranchID *id.ID) (id.ID, error)
}
