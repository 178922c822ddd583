package product

import (
	"context"

	"storesync/internal/core/id"
	"storesync/internal/core/types"
)

// Repository provides product catalog access.
type Repository interface {
	// GetByID returns a product or a not-found error.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, p *Product) error

	// Update persists mutable product fields (name, sku, price, active).
	Update(ctx context.Context, p *Product) error

	// AdjustCachedQuantity shifts the denormalized on-hand total. Must run
	// inside the same transaction as the ledger write it mirrors.
	AdjustCachedQuantity(ctx context.Context, productID id.ID, delta types.Quantity) error
}
