// Package product provides the Product catalog.
package product

import (
	"context"
	"time"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
	"storesync/internal/core/types"
)

// Product is a sellable item, scoped to exactly one branch.
type Product struct {
	ID       id.ID  `db:"id" json:"id"`
	BranchID id.ID  `db:"branch_id" json:"branchId"`
	SKU      string `db:"sku" json:"sku"`
	Name     string `db:"name" json:"name"`

	Price types.Money `db:"price" json:"price"`

	// QuantityCached is the denormalized total across all warehouses. It is
	// maintained as a side effect of ledger writes for cheap listing and is
	// eventually consistent with the ledger; the ledger sum is the only
	// source of truth.
	QuantityCached types.Quantity `db:"quantity_cached" json:"quantityCached"`

	IsActive bool `db:"is_active" json:"isActive"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks required fields.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidationField("name", "name is required")
	}
	if id.IsNil(p.BranchID) {
		return apperror.NewValidationField("branch_id", "branch is required")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidationField("price", "price cannot be negative")
	}
	return nil
}
