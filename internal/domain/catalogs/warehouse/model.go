// Package warehouse provides the Warehouse catalog and resolution policies.
// Warehouses are physical or logical stock locations, each owned by exactly
// one branch.
package warehouse

import (
	"context"
	"time"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	ID       id.ID  `db:"id" json:"id"`
	BranchID id.ID  `db:"branch_id" json:"branchId"`
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`

	// IsActive indicates if warehouse is operational
	IsActive bool `db:"is_active" json:"isActive"`

	// IsDefault marks the branch's default warehouse (at most one per branch)
	IsDefault bool `db:"is_default" json:"isDefault"`

	Address *string `db:"address" json:"address,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks required fields.
func (w *Warehouse) Validate(ctx context.Context) error {
	if w.Name == "" {
		return apperror.NewValidationField("name", "name is required")
	}
	if id.IsNil(w.BranchID) {
		return apperror.NewValidationField("branch_id", "branch is required")
	}
	return nil
}

// Usable reports whether the warehouse can take part in stock operations.
func (w *Warehouse) Usable() bool {
	return w.IsActive
}

// BelongsTo reports whether the warehouse is owned by the given branch.
func (w *Warehouse) BelongsTo(branchID id.ID) bool {
	return w.BranchID == branchID
}
