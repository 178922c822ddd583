// Package customer provides the Customer catalog.
package customer

import (
	"time"

	"storesync/internal/core/id"
)

// Customer is a buyer record, scoped to one branch.
type Customer struct {
	ID       id.ID  `db:"id" json:"id"`
	BranchID id.ID  `db:"branch_id" json:"branchId"`
	Name     string `db:"name" json:"name"`

	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
