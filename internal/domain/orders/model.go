// Package orders provides idempotent, branch-scoped order creation and the
// order status machine.
package orders

import (
	"time"

	"storesync/internal/core/id"
	"storesync/internal/core/types"
)

// Order is a sale, scoped to one branch. ExternalRef, when present, is the
// idempotency key within the branch: two creations with the same reference
// yield the same order.
type Order struct {
	ID          id.ID  `db:"id" json:"id"`
	BranchID    id.ID  `db:"branch_id" json:"branchId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	CustomerID  *id.ID `db:"customer_id" json:"customerId,omitempty"`

	Status        Status        `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	ExternalRef *string `db:"external_ref" json:"externalRef,omitempty"`

	Subtotal   types.Money `db:"subtotal" json:"subtotal"`
	Discount   types.Money `db:"discount" json:"discount"`
	Tax        types.Money `db:"tax" json:"tax"`
	Shipping   types.Money `db:"shipping" json:"shipping"`
	Total      types.Money `db:"total" json:"total"`
	PaidAmount types.Money `db:"paid_amount" json:"paidAmount"`

	Notes     *string   `db:"notes" json:"notes,omitempty"`
	OrderDate time.Time `db:"order_date" json:"orderDate"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one order position.
type Line struct {
	ID        id.ID `db:"id" json:"id"`
	OrderID   id.ID `db:"order_id" json:"orderId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Discount  types.Money    `db:"discount" json:"discount"`
	Total     types.Money    `db:"total" json:"total"`
}

// Remaining returns the unpaid amount.
func (o *Order) Remaining() types.Money {
	return o.Total.Sub(o.PaidAmount)
}
