package dto

import (
	"time"

	"storesync/internal/core/types"
	"storesync/internal/domain/orders"
)

// OrderCustomerRequest is an inline customer payload.
type OrderCustomerRequest struct {
	Name  string  `json:"name" binding:"required"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// OrderItemRequest is one requested order line.
type OrderItemRequest struct {
	ProductID  *string        `json:"product_id"`
	ExternalID *string        `json:"external_id"`
	Quantity   types.Quantity `json:"quantity"`
	Price      *types.Money   `json:"price"`
	Discount   types.Money    `json:"discount"`
}

// CreateOrderRequest creates an order. external_id makes the call idempotent
// within the branch.
type CreateOrderRequest struct {
	CustomerID  *string               `json:"customer_id"`
	Customer    *OrderCustomerRequest `json:"customer"`
	StoreID     *string               `json:"store_id"`
	Items       []OrderItemRequest    `json:"items" binding:"required"`
	Discount    types.Money           `json:"discount"`
	Tax         types.Money           `json:"tax"`
	Shipping    types.Money           `json:"shipping"`
	Notes       *string               `json:"notes"`
	ExternalID  *string               `json:"external_id"`
	WarehouseID *string               `json:"warehouse_id"`
	OrderDate   *time.Time            `json:"order_date"`
}

// TransitionOrderRequest requests a status change.
type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderResponse wraps a single order.
type OrderResponse struct {
	Success bool          `json:"success"`
	Order   *orders.Order `json:"order"`
}
