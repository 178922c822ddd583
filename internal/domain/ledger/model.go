// Package ledger provides the append-only stock movement ledger.
//
// Stock levels are never stored as mutable counters: the balance of a
// (product, warehouse) pair is the sum of signed movement quantities. The
// cached total on Product is a read optimization maintained alongside each
// write and is never authoritative.
package ledger

import (
	"time"

	"storesync/internal/core/id"
	"storesync/internal/core/types"
)

// Direction of a stock change requested by a caller.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
	DirectionSet Direction = "set"
)

// MovementType identifies what kind of operation produced a movement.
type MovementType string

const (
	TypeAPISync      MovementType = "api_sync"
	TypeInitialStock MovementType = "initial_stock"
	TypeAdjustment   MovementType = "adjustment"
	TypePOSSale      MovementType = "pos_sale"
	TypeOrderSale    MovementType = "order_sale"
	TypeRefund       MovementType = "refund"
)

// Reference types for movement provenance.
const (
	RefStockUpdate = "stock_update"
	RefOrder       = "order"
	RefWebhook     = "webhook"
)

// Movement is one immutable ledger entry. Corrections are new offsetting
// entries, never updates or deletes.
type Movement struct {
	ID          id.ID        `db:"id" json:"id"`
	ProductID   id.ID        `db:"product_id" json:"productId"`
	WarehouseID id.ID        `db:"warehouse_id" json:"warehouseId"`

	// Quantity is signed: positive for stock-in, negative for stock-out.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	Type          MovementType `db:"movement_type" json:"movementType"`
	ReferenceType string       `db:"reference_type" json:"referenceType"`
	ReferenceID   string       `db:"reference_id" json:"referenceId"`

	UnitCost *types.Money `db:"unit_cost" json:"unitCost,omitempty"`
	Note     *string      `db:"note" json:"note,omitempty"`

	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Reference names the operation that caused a movement.
type Reference struct {
	Type string
	ID   string
}
