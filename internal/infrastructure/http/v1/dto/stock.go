package dto

import (
	"time"

	"storesync/internal/core/types"
	"storesync/internal/domain/ledger"
)

// StockUpdateRequest is one stock update. The product is addressed by
// internal id or by (store_id, external_id).
type StockUpdateRequest struct {
	ProductID   *string        `json:"product_id"`
	ExternalID  *string        `json:"external_id"`
	StoreID     *string        `json:"store_id"`
	WarehouseID *string        `json:"warehouse_id"`
	Direction   string         `json:"direction" binding:"required"`
	Qty         types.Quantity `json:"qty"`
	Reason      *string        `json:"reason"`
}

// BulkStockUpdateRequest carries independent stock updates.
type BulkStockUpdateRequest struct {
	Items []StockUpdateRequest `json:"items" binding:"required"`
}

// StockUpdateResponse reports the balance before and after one update.
type StockUpdateResponse struct {
	Success bool                 `json:"success"`
	Result  *ledger.UpdateResult `json:"result"`
}

// BulkStockUpdateResponse partitions results so callers can retry failures.
type BulkStockUpdateResponse struct {
	Success bool               `json:"success"`
	Result  *ledger.BulkResult `json:"result"`
}

// StockBalanceResponse reports the current ledger balance.
type StockBalanceResponse struct {
	ProductID   string         `json:"productId"`
	WarehouseID *string        `json:"warehouseId,omitempty"`
	Quantity    types.Quantity `json:"quantity"`
}

// StockMovementsQuery filters movement history.
type StockMovementsQuery struct {
	ProductID   string     `form:"product_id" binding:"required"`
	WarehouseID *string    `form:"warehouse_id"`
	Type        *string    `form:"type"`
	FromDate    *time.Time `form:"from_date" time_format:"2006-01-02T15:04:05Z07:00"`
	ToDate      *time.Time `form:"to_date" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit       int        `form:"limit,default=50"`
	Offset      int        `form:"offset,default=0"`
}

// StockMovementsResponse lists movement history, newest first.
type StockMovementsResponse struct {
	Movements []ledger.Movement `json:"movements"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}
