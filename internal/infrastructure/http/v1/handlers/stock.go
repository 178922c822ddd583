package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"storesync/internal/core/apperror"
	"storesync/internal/core/branch"
	"storesync/internal/core/id"
	"storesync/internal/domain/catalogs/store"
	"storesync/internal/domain/ledger"
	"storesync/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock updates, balances and movement history.
type StockHandler struct {
	*BaseHandler
	stock    *ledger.Service
	mappings store.Repository
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, stock *ledger.Service, mappings store.Repository) *StockHandler {
	return &StockHandler{BaseHandler: base, stock: stock, mappings: mappings}
}

// Update handles POST /stock/update.
func (h *StockHandler) Update(c *gin.Context) {
	var req dto.StockUpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, ok := h.toUpdateInput(c, req)
	if !ok {
		return
	}

	result, err := h.stock.ApplyUpdate(c.Request.Context(), *input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockUpdateResponse{Success: true, Result: result})
}

// BulkUpdate handles POST /stock/bulk-update. Items are processed
// independently; the response partitions successes and failures.
func (h *StockHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkStockUpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items := make([]ledger.UpdateInput, 0, len(req.Items))
	for i, item := range req.Items {
		input, ok := h.toUpdateInput(c, item)
		if !ok {
			h.Error(c, apperror.NewValidation("invalid bulk item").WithDetail("index", i))
			return
		}
		items = append(items, *input)
	}

	result, err := h.stock.ApplyBulk(c.Request.Context(), items)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.BulkStockUpdateResponse{Success: true, Result: result})
}

// Balance handles GET /stock/balance.
func (h *StockHandler) Balance(c *gin.Context) {
	productID, ok := h.ParseID(c, c.Query("product_id"), "product_id")
	if !ok {
		return
	}

	var filter ledger.BalanceFilter
	resp := dto.StockBalanceResponse{ProductID: productID.String()}

	if raw := c.Query("warehouse_id"); raw != "" {
		warehouseID, ok := h.ParseID(c, raw, "warehouse_id")
		if !ok {
			return
		}
		filter.WarehouseID = &warehouseID
		resp.WarehouseID = &raw
	} else if branchID, ok := branch.ID(c.Request.Context()); ok {
		filter.BranchID = &branchID
	}

	qty, err := h.stock.Balance(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp.Quantity = qty
	h.OK(c, resp)
}

// Movements handles GET /stock/movements.
func (h *StockHandler) Movements(c *gin.Context) {
	var q dto.StockMovementsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	productID, ok := h.ParseID(c, q.ProductID, "product_id")
	if !ok {
		return
	}

	filter := ledger.MovementFilter{
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.WarehouseID != nil {
		warehouseID, ok := h.ParseID(c, *q.WarehouseID, "warehouse_id")
		if !ok {
			return
		}
		filter.WarehouseID = &warehouseID
	}
	if q.Type != nil && *q.Type != "" {
		t := ledger.MovementType(*q.Type)
		filter.Type = &t
	}

	movements, err := h.stock.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockMovementsResponse{
		Movements: movements,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
}

// toUpdateInput converts a request item, resolving external product ids
// through the store mapping when needed.
func (h *StockHandler) toUpdateInput(c *gin.Context, req dto.StockUpdateRequest) (*ledger.UpdateInput, bool) {
	productID, ok := h.resolveProduct(c, req)
	if !ok {
		return nil, false
	}

	warehouseID, ok := h.ParseOptionalID(c, req.WarehouseID, "warehouse_id")
	if !ok {
		return nil, false
	}

	return &ledger.UpdateInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Direction:   ledger.Direction(req.Direction),
		Quantity:    req.Qty,
		Type:        ledger.TypeAPISync,
		Reference:   ledger.Reference{Type: ledger.RefStockUpdate, ID: c.GetString("request_id")},
		Note:        req.Reason,
	}, true
}

func (h *StockHandler) resolveProduct(c *gin.Context, req dto.StockUpdateRequest) (id.ID, bool) {
	if req.ProductID != nil && *req.ProductID != "" {
		return h.ParseID(c, *req.ProductID, "product_id")
	}

	if req.ExternalID == nil || *req.ExternalID == "" {
		h.Error(c, apperror.NewValidationField("product_id", "product_id or external_id is required"))
		return id.Nil(), false
	}
	if req.StoreID == nil || *req.StoreID == "" {
		h.Error(c, apperror.NewValidationField("store_id", "store_id is required to resolve external product ids"))
		return id.Nil(), false
	}

	storeID, ok := h.ParseID(c, *req.StoreID, "store_id")
	if !ok {
		return id.Nil(), false
	}

	productID, err := h.lookupMapping(c.Request.Context(), storeID, *req.ExternalID)
	if err != nil {
		h.Error(c, err)
		return id.Nil(), false
	}
	return productID, true
}

func (h *StockHandler) lookupMapping(ctx context.Context, storeID id.ID, externalID string) (id.ID, error) {
	mapping, err := h.mappings.GetMapping(ctx, storeID, externalID)
	if err != nil {
		return id.Nil(), err
	}
	if mapping == nil {
		return id.Nil(), apperror.NewNotFound("product mapping", externalID)
	}
	return mapping.ProductID, nil
}
