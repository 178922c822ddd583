package handlers

import (
	"github.com/gin-gonic/gin"

	"storesync/internal/domain/orders"
	"storesync/internal/infrastructure/http/v1/dto"
)

// OrderHandler serves order creation, retrieval and status transitions.
type OrderHandler struct {
	*BaseHandler
	orders *orders.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, svc *orders.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, orders: svc}
}

// Create handles POST /orders. Supplying external_id makes the call
// idempotent within the branch: a replay returns the original order.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, ok := h.toCreateInput(c, req)
	if !ok {
		return
	}

	order, err := h.orders.Create(c.Request.Context(), *input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.OrderResponse{Success: true, Order: order})
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, c.Param("id"), "id")
	if !ok {
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.OrderResponse{Success: true, Order: order})
}

// TransitionStatus handles POST /orders/:id/status.
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	orderID, ok := h.ParseID(c, c.Param("id"), "id")
	if !ok {
		return
	}

	var req dto.TransitionOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.TransitionStatus(c.Request.Context(), orderID, orders.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.OrderResponse{Success: true, Order: order})
}

func (h *OrderHandler) toCreateInput(c *gin.Context, req dto.CreateOrderRequest) (*orders.CreateInput, bool) {
	customerID, ok := h.ParseOptionalID(c, req.CustomerID, "customer_id")
	if !ok {
		return nil, false
	}
	storeID, ok := h.ParseOptionalID(c, req.StoreID, "store_id")
	if !ok {
		return nil, false
	}
	warehouseID, ok := h.ParseOptionalID(c, req.WarehouseID, "warehouse_id")
	if !ok {
		return nil, false
	}

	input := &orders.CreateInput{
		CustomerID:  customerID,
		StoreID:     storeID,
		Discount:    req.Discount,
		Tax:         req.Tax,
		Shipping:    req.Shipping,
		Notes:       req.Notes,
		ExternalRef: req.ExternalID,
		WarehouseID: warehouseID,
		OrderDate:   req.OrderDate,
	}

	if req.Customer != nil {
		input.Customer = &orders.CustomerInput{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		}
	}

	for _, item := range req.Items {
		productID, ok := h.ParseOptionalID(c, item.ProductID, "items.product_id")
		if !ok {
			return nil, false
		}
		input.Lines = append(input.Lines, orders.LineInput{
			ProductID:  productID,
			ExternalID: item.ExternalID,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Discount:   item.Discount,
		})
	}

	return input, true
}
