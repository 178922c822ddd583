// Package sync reconciles verified storefront events with the catalog,
// orders and the stock ledger.
package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"storesync/internal/core/apperror"
	"storesync/internal/core/types"
)

// productPayload is the normalized product event body.
type productPayload struct {
	ExternalID string       `json:"id"`
	SKU        string       `json:"sku"`
	Name       string       `json:"title"`
	Price      *types.Money `json:"price"`
	Active     *bool        `json:"active"`
}

// orderPayload is the normalized order event body.
type orderPayload struct {
	ExternalRef string `json:"id"`
	Customer    *struct {
		Name  string  `json:"name"`
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	} `json:"customer"`
	Lines []struct {
		ExternalID string         `json:"product_id"`
		Quantity   types.Quantity `json:"quantity"`
		Price      *types.Money   `json:"price"`
		Discount   types.Money    `json:"discount"`
	} `json:"line_items"`
	Discount  types.Money `json:"discount"`
	Tax       types.Money `json:"tax"`
	Shipping  types.Money `json:"shipping"`
	Notes     *string     `json:"note"`
	CreatedAt *time.Time  `json:"created_at"`
}

// inventoryPayload is the normalized inventory event body. Quantity is the
// absolute level the platform reports, not a delta.
type inventoryPayload struct {
	ExternalID string         `json:"product_id"`
	Quantity   types.Quantity `json:"quantity"`
}

func decode(payload []byte, field string, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return apperror.NewValidationField(field, fmt.Sprintf("malformed payload: %v", err))
	}
	return nil
}
