// Package store provides external storefront integrations and their
// product mappings.
package store

import (
	"time"

	"storesync/internal/core/id"
)

// Platform identifies the external storefront type.
type Platform string

const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
	PlatformCustom      Platform = "custom"
)

// IsValid reports whether the platform is known.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformShopify, PlatformWooCommerce, PlatformCustom:
		return true
	}
	return false
}

// Store is a connected external storefront. Each store belongs to exactly one
// branch; everything a webhook from the store does is scoped to that branch.
type Store struct {
	ID       id.ID    `db:"id" json:"id"`
	BranchID id.ID    `db:"branch_id" json:"branchId"`
	Platform Platform `db:"platform" json:"platform"`
	Name     string   `db:"name" json:"name"`

	IsActive bool `db:"is_active" json:"isActive"`

	// WebhookSecret is the shared secret for HMAC signature verification.
	WebhookSecret string `db:"webhook_secret" json:"-"`

	// IntegrationUserID is attributed as the creator of movements and orders
	// produced by this store's webhooks.
	IntegrationUserID string `db:"integration_user_id" json:"integrationUserId"`

	// SyncFilter is an optional CEL expression over {topic, platform};
	// deliveries it evaluates false for are skipped. Empty means allow all.
	SyncFilter string `db:"sync_filter" json:"syncFilter,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Mapping links an external product identifier to an internal product,
// scoped to one store.
type Mapping struct {
	StoreID    id.ID     `db:"store_id" json:"storeId"`
	ExternalID string    `db:"external_id" json:"externalId"`
	ProductID  id.ID     `db:"product_id" json:"productId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
