// Package webhooks provides the ingestion gateway for external storefront
// events: authenticity, freshness and at-most-once processing.
package webhooks

import (
	"time"

	"storesync/internal/domain/catalogs/store"
)

// Topic is the canonical event name, platform-independent.
type Topic string

const (
	TopicProductCreate   Topic = "product.create"
	TopicProductUpdate   Topic = "product.update"
	TopicProductDelete   Topic = "product.delete"
	TopicOrderCreate     Topic = "order.create"
	TopicOrderUpdate     Topic = "order.update"
	TopicInventoryUpdate Topic = "inventory.update"
)

// SignatureEncoding is how a platform encodes the HMAC digest in its header.
type SignatureEncoding string

const (
	EncodingBase64 SignatureEncoding = "base64"
	EncodingHex    SignatureEncoding = "hex"
)

// Adapter describes how one platform shapes its webhook requests: header
// names, signature digest encoding, timestamp layout, and the closed map of
// platform topic names to canonical topics. Topics absent from the map are
// disallowed and rejected early.
type Adapter struct {
	Platform        store.Platform
	SignatureHeader string
	DeliveryHeader  string
	TimestampHeader string
	TopicHeader     string
	Encoding        SignatureEncoding

	// TimestampLayout is a time.Parse layout; empty means Unix seconds.
	TimestampLayout string

	Topics map[string]Topic
}

// ParseTimestamp parses the platform's timestamp header value.
func (a *Adapter) ParseTimestamp(value string) (time.Time, error) {
	if a.TimestampLayout != "" {
		return time.Parse(a.TimestampLayout, value)
	}
	return parseUnixSeconds(value)
}

// CanonicalTopic maps the platform topic name to a canonical topic.
func (a *Adapter) CanonicalTopic(platformTopic string) (Topic, bool) {
	t, ok := a.Topics[platformTopic]
	return t, ok
}

var adapters = map[store.Platform]*Adapter{
	store.PlatformShopify: {
		Platform:        store.PlatformShopify,
		SignatureHeader: "X-Shopify-Hmac-Sha256",
		DeliveryHeader:  "X-Shopify-Webhook-Id",
		TimestampHeader: "X-Shopify-Triggered-At",
		TopicHeader:     "X-Shopify-Topic",
		Encoding:        EncodingBase64,
		TimestampLayout: time.RFC3339,
		Topics: map[string]Topic{
			"products/create":         TopicProductCreate,
			"products/update":         TopicProductUpdate,
			"products/delete":         TopicProductDelete,
			"orders/create":           TopicOrderCreate,
			"orders/updated":          TopicOrderUpdate,
			"inventory_levels/update": TopicInventoryUpdate,
		},
	},
	store.PlatformWooCommerce: {
		Platform:        store.PlatformWooCommerce,
		SignatureHeader: "X-WC-Webhook-Signature",
		DeliveryHeader:  "X-WC-Webhook-Delivery-ID",
		TimestampHeader: "X-WC-Webhook-Timestamp",
		TopicHeader:     "X-WC-Webhook-Topic",
		Encoding:        EncodingBase64,
		Topics: map[string]Topic{
			"product.created": TopicProductCreate,
			"product.updated": TopicProductUpdate,
			"product.deleted": TopicProductDelete,
			"order.created":   TopicOrderCreate,
			"order.updated":   TopicOrderUpdate,
			"product.stock":   TopicInventoryUpdate,
		},
	},
	store.PlatformCustom: {
		Platform:        store.PlatformCustom,
		SignatureHeader: "X-Webhook-Signature",
		DeliveryHeader:  "X-Webhook-Delivery-ID",
		TimestampHeader: "X-Webhook-Timestamp",
		TopicHeader:     "X-Webhook-Event",
		Encoding:        EncodingHex,
		Topics: map[string]Topic{
			"product.create":   TopicProductCreate,
			"product.update":   TopicProductUpdate,
			"product.delete":   TopicProductDelete,
			"order.create":     TopicOrderCreate,
			"order.update":     TopicOrderUpdate,
			"inventory.update": TopicInventoryUpdate,
		},
	},
}

// AdapterFor returns the platform adapter.
func AdapterFor(p store.Platform) (*Adapter, bool) {
	a, ok := adapters[p]
	return a, ok
}

func parseUnixSeconds(value string) (time.Time, error) {
	var secs int64
	var err error
	if secs, err = parseInt64(value); err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}
