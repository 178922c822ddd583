package store

import (
	"context"

	"storesync/internal/core/id"
)

// Repository provides store and mapping access.
type Repository interface {
	// GetByID returns a store or a not-found error. The lookup is not
	// branch-scoped: webhooks arrive with no authenticated user, so the
	// store itself establishes the branch.
	GetByID(ctx context.Context, storeID id.ID) (*Store, error)

	// GetMapping returns the mapping for (store, external id), or nil when
	// the external product is unmapped.
	GetMapping(ctx context.Context, storeID id.ID, externalID string) (*Mapping, error)

	// UpsertMapping creates or repoints a mapping.
	UpsertMapping(ctx context.Context, m *Mapping) error

	// DeleteMapping removes a mapping. Deleting an absent mapping is a no-op.
	DeleteMapping(ctx context.Context, storeID id.ID, externalID string) error
}
