package orders

import (
	"context"

	"storesync/internal/core/id"
)

// Repository persists orders and lines.
type Repository interface {
	// GetByID returns an order without lines, or a not-found error.
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetByExternalRef returns the branch's order carrying the external
	// reference, or nil when none exists.
	GetByExternalRef(ctx context.Context, branchID id.ID, externalRef string) (*Order, error)

	// GetLines returns an order's lines.
	GetLines(ctx context.Context, orderID id.ID) ([]Line, error)

	// Create inserts the order header.
	Create(ctx context.Context, o *Order) error

	// SaveLines inserts the order's lines.
	SaveLines(ctx context.Context, orderID id.ID, lines []Line) error

	// UpdateStatus persists a status change.
	UpdateStatus(ctx context.Context, orderID id.ID, status Status) error
}
