package customer

import (
	"context"

	"storesync/internal/core/id"
)

// Repository provides customer catalog access.
type Repository interface {
	// GetByID returns a customer or a not-found error.
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)

	// FindByEmailOrPhone matches an existing customer in the branch by email
	// or phone. Returns nil (no error) when neither matches. Name is never a
	// match key.
	FindByEmailOrPhone(ctx context.Context, branchID id.ID, email, phone *string) (*Customer, error)

	// Create inserts a new customer.
	Create(ctx context.Context, c *Customer) error
}
