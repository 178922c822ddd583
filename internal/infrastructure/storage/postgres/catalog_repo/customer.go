package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
	"storesync/internal/domain/catalogs/customer"
	"storesync/internal/infrastructure/storage/postgres"
)

const customersTable = "customers"

var customerColumns = []string{
	"id", "branch_id", "name", "email", "phone",
	"created_at", "updated_at",
}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ customer.Repository = (*CustomerRepo)(nil)

// GetByID returns a customer or a not-found error.
func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	q := r.builder.Select(customerColumns...).
		From(customersTable).
		Where(squirrel.Eq{"id": customerID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c customer.Customer
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer", customerID)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// FindByEmailOrPhone returns the branch's customer matching either contact
// field, nil when none matches. Name is never part of the match.
func (r *CustomerRepo) FindByEmailOrPhone(ctx context.Context, branchID id.ID, email, phone *string) (*customer.Customer, error) {
	or := squirrel.Or{}
	if email != nil && *email != "" {
		or = append(or, squirrel.Eq{"email": *email})
	}
	if phone != nil && *phone != "" {
		or = append(or, squirrel.Eq{"phone": *phone})
	}
	if len(or) == 0 {
		return nil, nil
	}

	q := r.builder.Select(customerColumns...).
		From(customersTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(or).
		OrderBy("created_at").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c customer.Customer
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

// Create inserts a customer.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	q := r.builder.Insert(customersTable).
		Columns(customerColumns...).
		Values(c.ID, c.BranchID, c.Name, c.Email, c.Phone, c.CreatedAt, c.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}
