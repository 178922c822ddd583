// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories: warehouses, products, customers and storefront integrations.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
	"storesync/internal/domain/catalogs/warehouse"
	"storesync/internal/infrastructure/storage/postgres"
)

const warehousesTable = "warehouses"

var warehouseColumns = []string{
	"id", "branch_id", "code", "name",
	"is_active", "is_default", "address",
	"created_at", "updated_at",
}

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txm *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ warehouse.Repository = (*WarehouseRepo)(nil)

// GetByID returns a warehouse or a not-found error.
func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID}).
		Limit(1)

	return r.getOne(ctx, q, warehouseID.String())
}

// GetDefault returns the branch's default warehouse, nil when none is set.
func (r *WarehouseRepo) GetDefault(ctx context.Context, branchID id.ID) (*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"branch_id": branchID, "is_default": true}).
		Limit(1)

	return r.getOptional(ctx, q)
}

// FirstActiveInBranch returns any active warehouse in the branch, nil when
// none exists. Ordering by code keeps the pick deterministic.
func (r *WarehouseRepo) FirstActiveInBranch(ctx context.Context, branchID id.ID) (*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"branch_id": branchID, "is_active": true}).
		OrderBy("code").
		Limit(1)

	return r.getOptional(ctx, q)
}

// FirstActiveAny returns any active warehouse system-wide, nil when none
// exists.
func (r *WarehouseRepo) FirstActiveAny(ctx context.Context) (*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("code").
		Limit(1)

	return r.getOptional(ctx, q)
}

func (r *WarehouseRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*warehouse.Warehouse, error) {
	wh, err := r.getOptional(ctx, q)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, apperror.NewNotFound("warehouse", key)
	}
	return wh, nil
}

func (r *WarehouseRepo) getOptional(ctx context.Context, q squirrel.SelectBuilder) (*warehouse.Warehouse, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var wh warehouse.Warehouse
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &wh, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &wh, nil
}
