// Package ledger_repo provides the PostgreSQL stock movement ledger.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"storesync/internal/core/id"
	"storesync/internal/core/types"
	"storesync/internal/domain/ledger"
	"storesync/internal/infrastructure/storage/postgres"
)

const (
	movementsTable  = "stock_movements"
	warehousesTable = "warehouses"
)

var movementColumns = []string{
	"id", "product_id", "warehouse_id", "quantity",
	"movement_type", "reference_type", "reference_id",
	"unit_cost", "note", "created_by", "created_at",
}

// LedgerRepo implements ledger.Repository. The movements table is append-only:
// this repository exposes no update or delete.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// Insert appends one movement.
func (r *LedgerRepo) Insert(ctx context.Context, m *ledger.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.ProductID, m.WarehouseID, m.Quantity,
			m.Type, m.ReferenceType, m.ReferenceID,
			m.UnitCost, m.Note, m.CreatedBy, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// SumQuantities returns the signed quantity sum for a product. COALESCE keeps
// the no-rows case a plain zero.
func (r *LedgerRepo) SumQuantities(ctx context.Context, productID id.ID, f ledger.BalanceFilter) (types.Quantity, error) {
	q := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if f.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *f.WarehouseID})
	}
	if f.BranchID != nil {
		q = q.Where(squirrel.Expr(
			"warehouse_id IN (SELECT id FROM "+warehousesTable+" WHERE branch_id = ?)",
			*f.BranchID,
		))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build query: %w", err)
	}

	var total decimal.Decimal
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum quantities: %w", err)
	}
	return total, nil
}

// History returns movements for a product, newest first.
func (r *LedgerRepo) History(ctx context.Context, productID id.ID, f ledger.MovementFilter) ([]ledger.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at DESC", "id DESC")

	if f.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *f.WarehouseID})
	}
	if f.Type != nil {
		q = q.Where(squirrel.Eq{"movement_type": *f.Type})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.ToDate})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}
