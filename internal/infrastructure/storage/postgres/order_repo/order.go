// Package order_repo provides the PostgreSQL order repository.
package order_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
	"storesync/internal/domain/orders"
	"storesync/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderLinesTable = "order_lines"
)

var orderColumns = []string{
	"id", "branch_id", "warehouse_id", "customer_id",
	"status", "payment_status", "external_ref",
	"subtotal", "discount", "tax", "shipping", "total", "paid_amount",
	"notes", "order_date", "created_by", "created_at", "updated_at",
}

var lineColumns = []string{
	"id", "order_id", "product_id",
	"quantity", "unit_price", "discount", "total",
}

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ orders.Repository = (*OrderRepo)(nil)

// GetByID returns an order header or a not-found error.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o orders.Order
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// GetByExternalRef returns the branch's order with the external reference,
// nil when none exists.
func (r *OrderRepo) GetByExternalRef(ctx context.Context, branchID id.ID, externalRef string) (*orders.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"branch_id": branchID, "external_ref": externalRef}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o orders.Order
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by external ref: %w", err)
	}
	return &o, nil
}

// GetLines returns an order's lines.
func (r *OrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]orders.Line, error) {
	q := r.builder.Select(lineColumns...).
		From(orderLinesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []orders.Line
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}
	return lines, nil
}

// Create inserts the order header.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	q := r.builder.Insert(ordersTable).
		Columns(orderColumns...).
		Values(
			o.ID, o.BranchID, o.WarehouseID, o.CustomerID,
			o.Status, o.PaymentStatus, o.ExternalRef,
			o.Subtotal, o.Discount, o.Tax, o.Shipping, o.Total, o.PaidAmount,
			o.Notes, o.OrderDate, o.CreatedBy, o.CreatedAt, o.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// SaveLines inserts the order's lines in one statement.
func (r *OrderRepo) SaveLines(ctx context.Context, orderID id.ID, lines []orders.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(orderLinesTable).Columns(lineColumns...)
	for _, l := range lines {
		q = q.Values(l.ID, orderID, l.ProductID, l.Quantity, l.UnitPrice, l.Discount, l.Total)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// UpdateStatus persists a status change.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID id.ID, status orders.Status) error {
	q := r.builder.Update(ordersTable).
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID)
	}
	return nil
}
