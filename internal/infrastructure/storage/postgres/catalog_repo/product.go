package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
	"storesync/internal/core/types"
	"storesync/internal/domain/catalogs/product"
	"storesync/internal/domain/ledger"
	"storesync/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = []string{
	"id", "branch_id", "sku", "name", "price",
	"quantity_cached", "is_active",
	"created_at", "updated_at",
}

// ProductRepo implements product.Repository and the ledger's ProductStore.
type ProductRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var (
	_ product.Repository  = (*ProductRepo)(nil)
	_ ledger.ProductStore = (*ProductRepo)(nil)
)

// GetByID returns a product or a not-found error.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetRef returns the minimal projection used by ledger operations.
func (r *ProductRepo) GetRef(ctx context.Context, productID id.ID) (ledger.ProductRef, error) {
	q := r.builder.Select("id", "branch_id", "name").
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return ledger.ProductRef{}, fmt.Errorf("build query: %w", err)
	}

	var ref ledger.ProductRef
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &ref, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.ProductRef{}, apperror.NewNotFound("product", productID)
		}
		return ledger.ProductRef{}, fmt.Errorf("get product ref: %w", err)
	}
	return ref, nil
}

// Create inserts a product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.BranchID, p.SKU, p.Name, p.Price,
			p.QuantityCached, p.IsActive,
			p.CreatedAt, p.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update persists catalog fields. The cached quantity is owned by the ledger
// write path and is deliberately not touched here.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productsTable).
		Set("sku", p.SKU).
		Set("name", p.Name).
		Set("price", p.Price).
		Set("is_active", p.IsActive).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID)
	}
	return nil
}

// AdjustCachedQuantity shifts the denormalized on-hand total.
func (r *ProductRepo) AdjustCachedQuantity(ctx context.Context, productID id.ID, delta types.Quantity) error {
	q := r.builder.Update(productsTable).
		Set("quantity_cached", squirrel.Expr("quantity_cached + ?", delta)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust cached quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}
