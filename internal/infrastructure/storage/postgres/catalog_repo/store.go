package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
	"storesync/internal/domain/catalogs/store"
	"storesync/internal/infrastructure/storage/postgres"
)

const (
	storesTable   = "stores"
	mappingsTable = "store_product_mappings"
)

var storeColumns = []string{
	"id", "branch_id", "platform", "name",
	"is_active", "webhook_secret", "integration_user_id", "sync_filter",
	"created_at", "updated_at",
}

// StoreRepo implements store.Repository.
type StoreRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStoreRepo creates a new store repository.
func NewStoreRepo(txm *postgres.TxManager) *StoreRepo {
	return &StoreRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ store.Repository = (*StoreRepo)(nil)

// GetByID returns a store or a not-found error.
func (r *StoreRepo) GetByID(ctx context.Context, storeID id.ID) (*store.Store, error) {
	q := r.builder.Select(storeColumns...).
		From(storesTable).
		Where(squirrel.Eq{"id": storeID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var st store.Store
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &st, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("store", storeID)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &st, nil
}

// GetMapping returns the mapping for (store, external id), nil when unmapped.
func (r *StoreRepo) GetMapping(ctx context.Context, storeID id.ID, externalID string) (*store.Mapping, error) {
	q := r.builder.Select("store_id", "external_id", "product_id", "created_at").
		From(mappingsTable).
		Where(squirrel.Eq{"store_id": storeID, "external_id": externalID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m store.Mapping
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	return &m, nil
}

// UpsertMapping creates the mapping or repoints it at a new product.
func (r *StoreRepo) UpsertMapping(ctx context.Context, m *store.Mapping) error {
	q := r.builder.Insert(mappingsTable).
		Columns("store_id", "external_id", "product_id", "created_at").
		Values(m.StoreID, m.ExternalID, m.ProductID, m.CreatedAt).
		Suffix("ON CONFLICT (store_id, external_id) DO UPDATE SET product_id = EXCLUDED.product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}

// DeleteMapping removes a mapping; deleting an absent mapping is a no-op.
func (r *StoreRepo) DeleteMapping(ctx context.Context, storeID id.ID, externalID string) error {
	q := r.builder.Delete(mappingsTable).
		Where(squirrel.Eq{"store_id": storeID, "external_id": externalID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return nil
}
