// Package webhook_repo provides PostgreSQL-backed webhook delivery dedup and
// payload archiving.
package webhook_repo

import (
	"context"
	"fmt"
	"time"

	"storesync/internal/core/id"
	"storesync/internal/domain/webhooks"
	"storesync/internal/infrastructure/storage/postgres"
)

// DeliveryRepo records seen webhook deliveries. The single INSERT with
// ON CONFLICT DO NOTHING is the atomic insert-if-absent the dedup contract
// requires; a read-then-write pair would let two concurrent duplicates both
// pass.
type DeliveryRepo struct {
	txm *postgres.TxManager
}

// NewDeliveryRepo creates a new delivery dedup repository.
func NewDeliveryRepo(txm *postgres.TxManager) *DeliveryRepo {
	return &DeliveryRepo{txm: txm}
}

var _ webhooks.DeliveryStore = (*DeliveryRepo)(nil)

// Reserve atomically records (store, delivery) as seen. Returns true when the
// pair was absent. Expired rows count as absent and are reclaimed in place.
func (r *DeliveryRepo) Reserve(ctx context.Context, storeID id.ID, deliveryID string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	sql := `
		INSERT INTO webhook_deliveries (store_id, delivery_id, received_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (store_id, delivery_id) DO UPDATE
			SET received_at = EXCLUDED.received_at,
			    expires_at  = EXCLUDED.expires_at
			WHERE webhook_deliveries.expires_at <= EXCLUDED.received_at
	`

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, storeID, deliveryID, now, now.Add(ttl))
	if err != nil {
		return false, fmt.Errorf("reserve delivery: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeExpired removes reservations past their expiry. Intended for a
// periodic maintenance call; correctness never depends on it running.
func (r *DeliveryRepo) PurgeExpired(ctx context.Context) (int64, error) {
	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, `DELETE FROM webhook_deliveries WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge deliveries: %w", err)
	}
	return tag.RowsAffected(), nil
}
