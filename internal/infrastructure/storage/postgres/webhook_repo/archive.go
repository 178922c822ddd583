package webhook_repo

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"storesync/internal/core/id"
	"storesync/internal/domain/webhooks"
	"storesync/internal/infrastructure/storage/postgres"
)

// CompressionAlgo specifies how an archived payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// compressThreshold is the payload size above which zstd kicks in. Small
// payloads are stored as-is; compressing them costs more than it saves.
const compressThreshold = 10 * 1024

// ArchiveRepo stores raw webhook payloads for replay and audit, compressing
// large bodies with zstd.
type ArchiveRepo struct {
	txm     *postgres.TxManager
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewArchiveRepo creates a new archive repository.
func NewArchiveRepo(txm *postgres.TxManager) (*ArchiveRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &ArchiveRepo{txm: txm, encoder: encoder, decoder: decoder}, nil
}

var _ webhooks.Archiver = (*ArchiveRepo)(nil)

// Archive persists one delivery record.
func (r *ArchiveRepo) Archive(ctx context.Context, rec webhooks.ArchiveRecord) error {
	payload := rec.Payload
	algo := CompressionNone
	if len(payload) > compressThreshold {
		payload = r.encoder.EncodeAll(payload, nil)
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO webhook_archive (
			id, store_id, delivery_id, topic,
			payload, compression_algo, status, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	querier := r.txm.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		id.New(), rec.StoreID, rec.DeliveryID, rec.Topic,
		payload, algo, rec.Status, rec.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("archive delivery: %w", err)
	}
	return nil
}

// Payload returns the archived body of one delivery, decompressed.
func (r *ArchiveRepo) Payload(ctx context.Context, storeID id.ID, deliveryID string) ([]byte, error) {
	sql := `
		SELECT payload, compression_algo
		FROM webhook_archive
		WHERE store_id = $1 AND delivery_id = $2
		ORDER BY received_at DESC
		LIMIT 1
	`

	var payload []byte
	var algo CompressionAlgo
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, storeID, deliveryID).Scan(&payload, &algo); err != nil {
		return nil, fmt.Errorf("load archived payload: %w", err)
	}

	if algo == CompressionZstd {
		decoded, err := r.decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		return decoded, nil
	}
	return payload, nil
}
