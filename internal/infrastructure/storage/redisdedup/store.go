// Package redisdedup provides a Redis-backed webhook delivery dedup store.
// SETNX with a TTL gives the atomic insert-if-absent the dedup contract
// requires, with expiry handled by Redis itself.
package redisdedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storesync/internal/core/id"
	"storesync/internal/domain/webhooks"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store implements webhooks.DeliveryStore on Redis.
type Store struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

var _ webhooks.DeliveryStore = (*Store)(nil)

// Reserve records (store, delivery) as seen. Returns true when the key was
// absent and is now set.
func (s *Store) Reserve(ctx context.Context, storeID id.ID, deliveryID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("webhook:delivery:%s:%s", storeID, deliveryID)
	ok, err := s.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve delivery: %w", err)
	}
	return ok, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
