package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
)

// DefaultGuardKeyPrefix namespaces adjustment guard keys in Redis
const DefaultGuardKeyPrefix = "inventory:adjustment:applied:"

// RedisAdjustmentGuard implements AdjustmentGuard using Redis.
// This is suitable for deployments where several reconciler instances share a backend.
// Each applied key is a plain string key with no TTL; an index set per order
// supports ClearOrder.
type RedisAdjustmentGuard struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisAdjustmentGuard creates a new Redis-based adjustment guard
func NewRedisAdjustmentGuard(cfg RedisConfig) (*RedisAdjustmentGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAdjustmentGuardWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisAdjustmentGuardWithClient creates a guard with an existing Redis client
func NewRedisAdjustmentGuardWithClient(client *redis.Client, keyPrefix string) *RedisAdjustmentGuard {
	if keyPrefix == "" {
		keyPrefix = DefaultGuardKeyPrefix
	}
	return &RedisAdjustmentGuard{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (g *RedisAdjustmentGuard) key(k inventory.AdjustmentKey) string {
	return g.keyPrefix + k.String()
}

func (g *RedisAdjustmentGuard) orderIndex(orderID string) string {
	return g.keyPrefix + "order:" + orderID
}

// ShouldApply reports whether the key has not been applied yet
func (g *RedisAdjustmentGuard) ShouldApply(ctx context.Context, key inventory.AdjustmentKey) (bool, error) {
	exists, err := g.client.Exists(ctx, g.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check adjustment key: %w", err)
	}
	return exists == 0, nil
}

// MarkApplied records the keys as applied in one pipeline
func (g *RedisAdjustmentGuard) MarkApplied(ctx context.Context, keys ...inventory.AdjustmentKey) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			full := g.key(k)
			pipe.Set(ctx, full, "1", 0)
			pipe.SAdd(ctx, g.orderIndex(k.OrderID), full)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark adjustments applied: %w", err)
	}
	return nil
}

// ClearOrder forgets every key recorded for the order
func (g *RedisAdjustmentGuard) ClearOrder(ctx context.Context, orderID string) error {
	index := g.orderIndex(orderID)
	members, err := g.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("failed to read order index: %w", err)
	}

	if err := g.client.Del(ctx, append(members, index)...).Err(); err != nil {
		return fmt.Errorf("failed to clear order adjustments: %w", err)
	}
	return nil
}

// Clear forgets every key under the guard prefix
func (g *RedisAdjustmentGuard) Clear(ctx context.Context) error {
	iter := g.client.Scan(ctx, 0, g.keyPrefix+"*", 500).Iterator()
	batch := make([]string, 0, 500)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := g.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to clear adjustments: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan adjustments: %w", err)
	}
	if len(batch) > 0 {
		if err := g.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to clear adjustments: %w", err)
		}
	}
	return nil
}

// Close closes the Redis client
func (g *RedisAdjustmentGuard) Close() error {
	return g.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (g *RedisAdjustmentGuard) GetClient() *redis.Client {
	return g.client
}

// Ensure RedisAdjustmentGuard implements AdjustmentGuard
var _ inventory.AdjustmentGuard = (*RedisAdjustmentGuard)(nil)
