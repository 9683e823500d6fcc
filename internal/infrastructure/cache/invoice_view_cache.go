// Package cache provides the Redis-backed invalidation used to keep
// externally cached invoice views consistent with the ledger.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appinvoicing "github.com/vetclinic/backend/internal/application/invoicing"
)

// invalidationChannel carries invoice IDs whose cached views became stale.
// Other processes (report workers, the portal frontend cache) subscribe to it.
const invalidationChannel = "invoicing:invalidations"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisInvoiceViewCache invalidates cached invoice views in Redis.
// Every mutation of an invoice deletes its cached view key and publishes
// the invoice ID so subscribers can drop their own copies.
type RedisInvoiceViewCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisInvoiceViewCache creates a cache invalidator with its own Redis client
func NewRedisInvoiceViewCache(cfg RedisConfig) (*RedisInvoiceViewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisInvoiceViewCache{
		client:    client,
		keyPrefix: "invoicing:view:",
	}, nil
}

// NewRedisInvoiceViewCacheWithClient creates an invalidator with an existing Redis client.
// This is useful for testing or when sharing a client across components
func NewRedisInvoiceViewCacheWithClient(client *redis.Client, keyPrefix string) *RedisInvoiceViewCache {
	if keyPrefix == "" {
		keyPrefix = "invoicing:view:"
	}
	return &RedisInvoiceViewCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// ViewKey returns the cache key for one invoice's rendered view
func (c *RedisInvoiceViewCache) ViewKey(tenantID, invoiceID string) string {
	return c.keyPrefix + tenantID + ":" + invoiceID
}

// InvalidateInvoice drops the cached view of an invoice and announces the change
func (c *RedisInvoiceViewCache) InvalidateInvoice(ctx context.Context, tenantID, invoiceID string) error {
	key := c.ViewKey(tenantID, invoiceID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate invoice view: %w", err)
	}
	if err := c.client.Publish(ctx, invalidationChannel, key).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisInvoiceViewCache) Close() error {
	return c.client.Close()
}

var _ appinvoicing.ViewInvalidator = (*RedisInvoiceViewCache)(nil)
