package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestViewKey(t *testing.T) {
	t.Run("uses the default prefix", func(t *testing.T) {
		c := NewRedisInvoiceViewCacheWithClient(redis.NewClient(&redis.Options{}), "")
		key := c.ViewKey("tenant-1", "invoice-2")
		assert.Equal(t, "invoicing:view:tenant-1:invoice-2", key)
	})

	t.Run("honors a custom prefix", func(t *testing.T) {
		c := NewRedisInvoiceViewCacheWithClient(redis.NewClient(&redis.Options{}), "test:")
		key := c.ViewKey("tenant-1", "invoice-2")
		assert.Equal(t, "test:tenant-1:invoice-2", key)
	})
}
