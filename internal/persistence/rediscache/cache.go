// Package rediscache is the latest-snapshot-per-symbol hot cache the REST
// facade reads from. The scheduler populates it alongside Postgres
// persistence on every tick; a cache miss or Redis outage is not fatal —
// callers fall back to the SnapshotRepo directly. Built on go-redis/v8 so
// the client under test and the redismock double speak the same protocol
// version.
package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache wraps a redis client scoped to one key prefix.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New builds a Cache against the given redis address.
func New(addr string, db int, ttl time.Duration) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		ttl:    ttl,
	}
}

// NewWithClient wraps an already-constructed client, used by tests to
// inject a redismock double.
func NewWithClient(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func key(symbol string) string { return fmt.Sprintf("marketfield:snapshot:%s", symbol) }

// SetLatest stores the JSON-encoded Snapshot payload for symbol, expiring
// after the configured TTL so a dead scheduler doesn't serve stale data
// forever.
func (c *Cache) SetLatest(ctx context.Context, symbol string, payload []byte) error {
	if err := c.client.Set(ctx, key(symbol), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", symbol, err)
	}
	return nil
}

// GetLatest returns the cached payload for symbol, or (nil, nil) on a
// cache miss — a miss is not an error, it just means the caller should
// fall back to the SnapshotRepo.
func (c *Cache) GetLatest(ctx context.Context, symbol string) ([]byte, error) {
	val, err := c.client.Get(ctx, key(symbol)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get %s: %w", symbol, err)
	}
	return val, nil
}

// Close releases the underlying connection pool, when backed by a real
// client.
func (c *Cache) Close() error {
	if closer, ok := c.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
