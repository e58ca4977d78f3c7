// Package store persists the last accepted feed payload so a restarted
// monitor repaints the board before the first live message arrives.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrNoSnapshot indicates the cache holds no payload.
var ErrNoSnapshot = errors.New("store: no cached snapshot")

const snapshotKey = "cimon:snapshot"

// Cache is a Redis backed last-writer-wins cell for the raw payload bytes.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	log     *slog.Logger
}

// NewCache connects to Redis and verifies the connection.
func NewCache(addr, password string, db int, ttl time.Duration, log *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Cache{
		client:  client,
		ttl:     ttl,
		timeout: 250 * time.Millisecond,
		log:     log,
	}, nil
}

// Save overwrites the cached payload.
func (c *Cache) Save(ctx context.Context, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Set(ctx, snapshotKey, raw, c.ttl).Err()
}

// Load returns the cached payload, or ErrNoSnapshot when none is stored.
func (c *Cache) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() {
	if err := c.client.Close(); err != nil {
		c.log.Warn("snapshot cache close failed", "error", err)
	}
}
