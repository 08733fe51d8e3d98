package easemob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/easemob/internal/constants"
)

// LocalCacheConfig configures the process-local tier of a shared cache.
type LocalCacheConfig struct {
	// MaxSize bounds the number of local entries.
	MaxSize int `mapstructure:"max_size"`

	// TTL caps how long a local copy is served without consulting the
	// shared backend. Defaults to one minute.
	TTL time.Duration `mapstructure:"ttl"`
}

// TieredCache serves reads from a MemoryCache and falls back to a shared
// backend such as NATS KV or Redis. Local copies expire at the earlier of the
// entry's own expiry and TTL, so a credential rotated by another process is
// picked up within TTL.
type TieredCache struct {
	local  *MemoryCache
	shared Cache
	ttl    time.Duration
	now    func() time.Time
}

// NewTieredCache puts a local tier described by config in front of shared.
func NewTieredCache(shared Cache, config *LocalCacheConfig) *TieredCache {
	cfg := LocalCacheConfig{}
	if config != nil {
		cfg = *config
	}

	if cfg.TTL <= 0 {
		cfg.TTL = constants.DefaultLocalCacheTTL
	}

	return &TieredCache{
		local:  NewMemoryCache(cfg.MaxSize),
		shared: shared,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

// Get returns the local copy when present, otherwise the shared entry, which
// is then kept locally.
func (c *TieredCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	entry, err := c.local.Get(ctx, key)
	if err == nil {
		return entry, nil
	}

	entry, err = c.shared.Get(ctx, key)
	if err != nil {
		return nil, err //nolint:wrapcheck // backend errors keep their sentinels
	}

	_ = c.local.Set(ctx, key, c.localCopy(entry))

	return entry, nil
}

// Set writes the shared backend and the local tier. The local copy is kept
// even when the shared write fails.
func (c *TieredCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if entry == nil {
		return ErrNilCacheEntry
	}

	sharedErr := c.shared.Set(ctx, key, entry)
	if sharedErr != nil {
		sharedErr = fmt.Errorf("shared tier: %w", sharedErr)
	}

	return errors.Join(sharedErr, c.local.Set(ctx, key, c.localCopy(entry)))
}

// Delete removes key from both tiers.
func (c *TieredCache) Delete(ctx context.Context, key string) error {
	localErr := c.local.Delete(ctx, key)

	sharedErr := c.shared.Delete(ctx, key)
	if sharedErr != nil {
		sharedErr = fmt.Errorf("shared tier: %w", sharedErr)
	}

	return errors.Join(localErr, sharedErr)
}

// Clear empties both tiers.
func (c *TieredCache) Clear(ctx context.Context) error {
	localErr := c.local.Clear(ctx)

	sharedErr := c.shared.Clear(ctx)
	if sharedErr != nil {
		sharedErr = fmt.Errorf("shared tier: %w", sharedErr)
	}

	return errors.Join(localErr, sharedErr)
}

// Has reports whether either tier holds key.
func (c *TieredCache) Has(ctx context.Context, key string) bool {
	return c.local.Has(ctx, key) || c.shared.Has(ctx, key)
}

// Close closes the shared backend when it holds a connection.
func (c *TieredCache) Close() error {
	closer, ok := c.shared.(interface{ Close() error })
	if !ok {
		return nil
	}

	return closer.Close() //nolint:wrapcheck // backend close errors are returned as is
}

func (c *TieredCache) localCopy(entry *CacheEntry) *CacheEntry {
	local := *entry

	limit := c.now().Add(c.ttl)
	if local.ExpiresAt.IsZero() || local.ExpiresAt.After(limit) {
		local.ExpiresAt = limit
	}

	return &local
}
