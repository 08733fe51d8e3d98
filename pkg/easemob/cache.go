package easemob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fivetwenty-io/easemob/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrCacheKeyNotFound = errors.New("key not found")
	ErrCacheExpired     = errors.New("entry expired")
	ErrNilCacheEntry    = errors.New("cache entry is nil")
)

// Cache is the credential store shared by all clients. Implementations must
// be safe for concurrent use; Set overwrites atomically.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is one stored value.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the entry is past its expiry. A zero ExpiresAt
// never expires.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// CacheOptions are common options applied to any backend.
type CacheOptions struct {
	// TTL is used when a caller stores an entry without a TTL.
	TTL time.Duration
	// MaxSize bounds in-memory backends.
	MaxSize int
}

// DefaultCacheOptions returns default cache options.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		TTL:     time.Hour,
		MaxSize: constants.DefaultCacheSize,
	}
}

// MemoryCache is an in-process Cache bounded by MaxSize.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	maxSize int
	now     func() time.Time
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the entry stored under key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
	}

	if entry.Expired(c.now()) {
		c.mu.Lock()
		if c.entries[key] == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrCacheExpired, key)
	}

	copied := *entry

	return &copied, nil
}

// Set stores entry under key, evicting the oldest entry when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if entry == nil {
		return ErrNilCacheEntry
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	copied := *entry
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = c.now()
	}

	c.entries[key] = &copied

	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mu.Unlock()

	return nil
}

// Has reports whether an unexpired entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]

	return ok && !entry.Expired(c.now())
}

// Cleanup drops expired entries.
func (c *MemoryCache) Cleanup() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache) evictLocked() {
	var (
		victim string
		oldest time.Time
	)

	for key, entry := range c.entries {
		if victim == "" || entry.CreatedAt.Before(oldest) {
			victim = key
			oldest = entry.CreatedAt
		}
	}

	delete(c.entries, victim)
}

// CacheStats counts cache traffic seen through a CacheManager.
type CacheStats struct {
	Hits   int64 `json:"hits"   yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`
	Sets   int64 `json:"sets"   yaml:"sets"`
	Errors int64 `json:"errors" yaml:"errors"`
}

// GetHitRate returns hits / (hits + misses).
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheManager gives callers get/set-with-TTL semantics over a Cache.
type CacheManager struct {
	cache   Cache
	options *CacheOptions
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	failed atomic.Int64
}

// NewCacheManager creates a manager; a nil cache disables caching.
func NewCacheManager(cache Cache, options *CacheOptions) *CacheManager {
	if cache == nil {
		cache = NewNoOpCache()
	}

	if options == nil {
		options = DefaultCacheOptions()
	}

	return &CacheManager{
		cache:   cache,
		options: options,
		now:     time.Now,
	}
}

// Get returns the bytes stored under key.
func (m *CacheManager) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		m.misses.Add(1)

		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}

	m.hits.Add(1)

	return entry.Data, nil
}

// Set stores data under key for ttl; a non-positive ttl uses the default TTL.
func (m *CacheManager) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.options.TTL
	}

	now := m.now()

	err := m.cache.Set(ctx, key, &CacheEntry{
		Data:      data,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		m.failed.Add(1)

		return fmt.Errorf("cache set %s: %w", key, err)
	}

	m.sets.Add(1)

	return nil
}

// Delete removes key.
func (m *CacheManager) Delete(ctx context.Context, key string) error {
	err := m.cache.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}

	return nil
}

// GetStats returns a snapshot of the counters.
func (m *CacheManager) GetStats() *CacheStats {
	return &CacheStats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Sets:   m.sets.Load(),
		Errors: m.failed.Load(),
	}
}
