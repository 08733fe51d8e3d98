package easemob_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := easemob.NewMemoryCache(10)

	require.NoError(t, cache.Set(ctx, "AuthToken", &easemob.CacheEntry{
		Data:      []byte("token-1"),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	entry, err := cache.Get(ctx, "AuthToken")
	require.NoError(t, err)
	assert.Equal(t, []byte("token-1"), entry.Data)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.True(t, cache.Has(ctx, "AuthToken"))

	_, err = cache.Get(ctx, "missing")
	require.ErrorIs(t, err, easemob.ErrCacheKeyNotFound)
	assert.False(t, cache.Has(ctx, "missing"))

	require.ErrorIs(t, cache.Set(ctx, "nil", nil), easemob.ErrNilCacheEntry)
}

func TestMemoryCache_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := easemob.NewMemoryCache(10)

	require.NoError(t, cache.Set(ctx, "stale", &easemob.CacheEntry{
		Data:      []byte("old"),
		ExpiresAt: time.Now().Add(-time.Second),
	}))
	require.NoError(t, cache.Set(ctx, "forever", &easemob.CacheEntry{Data: []byte("kept")}))

	assert.False(t, cache.Has(ctx, "stale"))

	_, err := cache.Get(ctx, "stale")
	require.ErrorIs(t, err, easemob.ErrCacheExpired)

	// the expired entry was dropped by Get
	_, err = cache.Get(ctx, "stale")
	require.ErrorIs(t, err, easemob.ErrCacheKeyNotFound)

	entry, err := cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), entry.Data)
}

func TestMemoryCache_Cleanup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := easemob.NewMemoryCache(10)

	require.NoError(t, cache.Set(ctx, "a", &easemob.CacheEntry{ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, cache.Set(ctx, "b", &easemob.CacheEntry{ExpiresAt: time.Now().Add(time.Minute)}))

	cache.Cleanup()

	_, err := cache.Get(ctx, "a")
	require.ErrorIs(t, err, easemob.ErrCacheKeyNotFound)
	assert.True(t, cache.Has(ctx, "b"))
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := easemob.NewMemoryCache(2)
	base := time.Now()

	require.NoError(t, cache.Set(ctx, "first", &easemob.CacheEntry{CreatedAt: base}))
	require.NoError(t, cache.Set(ctx, "second", &easemob.CacheEntry{CreatedAt: base.Add(time.Second)}))

	// overwriting an existing key never evicts
	require.NoError(t, cache.Set(ctx, "second", &easemob.CacheEntry{CreatedAt: base.Add(2 * time.Second)}))
	assert.True(t, cache.Has(ctx, "first"))

	require.NoError(t, cache.Set(ctx, "third", &easemob.CacheEntry{CreatedAt: base.Add(3 * time.Second)}))

	assert.False(t, cache.Has(ctx, "first"))
	assert.True(t, cache.Has(ctx, "second"))
	assert.True(t, cache.Has(ctx, "third"))
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := easemob.NewMemoryCache(0)

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, key, &easemob.CacheEntry{Data: []byte(key)}))
	}

	require.NoError(t, cache.Delete(ctx, "a"))
	assert.False(t, cache.Has(ctx, "a"))
	assert.True(t, cache.Has(ctx, "b"))

	require.NoError(t, cache.Clear(ctx))
	assert.False(t, cache.Has(ctx, "b"))
	assert.False(t, cache.Has(ctx, "c"))
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := easemob.NewMemoryCache(10)
	entry := &easemob.CacheEntry{Data: []byte("v1")}

	require.NoError(t, cache.Set(ctx, "key", entry))
	entry.ExpiresAt = time.Now().Add(-time.Hour)

	got, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	got.ExpiresAt = time.Now().Add(-time.Hour)

	assert.True(t, cache.Has(ctx, "key"))
}

func TestMemoryCache_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := easemob.NewMemoryCache(50)

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			key := string(rune('a' + i))
			_ = cache.Set(ctx, key, &easemob.CacheEntry{Data: []byte(key)})
			_, _ = cache.Get(ctx, key)
			_ = cache.Has(ctx, key)
		}(i)
	}

	wg.Wait()

	for i := range 20 {
		assert.True(t, cache.Has(ctx, string(rune('a'+i))))
	}
}

type failingCache struct {
	*easemob.NoOpCache
}

var errBackendDown = errors.New("backend down")

func newFailingCache() failingCache {
	return failingCache{NoOpCache: easemob.NewNoOpCache()}
}

func (failingCache) Set(context.Context, string, *easemob.CacheEntry) error {
	return errBackendDown
}

func TestCacheManager(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := easemob.NewCacheManager(easemob.NewMemoryCache(10), &easemob.CacheOptions{TTL: time.Hour})

	_, err := manager.Get(ctx, "AuthToken")
	require.ErrorIs(t, err, easemob.ErrCacheKeyNotFound)

	require.NoError(t, manager.Set(ctx, "AuthToken", []byte("secret"), 0))

	data, err := manager.Get(ctx, "AuthToken")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), data)

	// a non-positive ttl falls back to the default
	require.NoError(t, manager.Set(ctx, "short", []byte("x"), -time.Second))

	require.NoError(t, manager.Delete(ctx, "AuthToken"))

	_, err = manager.Get(ctx, "AuthToken")
	require.Error(t, err)

	stats := manager.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
	assert.Equal(t, int64(0), stats.Errors)
	assert.InDelta(t, 1.0/3.0, stats.GetHitRate(), 0.0001)
}

func TestCacheManager_TTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := easemob.NewCacheManager(easemob.NewMemoryCache(10), nil)

	require.NoError(t, manager.Set(ctx, "expiring", []byte("x"), time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, err := manager.Get(ctx, "expiring")
	require.ErrorIs(t, err, easemob.ErrCacheExpired)
}

func TestCacheManager_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	manager := easemob.NewCacheManager(newFailingCache(), nil)
	require.ErrorIs(t, manager.Set(ctx, "key", []byte("x"), time.Minute), errBackendDown)
	assert.Equal(t, int64(1), manager.GetStats().Errors)

	disabled := easemob.NewCacheManager(nil, nil)
	require.NoError(t, disabled.Set(ctx, "key", []byte("x"), time.Minute))

	_, err := disabled.Get(ctx, "key")
	require.ErrorIs(t, err, easemob.ErrCacheDisabled)
	assert.InDelta(t, 0.0, (&easemob.CacheStats{}).GetHitRate(), 0)
}
