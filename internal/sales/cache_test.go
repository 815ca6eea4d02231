package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheUnderTest(t *testing.T, ttl time.Duration) (*ConfigCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewConfigCache(client, ttl), mr
}

func TestConfigCacheMissLoadsAndStores(t *testing.T) {
	cache, mr := newCacheUnderTest(t, time.Minute)

	loads := 0
	loader := func(ctx context.Context) (Configuration, error) {
		loads++
		return Configuration{ID: 7, Name: "Spinner A", RequestedQuantity: 25}, nil
	}

	cfg, err := cache.Get(context.Background(), 7, loader)
	require.NoError(t, err)
	assert.Equal(t, "Spinner A", cfg.Name)
	assert.Equal(t, 1, loads)
	assert.True(t, mr.Exists("sales:config:7"))

	// Second read served from Redis, not the loader.
	cfg, err = cache.Get(context.Background(), 7, loader)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.RequestedQuantity)
	assert.Equal(t, 1, loads)
}

func TestConfigCacheInvalidate(t *testing.T) {
	cache, mr := newCacheUnderTest(t, time.Minute)

	loads := 0
	loader := func(ctx context.Context) (Configuration, error) {
		loads++
		return Configuration{ID: 3, Name: "Spinner B"}, nil
	}

	_, err := cache.Get(context.Background(), 3, loader)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), 3))
	assert.False(t, mr.Exists("sales:config:3"))

	_, err = cache.Get(context.Background(), 3, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestConfigCacheCorruptEntryFallsThrough(t *testing.T) {
	cache, mr := newCacheUnderTest(t, time.Minute)
	require.NoError(t, mr.Set("sales:config:9", "{not json"))

	cfg, err := cache.Get(context.Background(), 9, func(ctx context.Context) (Configuration, error) {
		return Configuration{ID: 9, Name: "Spinner C"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Spinner C", cfg.Name)
}

func TestConfigCacheLoaderErrorNotCached(t *testing.T) {
	cache, mr := newCacheUnderTest(t, time.Minute)
	sentinel := errors.New("boom")

	_, err := cache.Get(context.Background(), 4, func(ctx context.Context) (Configuration, error) {
		return Configuration{}, sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.False(t, mr.Exists("sales:config:4"))
}

func TestConfigCacheNilClientUsesLoader(t *testing.T) {
	cache := NewConfigCache(nil, time.Minute)
	cfg, err := cache.Get(context.Background(), 1, func(ctx context.Context) (Configuration, error) {
		return Configuration{ID: 1, Name: "direct"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", cfg.Name)
}
