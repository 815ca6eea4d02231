package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ConfigCache is a Redis read-through cache for sales configurations.
// Concurrent misses for the same id collapse into one repository load.
type ConfigCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewConfigCache instantiates the cache helper. A nil client degrades to
// loader-only behaviour.
func NewConfigCache(client *redis.Client, ttl time.Duration) *ConfigCache {
	return &ConfigCache{client: client, ttl: ttl}
}

func configKey(id int64) string {
	return fmt.Sprintf("sales:config:%d", id)
}

// Get returns the cached configuration or populates it using the loader.
func (c *ConfigCache) Get(ctx context.Context, id int64, loader func(context.Context) (Configuration, error)) (Configuration, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := configKey(id)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cfg Configuration
		if err := json.Unmarshal(payload, &cfg); err == nil {
			return cfg, nil
		}
		// Corrupt entry: drop it and fall through to the loader.
		_ = c.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		return Configuration{}, err
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		cfg, err := loader(ctx)
		if err != nil {
			return Configuration{}, err
		}
		raw, err := json.Marshal(cfg)
		if err != nil {
			return Configuration{}, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return Configuration{}, err
		}
		return cfg, nil
	})
	if err != nil {
		return Configuration{}, err
	}
	return value.(Configuration), nil
}

// Invalidate drops a cached configuration after updates.
func (c *ConfigCache) Invalidate(ctx context.Context, id int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, configKey(id)).Err()
}
