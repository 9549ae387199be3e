package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultSettingsTTL bounds how stale a cached settings row may get. Store
// settings change rarely (tax mode flips are an admin action), so a short
// TTL is enough; there is no explicit invalidation path.
const DefaultSettingsTTL = 5 * time.Minute

// SettingsCache wraps a catalog.SettingsProvider with a Redis read-through
// cache. Cache failures are soft: a Redis outage degrades to the inner
// provider, never to a request failure.
type SettingsCache struct {
	inner     catalog.SettingsProvider
	client    *redis.Client
	subdomain string
	ttl       time.Duration
	log       *zap.Logger
}

// NewSettingsCache creates a read-through settings cache for one tenant.
func NewSettingsCache(inner catalog.SettingsProvider, client *redis.Client, subdomain string, log *zap.Logger) *SettingsCache {
	return &SettingsCache{
		inner:     inner,
		client:    client,
		subdomain: subdomain,
		ttl:       DefaultSettingsTTL,
		log:       log,
	}
}

func (c *SettingsCache) key() string {
	return fmt.Sprintf("pos:settings:%s", c.subdomain)
}

// Get implements catalog.SettingsProvider.
func (c *SettingsCache) Get(ctx context.Context) (*catalog.StoreSettings, error) {
	if raw, err := c.client.Get(ctx, c.key()).Bytes(); err == nil {
		var settings catalog.StoreSettings
		if err := json.Unmarshal(raw, &settings); err == nil {
			return &settings, nil
		}
		// Corrupt entry: drop it and reload from the source.
		c.client.Del(ctx, c.key())
	} else if err != redis.Nil {
		c.log.Warn("settings cache read failed", zap.String("subdomain", c.subdomain), zap.Error(err))
	}

	settings, err := c.inner.Get(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(settings); err == nil {
		if err := c.client.Set(ctx, c.key(), raw, c.ttl).Err(); err != nil {
			c.log.Warn("settings cache write failed", zap.String("subdomain", c.subdomain), zap.Error(err))
		}
	}
	return settings, nil
}

// Invalidate drops the cached row, forcing the next read through to the
// database.
func (c *SettingsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key()).Err()
}
