package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/worklog/internal/billing/money"
)

const keyPrefix = "tenants:settings:"

// SettingsLoader is the source of truth behind the cache.
type SettingsLoader interface {
	Settings(ctx context.Context, tenantID int64) (Settings, error)
}

// SettingsCache is a Redis read-through cache of tenant settings. Concurrent
// misses for one tenant share a single load. When Redis is unreachable the
// loader is used directly.
type SettingsCache struct {
	client *redis.Client
	loader SettingsLoader
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewSettingsCache wires the cache. A nil client disables caching.
func NewSettingsCache(client *redis.Client, loader SettingsLoader, ttl time.Duration, logger *slog.Logger) *SettingsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsCache{client: client, loader: loader, ttl: ttl, logger: logger}
}

// Settings returns the cached settings of a tenant.
func (c *SettingsCache) Settings(ctx context.Context, tenantID int64) (Settings, error) {
	key := cacheKey(tenantID)
	if c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var settings Settings
			if err := json.Unmarshal(payload, &settings); err == nil {
				return settings, nil
			}
			c.logger.Warn("discarding corrupt tenant settings cache entry", slog.Int64("tenant_id", tenantID))
		case errors.Is(err, redis.Nil):
		default:
			c.logger.Warn("tenant settings cache unavailable", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
			return c.loader.Settings(ctx, tenantID)
		}
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), key, tenantID)
	})
	select {
	case <-ctx.Done():
		return Settings{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Settings{}, res.Err
		}
		return res.Val.(Settings), nil
	}
}

func (c *SettingsCache) load(ctx context.Context, key string, tenantID int64) (Settings, error) {
	settings, err := c.loader.Settings(ctx, tenantID)
	if err != nil {
		return Settings{}, err
	}
	if c.client == nil {
		return settings, nil
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return Settings{}, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("store tenant settings in cache", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
	}
	return settings, nil
}

// RoundingPolicy resolves the tax rounding policy of a tenant.
func (c *SettingsCache) RoundingPolicy(ctx context.Context, tenantID int64) (money.RoundingPolicy, error) {
	settings, err := c.Settings(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return settings.RoundingPolicy.OrDefault(), nil
}

// Invalidate drops the cached settings of a tenant.
func (c *SettingsCache) Invalidate(ctx context.Context, tenantID int64) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(tenantID)).Err()
}

func cacheKey(tenantID int64) string {
	return keyPrefix + strconv.FormatInt(tenantID, 10)
}
