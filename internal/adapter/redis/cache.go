// Package redis caches building footprint lookups in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/observability"
)

// kv is the subset of *redis.Client used by the cache.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// FootprintCache wraps a FootprintFinder. Footprints change rarely, so
// non-empty results are kept for the configured TTL. Redis failures degrade
// to a direct lookup.
type FootprintCache struct {
	inner   domain.FootprintFinder
	store   kv
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewFootprintCache(inner domain.FootprintFinder, store kv, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *FootprintCache {
	return &FootprintCache{inner: inner, store: store, ttl: ttl, metrics: metrics, logger: logger}
}

func (c *FootprintCache) FindBuildings(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.Footprint, error) {
	key := cacheKey(lat, lon, radiusMeters)

	data, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []domain.Footprint
		if err := json.Unmarshal(data, &cached); err == nil {
			c.metrics.FootprintCache.WithLabelValues("hit").Inc()
			return cached, nil
		}
		c.logger.Warn("discarding corrupt footprint cache entry", "key", key)
		c.metrics.FootprintCache.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		c.metrics.FootprintCache.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("footprint cache read failed", "key", key, "error", err)
		c.metrics.FootprintCache.WithLabelValues("error").Inc()
	}

	footprints, err := c.inner.FindBuildings(ctx, lat, lon, radiusMeters)
	if err != nil || len(footprints) == 0 {
		return footprints, err
	}

	if payload, err := json.Marshal(footprints); err == nil {
		if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("footprint cache write failed", "key", key, "error", err)
		}
	}
	return footprints, nil
}

// cacheKey rounds to five decimal places (about one metre).
func cacheKey(lat, lon, radiusMeters float64) string {
	return fmt.Sprintf("footprint:%.5f,%.5f:%.0f", lat, lon, radiusMeters)
}
