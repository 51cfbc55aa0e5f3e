package geo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"transferdesk/pkg/domain"
)

// cacheClient is the subset of redis.Cmdable the cache needs.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedRegistry is a read-through Redis cache in front of another Registry.
// Misses are not cached, so a district added to the backing store becomes
// visible immediately. Cache failures degrade to the backing registry.
type CachedRegistry struct {
	next   Registry
	cache  cacheClient
	ttl    time.Duration
	logger *slog.Logger
}

const keyPrefix = "transferdesk:geo:"

func NewCachedRegistry(next Registry, cache cacheClient, ttl time.Duration, logger *slog.Logger) *CachedRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRegistry{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedRegistry) DistrictByCode(ctx context.Context, code string) (District, error) {
	return readThrough(ctx, c, "district:code:"+code, func() (District, error) {
		return c.next.DistrictByCode(ctx, code)
	})
}

func (c *CachedRegistry) DistrictByID(ctx context.Context, id domain.DistrictID) (District, error) {
	return readThrough(ctx, c, "district:id:"+id.String(), func() (District, error) {
		return c.next.DistrictByID(ctx, id)
	})
}

func (c *CachedRegistry) ProvinceByCode(ctx context.Context, code string) (Province, error) {
	return readThrough(ctx, c, "province:code:"+code, func() (Province, error) {
		return c.next.ProvinceByCode(ctx, code)
	})
}

func (c *CachedRegistry) ProvinceByID(ctx context.Context, id domain.ProvinceID) (Province, error) {
	return readThrough(ctx, c, "province:id:"+id.String(), func() (Province, error) {
		return c.next.ProvinceByID(ctx, id)
	})
}

func (c *CachedRegistry) DistrictCodesInProvince(ctx context.Context, id domain.ProvinceID) ([]string, error) {
	return readThrough(ctx, c, "province:districts:"+id.String(), func() ([]string, error) {
		return c.next.DistrictCodesInProvince(ctx, id)
	})
}

func readThrough[T any](ctx context.Context, c *CachedRegistry, key string, load func() (T, error)) (T, error) {
	key = keyPrefix + key

	raw, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			return v, nil
		}
		c.logger.WarnContext(ctx, "geo cache entry corrupt", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "geo cache read failed", "key", key, "error", err)
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if encoded, jsonErr := json.Marshal(v); jsonErr == nil {
		if setErr := c.cache.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.WarnContext(ctx, "geo cache write failed", "key", key, "error", setErr)
		}
	}
	return v, nil
}
