package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nibog/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	KeyEvents  = "events:published"
	KeyFAQs    = "faqs:active"
	KeyFooter  = "settings:footer"
	KeyGeneral = "settings:general"
)

func KeyPage(slug string) string {
	return "pages:" + slug
}

// Cache stores JSON-encoded public content.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "nibog:"}
}

// Connect pings addr and returns a Redis cache, or a no-op cache when addr is
// empty or unreachable.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) Cache {
	if addr == "" {
		logrus.Info("REDIS_ADDR not set, content cache disabled")
		return Nop{}
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("redis unreachable, content cache disabled")
		client.Close()
		return Nop{}
	}
	logrus.WithField("addr", addr).Info("connected to redis")
	return NewRedisCache(client, ttl)
}

func (r *RedisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, data, r.ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	return r.client.Del(ctx, full...).Err()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, interface{}) error         { return nil }
func (Nop) Delete(context.Context, ...string) error                { return nil }

// Fetch returns the cached value for key or loads and caches it. Cache errors
// are logged and fall through to load.
func Fetch[T any](ctx context.Context, c Cache, key string, load func() (T, error)) (T, error) {
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	metrics.IncCacheLookup(hit)
	if hit {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return value, nil
}
