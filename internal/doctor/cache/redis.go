package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"medix/internal/doctor/models"
)

var redisCacheDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "medix_doctor_cache_redis_duration_ms",
	Help:    "Latency of doctor list cache operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
}, []string{"op"})

const (
	// Redis key prefix for list snapshots
	keyPrefix = "medix:doctors:"
	// versionKey is bumped on invalidation so stale snapshots are never read
	versionKey = keyPrefix + "version"
)

// RedisCache shares the directory snapshot between instances.
// Invalidation increments a version counter that is part of every key;
// old snapshots expire on their own TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.Doctor, bool, error) {
	defer observe("get", time.Now())

	fullKey, err := c.versionedKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get doctor snapshot: %w", err)
	}
	var doctors []models.Doctor
	if err := json.Unmarshal(raw, &doctors); err != nil {
		return nil, false, fmt.Errorf("decode doctor snapshot: %w", err)
	}
	return doctors, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, doctors []models.Doctor) error {
	defer observe("set", time.Now())

	fullKey, err := c.versionedKey(ctx, key)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doctors)
	if err != nil {
		return fmt.Errorf("encode doctor snapshot: %w", err)
	}
	return c.client.Set(ctx, fullKey, payload, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	defer observe("invalidate", time.Now())
	return c.client.Incr(ctx, versionKey).Err()
}

func (c *RedisCache) versionedKey(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		v = 0
	} else if err != nil {
		return "", fmt.Errorf("read cache version: %w", err)
	}
	return keyPrefix + "v" + strconv.FormatInt(v, 10) + ":" + key, nil
}

func observe(op string, start time.Time) {
	redisCacheDuration.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
