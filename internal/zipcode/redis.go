package zipcode

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "exterminus:zip:"

// RedisCache is a SharedCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache stores entries on client for ttl. A zero ttl keeps them
// without expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get implements SharedCache.
func (r *RedisCache) Get(ctx context.Context, zip string) (string, bool, error) {
	city, err := r.client.Get(ctx, redisKeyPrefix+zip).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return city, true, nil
}

// Set implements SharedCache.
func (r *RedisCache) Set(ctx context.Context, zip, city string) error {
	return r.client.Set(ctx, redisKeyPrefix+zip, city, r.ttl).Err()
}
