package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
)

// redisClient: подмножество *redis.Client, которое нужно кэшу.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisCache хранит результат JSON-строкой под CacheKey.String() с TTL.
type RedisCache struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key assess.CacheKey) (types.AnalysisResult, bool, error) {
	s, err := c.client.Get(ctx, key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return types.AnalysisResult{}, false, nil
	}
	if err != nil {
		return types.AnalysisResult{}, false, err
	}
	var res types.AnalysisResult
	if err := json.Unmarshal([]byte(s), &res); err != nil {
		return types.AnalysisResult{}, false, nil
	}
	return res, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key assess.CacheKey, res types.AnalysisResult) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key.String(), js, c.ttl).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }
