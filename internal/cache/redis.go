package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const latestRunKey = "cutman:run:latest"

// RedisCache handles caching and fast state storage
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// StoreLatestRun caches the most recent pipeline run report as JSON.
// Reports expire after a day; a missing report just means no recent run.
func (rc *RedisCache) StoreLatestRun(ctx context.Context, report interface{}) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	return rc.client.Set(ctx, latestRunKey, data, 24*time.Hour).Err()
}

// LatestRun returns the cached run report JSON, or redis.Nil when no run
// has been recorded yet.
func (rc *RedisCache) LatestRun(ctx context.Context) ([]byte, error) {
	data, err := rc.client.Get(ctx, latestRunKey).Bytes()
	if err != nil {
		return nil, err
	}
	return data, nil
}
