// Package cache keeps short-lived copies of catalog reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const categoriesKey = "equiplend:equipment:categories"

// RedisCategoryCache stores the distinct category list in Redis
type RedisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCategoryCache connects to redisURL and verifies the connection
func NewRedisCategoryCache(redisURL string, ttl time.Duration) (*RedisCategoryCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCategoryCache{client: client, ttl: ttl}, nil
}

// NewRedisCategoryCacheFromClient wraps an existing client
func NewRedisCategoryCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCategoryCache {
	return &RedisCategoryCache{client: client, ttl: ttl}
}

// Get returns the cached list; ok is false on a miss
func (c *RedisCategoryCache) Get(ctx context.Context) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, categoriesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var categories []string
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false, err
	}
	return categories, true, nil
}

// Set stores the list for the configured TTL
func (c *RedisCategoryCache) Set(ctx context.Context, categories []string) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoriesKey, raw, c.ttl).Err()
}

// Invalidate drops the cached list
func (c *RedisCategoryCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, categoriesKey).Err()
}

// Ping checks the connection
func (c *RedisCategoryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCategoryCache) Close() error {
	return c.client.Close()
}

// NoopCategoryCache never hits
type NoopCategoryCache struct{}

func (NoopCategoryCache) Get(context.Context) ([]string, bool, error) { return nil, false, nil }
func (NoopCategoryCache) Set(context.Context, []string) error { return nil }
func (NoopCategoryCache) Invalidate(context.Context) error { return nil }
