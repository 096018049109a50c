package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopCategoryCache(t *testing.T) {
	var c NoopCategoryCache
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []string{"AV"}))
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(ctx))
}

func TestNewRedisCategoryCache_BadURL(t *testing.T) {
	_, err := NewRedisCategoryCache("not-a-url", time.Minute)
	assert.Error(t, err)
}

func TestRedisCategoryCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	c := NewRedisCategoryCacheFromClient(client, time.Minute)
	t.Cleanup(func() { c.Close() })

	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}
