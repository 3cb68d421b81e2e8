package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// erroringRedis fails every command, simulating a down backend.
type erroringRedis struct{}

func (e *erroringRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetErr(assert.AnError)
	return cmd
}

func (e *erroringRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetErr(assert.AnError)
	return cmd
}

func (e *erroringRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	cmd.SetErr(assert.AnError)
	return cmd
}

func (e *erroringRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetErr(assert.AnError)
	return cmd
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	cache := NewCacheService(newMemoryRedis(), time.Hour, nil)
	ctx := context.Background()

	type payload struct {
		Name  string   `json:"name"`
		Score float64  `json:"score"`
		Tags  []string `json:"tags"`
	}
	in := payload{Name: "witcher", Score: 0.97, Tags: []string{"fantasy", "magic"}}

	require.True(t, cache.Set(ctx, "game:1", in, 0))

	var out payload
	require.True(t, cache.Get(ctx, "game:1", &out))
	assert.Equal(t, in, out)
}

func TestCacheMissLeavesDestUntouched(t *testing.T) {
	cache := NewCacheService(newMemoryRedis(), time.Hour, nil)

	out := map[string]string{"existing": "value"}
	assert.False(t, cache.Get(context.Background(), "absent", &out))
	assert.Equal(t, "value", out["existing"])
}

func TestCacheDisabledWithNilClient(t *testing.T) {
	cache := NewCacheService(nil, time.Hour, nil)
	ctx := context.Background()

	assert.False(t, cache.Set(ctx, "k", "v", 0))
	var out string
	assert.False(t, cache.Get(ctx, "k", &out))
	assert.False(t, cache.Delete(ctx, "k"))

	stats := cache.Stats()
	assert.False(t, stats.Available)
}

func TestCacheDelete(t *testing.T) {
	cache := NewCacheService(newMemoryRedis(), time.Hour, nil)
	ctx := context.Background()

	require.True(t, cache.Set(ctx, "k", "v", 0))
	require.True(t, cache.Delete(ctx, "k"))

	var out string
	assert.False(t, cache.Get(ctx, "k", &out))
}

func TestCacheFailOpenOnBackendError(t *testing.T) {
	cache := NewCacheService(&erroringRedis{}, time.Hour, nil)
	ctx := context.Background()

	// Every operation degrades instead of surfacing the backend error.
	assert.False(t, cache.Set(ctx, "k", "v", 0))
	assert.False(t, cache.Delete(ctx, "k"))
	assert.False(t, cache.Expire(ctx, "k", time.Minute))

	out := map[string]string{"existing": "value"}
	assert.False(t, cache.Get(ctx, "k", &out))
	assert.Equal(t, "value", out["existing"])

	stats := cache.Stats()
	assert.True(t, stats.Available)
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 0, stats.Hits)
}

func TestCacheHitRate(t *testing.T) {
	cache := NewCacheService(newMemoryRedis(), time.Hour, nil)
	ctx := context.Background()

	assert.Equal(t, 0.0, cache.HitRate())

	var out string
	cache.Get(ctx, "absent", &out) // miss
	cache.Set(ctx, "k", "v", 0)
	cache.Get(ctx, "k", &out) // hit
	cache.Get(ctx, "k", &out) // hit

	stats := cache.Stats()
	assert.True(t, stats.Available)
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}
