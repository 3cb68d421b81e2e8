package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient is the slice of go-redis the cache needs. *redis.Client
// satisfies it; tests substitute a fake.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// CacheStats is a snapshot of the cache counters for the health endpoint.
type CacheStats struct {
	Available bool    `json:"available"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
}

// CacheService is a fail-open TTL cache over Redis. Any backend error is a
// miss on read and a no-op on write; callers must never depend on a cache
// operation succeeding. Values are stored JSON-serialized.
type CacheService struct {
	client     RedisClient
	defaultTTL time.Duration
	logger     *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates a cache over the given client. A nil client
// disables the cache entirely: every read misses and every write is a no-op.
func NewCacheService(client RedisClient, defaultTTL time.Duration, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &CacheService{
		client:     client,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// Get reads key into dest. Returns false on miss, backend error, or decode
// failure; dest is untouched in those cases.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if s.client == nil {
		s.misses.Add(1)
		return false
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Error("cache GET error", zap.String("key", key), zap.Error(err))
		}
		s.misses.Add(1)
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Error("cache decode error", zap.String("key", key), zap.Error(err))
		s.misses.Add(1)
		return false
	}

	s.hits.Add(1)
	return true
}

// Set stores value under key. A non-positive ttl uses the default TTL.
// Returns false when the value could not be stored for any reason.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	if s.client == nil {
		return false
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("cache encode error", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		s.logger.Error("cache SET error", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Delete removes key from the cache.
func (s *CacheService) Delete(ctx context.Context, key string) bool {
	if s.client == nil {
		return false
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Error("cache DELETE error", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Expire sets a new TTL on an existing key.
func (s *CacheService) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	if s.client == nil {
		return false
	}
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		s.logger.Error("cache EXPIRE error", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// HitRate returns hits/(hits+misses), 0.0 with no traffic yet.
func (s *CacheService) HitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Stats returns a snapshot of the cache counters.
func (s *CacheService) Stats() CacheStats {
	return CacheStats{
		Available: s.client != nil,
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		HitRate:   s.HitRate(),
	}
}
