package external

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/afyacheck/screening-server/internal/domain"
)

// PredictionCache caches classifier responses in Redis with an
// in-process LRU fallback for when Redis is unreachable.
type PredictionCache struct {
	redis      *redis.Client
	local      *lru.Cache[string, []byte]
	defaultTTL time.Duration
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(config domain.CacheConfig) (*PredictionCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Apply cache-specific configurations
	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	localSize := config.LocalSize
	if localSize <= 0 {
		localSize = 1024
	}
	local, err := lru.New[string, []byte](localSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}

	return &PredictionCache{
		redis:      client,
		local:      local,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// CachedPrediction wraps a classifier response with cache metadata.
type CachedPrediction struct {
	Recommendation string    `json:"recommendation"`
	Probabilities  []float64 `json:"probabilities,omitempty"`
	CachedAt       time.Time `json:"cached_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// GetPrediction retrieves a cached prediction for a feature vector.
func (c *PredictionCache) GetPrediction(ctx context.Context, condition domain.Condition, features []int) (*CachedPrediction, bool, error) {
	key := c.predictionKey(condition, features)

	raw, ok, err := c.getRaw(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	var cached CachedPrediction
	if err := json.Unmarshal(raw, &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		c.local.Remove(key)
		return nil, false, nil
	}

	// Check if expired
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		c.local.Remove(key)
		return nil, false, nil
	}

	return &cached, true, nil
}

// SetPrediction caches a classifier response.
func (c *PredictionCache) SetPrediction(ctx context.Context, condition domain.Condition, features []int, recommendation string, probabilities []float64, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	key := c.predictionKey(condition, features)

	cached := CachedPrediction{
		Recommendation: recommendation,
		Probabilities:  probabilities,
		CachedAt:       time.Now(),
		ExpiresAt:      time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction cache data: %w", err)
	}

	// Local copy answers reads when Redis is down.
	c.local.Add(key, jsonData)

	return c.redis.Set(ctx, key, jsonData, ttl).Err()
}

// CachedScores wraps a population score vector with cache metadata.
type CachedScores struct {
	Scores    []float64 `json:"scores"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetPopulationScores retrieves a cached population score vector.
func (c *PredictionCache) GetPopulationScores(ctx context.Context, condition domain.Condition) ([]float64, bool, error) {
	key := fmt.Sprintf("population:%s", condition)

	raw, ok, err := c.getRaw(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	var cached CachedScores
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.redis.Del(ctx, key)
		c.local.Remove(key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		c.local.Remove(key)
		return nil, false, nil
	}

	return cached.Scores, true, nil
}

// SetPopulationScores caches a population score vector.
func (c *PredictionCache) SetPopulationScores(ctx context.Context, condition domain.Condition, scores []float64, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	key := fmt.Sprintf("population:%s", condition)

	cached := CachedScores{
		Scores:    scores,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal population cache data: %w", err)
	}

	c.local.Add(key, jsonData)

	return c.redis.Set(ctx, key, jsonData, ttl).Err()
}

// getRaw reads a key from Redis, falling back to the local LRU when
// Redis errors out.
func (c *PredictionCache) getRaw(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		return []byte(val), true, nil
	}
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}

	if raw, ok := c.local.Get(key); ok {
		return raw, true, nil
	}
	return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
}

// predictionKey creates a standardized cache key for a feature vector
func (c *PredictionCache) predictionKey(condition domain.Condition, features []int) string {
	data := fmt.Sprintf("%s:%v", condition, features)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("prediction:%x", hash[:8]) // Use first 8 bytes of hash
}

// Ping checks if Redis connection is alive
func (c *PredictionCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *PredictionCache) Close() error {
	return c.redis.Close()
}
