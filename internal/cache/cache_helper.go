package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheConfig defines cache configuration for a family of keys
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Test definitions change rarely and are read on every start/submit
	TestCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "test:",
	}

	ExamCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "exam:",
	}

	// Per-user aggregates, invalidated on submission
	StatsCacheConfig = CacheConfig{
		TTL:    2 * time.Minute,
		Prefix: "stats:",
	}
)

// CacheHelper wraps one key prefix of the shared redis client.
// A nil client turns every call into a miss so callers degrade to the database.
type CacheHelper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCacheHelper(client *redis.Client, config CacheConfig) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

func (c *CacheHelper) Key(key string) string {
	return c.prefix + key
}

func (c *CacheHelper) TTL() time.Duration {
	return c.ttl
}

// Get retrieves and unmarshals a cached value
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.Key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set marshals value and stores it with the helper TTL
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return c.client.Set(ctx, c.Key(key), data, c.ttl).Err()
}

// Delete removes keys in one round trip
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = c.Key(key)
	}
	return c.client.Del(ctx, full...).Err()
}

// InvalidatePattern removes all keys matching pattern using SCAN
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, c.Key(pattern), 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan pattern error: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := min(i+batchSize, len(keys))
		pipe.Del(ctx, keys[i:end]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}
	return nil
}

// CacheOrExecute implements cache-aside: a hit fills dest, a miss runs
// fetch, fills dest and stores the result. Cache failures never fail the call.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache get error, proceeding to fetch", "error", err, "key", c.Key(key))
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := c.Set(setCtx, key, value); err != nil {
		slog.WarnContext(ctx, "Cache set error", "error", err, "key", c.Key(key))
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// CacheManager groups the helpers used by the repositories
type CacheManager struct {
	client *redis.Client

	Test  *CacheHelper
	Exam  *CacheHelper
	Stats *CacheHelper
}

// NewCacheManager builds helpers for every key family. testTTL overrides
// the default test definition TTL when positive.
func NewCacheManager(client *redis.Client, testTTL time.Duration) *CacheManager {
	testConfig := TestCacheConfig
	if testTTL > 0 {
		testConfig.TTL = testTTL
	}

	return &CacheManager{
		client: client,
		Test:   NewCacheHelper(client, testConfig),
		Exam:   NewCacheHelper(client, ExamCacheConfig),
		Stats:  NewCacheHelper(client, StatsCacheConfig),
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}

	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}
