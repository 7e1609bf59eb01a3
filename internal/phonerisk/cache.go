package phonerisk

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStats summarizes cache contents for the stats endpoint.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Cache stores assessments keyed by normalized phone number. Entries expire
// after the TTL passed to Set; concurrent writers may overwrite each other,
// which is acceptable because entries for the same number are equivalent.
type Cache interface {
	Get(ctx context.Context, number string) (*Assessment, bool, error)
	Set(ctx context.Context, number string, a *Assessment, ttl time.Duration) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (CacheStats, error)
}

const redisKeyPrefix = "phone:assessment:"

// RedisCache backs the assessment cache with Redis so multiple instances
// share lookups.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed assessment cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) key(number string) string {
	return redisKeyPrefix + number
}

// Get retrieves a cached assessment, reporting a miss for expired entries.
func (c *RedisCache) Get(ctx context.Context, number string) (*Assessment, bool, error) {
	data, err := c.client.Get(ctx, c.key(number)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("phonerisk: cache get: %w", err)
	}
	var a Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, false, fmt.Errorf("phonerisk: cache unmarshal: %w", err)
	}
	return &a, true, nil
}

// Set stores an assessment with the given TTL.
func (c *RedisCache) Set(ctx context.Context, number string, a *Assessment, ttl time.Duration) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("phonerisk: cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.key(number), data, ttl).Err(); err != nil {
		return fmt.Errorf("phonerisk: cache set: %w", err)
	}
	return nil
}

// Clear removes all cached assessments.
func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.scanKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("phonerisk: cache clear: %w", err)
	}
	return nil
}

// Stats reports the cached phone numbers.
func (c *RedisCache) Stats(ctx context.Context) (CacheStats, error) {
	keys, err := c.scanKeys(ctx)
	if err != nil {
		return CacheStats{}, err
	}
	numbers := make([]string, 0, len(keys))
	for _, k := range keys {
		numbers = append(numbers, k[len(redisKeyPrefix):])
	}
	return CacheStats{Size: len(numbers), Keys: numbers}, nil
}

func (c *RedisCache) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("phonerisk: cache scan: %w", err)
	}
	return keys, nil
}

type memoryEntry struct {
	assessment *Assessment
	expiresAt  time.Time
}

// MemoryCache is a process-local assessment cache used when Redis is not
// configured. Expiry is an explicit timestamp check on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an in-process assessment cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a live cached assessment.
func (c *MemoryCache) Get(ctx context.Context, number string) (*Assessment, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[number]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.assessment, true, nil
}

// Set stores an assessment with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, number string, a *Assessment, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[number] = memoryEntry{assessment: a, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// Stats reports live (unexpired) entries.
func (c *MemoryCache) Stats(ctx context.Context) (CacheStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := CacheStats{Keys: make([]string, 0, len(c.entries))}
	now := c.now()
	for number, entry := range c.entries {
		if now.After(entry.expiresAt) {
			continue
		}
		stats.Keys = append(stats.Keys, number)
	}
	stats.Size = len(stats.Keys)
	return stats, nil
}
