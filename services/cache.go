package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"pnodemon/config"
)

// Cache keys used by the monitor. Values are JSON-encoded snapshots of
// the corresponding structures, opaque to the backend.
const (
	CacheKeyNodes     = "nodes"
	CacheKeyAnalytics = "analytics"
)

// Cache is the caching collaborator. Two implementations exist, one
// Redis-backed and one in-process; the choice is made once at
// construction from configuration, never branched at call sites.
type Cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get decodes a fresh entry into out. found is false on miss or expiry.
	Get(ctx context.Context, key string, out any) (found bool, err error)
	// GetStale also returns expired entries, flagging them stale.
	// Handlers prefer stale data over an error page.
	GetStale(ctx context.Context, key string, out any) (found bool, stale bool, err error)
	Clear(ctx context.Context) error
	Mode() string
}

// NewCache selects the backend. Redis must be enabled and reachable at
// startup; anything else falls back to the in-process cache.
func NewCache(cfg *config.Config) Cache {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		log.Println("Redis disabled, using in-memory cache")
		return NewMemoryCache()
	}

	options := &redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	}
	if cfg.Redis.UseTLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("Redis connection failed: %v, using in-memory cache", err)
		_ = client.Close()
		return NewMemoryCache()
	}

	log.Printf("Redis connected at %s", cfg.Redis.Address)
	return &RedisCache{client: client}
}

// ============================================
// Redis-backed implementation
// ============================================

type RedisCache struct {
	client *redis.Client
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// GetStale on Redis is plain Get: expired keys are evicted server-side
// so a hit is always fresh.
func (c *RedisCache) GetStale(ctx context.Context, key string, out any) (bool, bool, error) {
	found, err := c.Get(ctx, key, out)
	return found, false, err
}

func (c *RedisCache) Clear(ctx context.Context) error {
	deleted := 0
	for _, pattern := range []string{CacheKeyNodes, CacheKeyAnalytics, "node:*"} {
		iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			c.client.Del(ctx, iter.Val())
			deleted++
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	log.Printf("Redis cache cleared (%d keys)", deleted)
	return nil
}

func (c *RedisCache) Mode() string { return "redis" }

func (c *RedisCache) Close() error { return c.client.Close() }

// ============================================
// In-process implementation
// ============================================

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache keeps JSON-encoded entries in a sync.Map. Expired
// entries are retained until overwritten so stale reads stay possible.
type MemoryCache struct {
	store sync.Map // map[string]*memoryItem
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store.Store(key, &memoryItem{data: data, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (c *MemoryCache) Get(ctx context.Context, key string, out any) (bool, error) {
	found, stale, err := c.GetStale(ctx, key, out)
	if err != nil || !found || stale {
		return false, err
	}
	return true, nil
}

func (c *MemoryCache) GetStale(_ context.Context, key string, out any) (bool, bool, error) {
	val, ok := c.store.Load(key)
	if !ok {
		return false, false, nil
	}

	item := val.(*memoryItem)
	if err := json.Unmarshal(item.data, out); err != nil {
		return false, false, err
	}
	return true, time.Now().After(item.expiresAt), nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.store.Range(func(key, _ any) bool {
		if k, ok := key.(string); ok {
			if k == CacheKeyNodes || k == CacheKeyAnalytics || strings.HasPrefix(k, "node:") {
				c.store.Delete(key)
			}
		}
		return true
	})
	return nil
}

func (c *MemoryCache) Mode() string { return "memory" }
