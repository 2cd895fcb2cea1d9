package lookup

import (
	"sync"
	"time"
)

// Cache is a bounded in-memory store with per-entry TTL. Expiry is checked
// lazily on read; when the store is full the oldest-expiring entries are
// evicted to make room. Safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	ttl      time.Duration
	maxItems int
}

type cacheItem struct {
	value     any
	expiresAt time.Time
}

// CacheConfig holds cache sizing and expiry settings.
type CacheConfig struct {
	TTL      time.Duration
	MaxItems int
}

// NewCache creates a cache with the given configuration.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.MaxItems == 0 {
		cfg.MaxItems = 1000
	}

	return &Cache{
		items:    make(map[string]cacheItem),
		ttl:      cfg.TTL,
		maxItems: cfg.MaxItems,
	}
}

// Get retrieves an item, treating expired entries as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores an item under the cache's configured TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Len returns the number of stored items, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GetResult retrieves a cached lookup result.
func (c *Cache) GetResult(key string) (Result, bool) {
	val, ok := c.Get(key)
	if !ok {
		return Result{}, false
	}
	result, ok := val.(Result)
	return result, ok
}

// evictOldest removes expired entries, then roughly the oldest-expiring 10%
// if the store is still full. The oldest-N pick is approximate: candidates
// are replaced on a first-newer-slot basis, not fully sorted. Must be called
// with the write lock held.
func (c *Cache) evictOldest() {
	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}

	if len(c.items) < c.maxItems {
		return
	}

	toRemove := c.maxItems / 10
	if toRemove < 1 {
		toRemove = 1
	}

	var oldest []string
	var oldestTimes []time.Time

	for key, item := range c.items {
		if len(oldest) < toRemove {
			oldest = append(oldest, key)
			oldestTimes = append(oldestTimes, item.expiresAt)
		} else {
			for i, t := range oldestTimes {
				if item.expiresAt.Before(t) {
					oldest[i] = key
					oldestTimes[i] = item.expiresAt
					break
				}
			}
		}
	}

	for _, key := range oldest {
		delete(c.items, key)
	}
}
