// file: internal/cache/cache.go
// version: 2.1.0
// guid: 41c22835-237a-4b05-9cc8-fbf1108bbd9d

package cache

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds a cache built without an explicit limit.
const DefaultMaxEntries = 1000

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is a generic TTL cache safe for concurrent use. A cache built with a
// non-positive TTL stores nothing, so callers can keep a single code path
// whether caching is enabled or not.
//
// Expired entries are removed when read and swept whenever an insert finds
// the cache full. If the cache is still full after the sweep, the entry
// closest to expiry is evicted.
type Cache[T any] struct {
	mu         sync.RWMutex
	items      map[string]entry[T]
	defaultTTL time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a cache with the given default TTL holding at most
// DefaultMaxEntries entries.
func New[T any](defaultTTL time.Duration) *Cache[T] {
	return NewWithLimit[T](defaultTTL, DefaultMaxEntries)
}

// NewWithLimit creates a cache holding at most maxEntries entries. A
// non-positive limit selects DefaultMaxEntries.
func NewWithLimit[T any](defaultTTL time.Duration, maxEntries int) *Cache[T] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache[T]{
		items:      make(map[string]entry[T]),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Enabled reports whether entries are retained at all.
func (c *Cache[T]) Enabled() bool {
	return c != nil && c.defaultTTL > 0
}

// Get retrieves a value if it exists and hasn't expired. An expired entry
// is deleted.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	if !c.Enabled() {
		return zero, false
	}
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.now().Before(e.expiresAt) {
		return e.value, true
	}

	c.mu.Lock()
	// Re-check: a concurrent Set may have refreshed the entry.
	if cur, ok := c.items[key]; ok && !c.now().Before(cur.expiresAt) {
		delete(c.items, key)
	}
	c.mu.Unlock()
	return zero, false
}

// Set stores a value with the default TTL.
func (c *Cache[T]) Set(key string, value T) {
	if !c.Enabled() {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.purgeLocked(now)
		if len(c.items) >= c.maxEntries {
			c.evictSoonestLocked()
		}
	}
	c.items[key] = entry[T]{value: value, expiresAt: now.Add(c.defaultTTL)}
}

// Len counts stored entries, including expired ones not yet swept.
func (c *Cache[T]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Purge drops expired entries.
func (c *Cache[T]) Purge() {
	if c == nil {
		return
	}
	now := c.now()
	c.mu.Lock()
	c.purgeLocked(now)
	c.mu.Unlock()
}

func (c *Cache[T]) purgeLocked(now time.Time) {
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
}

func (c *Cache[T]) evictSoonestLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for k, e := range c.items {
		if !found || e.expiresAt.Before(oldest) {
			victim, oldest, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.items, victim)
	}
}
