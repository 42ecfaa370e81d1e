package selectors

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of contracts whose selectors are kept.
const DefaultCapacity = 8192

// Cache is a bounded LRU of selector sets keyed by ContractRef.Key.
// Entries never expire; the least recently used key is evicted once the
// capacity is reached.
type Cache struct {
	lru *lru.Cache[string, []string]

	// Writes are serialised so onEvict can tell capacity evictions from
	// explicit removals.
	mu       sync.Mutex
	removing bool
}

// NewCache creates a cache holding at most capacity entries. onEvict, which
// may be nil, is called for capacity evictions only, not for Remove.
func NewCache(capacity int, onEvict func(key string)) (*Cache, error) {
	c := &Cache{}
	var evict func(string, []string)
	if onEvict != nil {
		evict = func(k string, _ []string) {
			if !c.removing {
				onEvict(k)
			}
		}
	}
	l, err := lru.NewWithEvict[string, []string](capacity, evict)
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Get returns the selectors stored under key and marks it recently used.
func (c *Cache) Get(key string) ([]string, bool) { return c.lru.Get(key) }

// Peek is Get without touching recency.
func (c *Cache) Peek(key string) ([]string, bool) { return c.lru.Peek(key) }

// Add stores selectors under key, evicting the LRU entry if full.
func (c *Cache) Add(key string, selectors []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, selectors)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removing = true
	defer func() { c.removing = false }()
	return c.lru.Remove(key)
}

// Contains reports presence without touching recency.
func (c *Cache) Contains(key string) bool { return c.lru.Contains(key) }

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.lru.Len() }
