package query

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheSize is the compiled query capacity used when none is configured.
const DefaultCacheSize = 256

// Cache is a bounded cache that maps query strings to their compiled form. It
// is designed to be shared across compilations so that repeated identical
// query strings (common in load tests and paging through the same filter) do
// not incur the cost of parsing, resolution and generation every time.
//
// Eviction strategy: when the cache reaches its capacity limit the entire map is
// replaced. This is simpler than a true LRU and sufficient for the target use-case
// (a small number of distinct query templates repeated many times).
//
// Thread safety: all public methods are safe for concurrent use. Cached
// queries are shared and MUST NOT be modified by callers.
type Cache struct {
	mu    sync.RWMutex
	items map[uint64]cacheEntry
	max   int
}

type cacheEntry struct {
	id    string
	query *Query
}

// queryKey locates a compiled query: hash selects the map slot and id, the
// full key text, confirms the match so that colliding hashes never share an
// entry.
type queryKey struct {
	hash uint64
	id   string
}

// NewCache creates a cache holding at most size compiled queries. A size of
// zero or less returns nil, which disables caching.
func NewCache(size int) *Cache {
	if size <= 0 {
		return nil
	}
	return &Cache{
		items: make(map[uint64]cacheEntry, size),
		max:   size,
	}
}

// cacheKey builds the key from everything a compiled query depends on.
func cacheKey(scope, entity, raw string, foldNames bool) queryKey {
	id := scope + "\x00" + entity + "\x00" + strconv.FormatBool(foldNames) + "\x00" + raw
	return queryKey{hash: xxhash.Sum64String(id), id: id}
}

func (c *Cache) get(key queryKey) (*Query, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.items[key.hash]
	c.mu.RUnlock()
	if !ok || entry.id != key.id {
		return nil, false
	}
	return entry.query, true
}

func (c *Cache) put(key queryKey, q *Query) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if len(c.items) >= c.max {
		// Evict everything and start fresh rather than tracking individual entry ages.
		c.items = make(map[uint64]cacheEntry, c.max)
	}
	c.items[key.hash] = cacheEntry{id: key.id, query: q}
	c.mu.Unlock()
}

// Len returns the number of cached queries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear drops every cached query.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = make(map[uint64]cacheEntry, c.max)
	c.mu.Unlock()
}
