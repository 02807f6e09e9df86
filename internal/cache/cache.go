package cache

import (
	"sync"
	"sync/atomic"
)

// EvictFunc is called for every entry leaving the cache through capacity
// eviction, Remove or Purge. It runs with the cache lock held and must not
// call back into the cache.
type EvictFunc[K comparable, V any] func(key K, value V)

// LRU is a thread-safe least-recently-used cache with a hard capacity and an
// eviction callback.
//
// LRU must not be copied after creation (has mutex).
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	list     lruList[K, V]
	capacity int
	onEvict  EvictFunc[K, V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewLRU creates a cache holding at most capacity entries. A capacity of 0
// means unlimited. onEvict may be nil.
func NewLRU[K comparable, V any](capacity int, onEvict EvictFunc[K, V]) *LRU[K, V] {
	return &LRU[K, V]{
		entries:  make(map[K]*lruNode[K, V]),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.list.moveToFront(node)
	return node.value, true
}

// Add stores a value. When the cache is full the least recently used entry
// is evicted first. Replacing an existing key does not call onEvict.
func (c *LRU[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		node.value = value
		c.list.moveToFront(node)
		return
	}
	if c.capacity > 0 && c.list.len >= c.capacity {
		c.evict(c.list.oldest())
	}
	c.entries[key] = c.list.pushFront(key, value)
}

// Full reports whether the next Add of a new key evicts an entry.
func (c *LRU[K, V]) Full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity > 0 && c.list.len >= c.capacity
}

// Remove evicts key. Returns true if it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		return false
	}
	c.evict(node)
	return true
}

// Purge evicts every entry, oldest first.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.list.oldest(); node != nil; node = c.list.oldest() {
		c.evict(node)
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.len
}

// Capacity returns the maximum number of entries (0 = unlimited).
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// evict removes node and reports it. Caller must hold c.mu.
func (c *LRU[K, V]) evict(node *lruNode[K, V]) {
	c.list.unlink(node)
	delete(c.entries, node.key)
	c.evictions.Add(1)
	if c.onEvict != nil {
		c.onEvict(node.key, node.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the maximum number of entries.
	Capacity int
	// Hits is the number of successful lookups.
	Hits uint64
	// Misses is the number of failed lookups.
	Misses uint64
	// Evictions is the number of entries that left the cache.
	Evictions uint64
}

// HitRate returns the hit rate as a fraction in [0, 1].
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
