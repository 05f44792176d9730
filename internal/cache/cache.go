// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import "sync"

// Cache is a mutex-guarded LRU map. When a limit is set and exceeded, the
// least recently used entries are evicted until a quarter of the room is
// free again, so bursts of inserts do not evict one entry at a time.
//
// Cache must not be copied after first use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     List[K]
	limit   int
	evicted func(K, V)
}

type entry[K comparable, V any] struct {
	value V
	node  *Node[K]
}

// New creates a cache holding at most limit entries. A limit of 0 means
// unlimited.
func New[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		limit:   limit,
	}
}

// OnEvict registers fn to be called, with the lock held, for every entry
// dropped by the limit. Explicit Delete and Clear do not call it.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	c.evicted = fn
	c.mu.Unlock()
}

// Get returns the value for key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(e.node)
	return e.value, true
}

// Set stores value under key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// GetOrCreate returns the value for key, calling create under the lock to
// make it if absent. create must not use the cache.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e.node)
		return e.value
	}
	v := create()
	c.setLocked(key, v)
	return v
}

func (c *Cache[K, V]) setLocked(key K, value V) {
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.lru.MoveToFront(e.node)
		return
	}
	c.entries[key] = &entry[K, V]{value: value, node: c.lru.PushFront(key)}
	if c.limit > 0 && len(c.entries) > c.limit {
		c.evictLocked(max(c.limit*3/4, 1))
	}
}

func (c *Cache[K, V]) evictLocked(target int) {
	for len(c.entries) > target {
		key, ok := c.lru.RemoveOldest()
		if !ok {
			return
		}
		e := c.entries[key]
		delete(c.entries, key)
		if c.evicted != nil {
			c.evicted(key, e.value)
		}
	}
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.lru.Remove(e.node)
	delete(c.entries, key)
	return true
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.lru.Clear()
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Limit returns the entry limit, 0 when unlimited.
func (c *Cache[K, V]) Limit() int { return c.limit }

// Keys returns the keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, c.lru.Len())
	for n := c.lru.front; n != nil; n = n.next {
		keys = append(keys, n.Key)
	}
	return keys
}
