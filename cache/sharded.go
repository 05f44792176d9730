// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a sharded LRU cache for state shared between
// goroutines painting different layers.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"

	lru "github.com/gogpu/paint/internal/cache"
)

const (
	// ShardCount is the number of independently locked shards. It is a
	// power of two so a shard is picked with a mask.
	ShardCount = 16

	// DefaultCapacity is the per-shard capacity used when none is given.
	DefaultCapacity = 256

	shardMask = ShardCount - 1
)

// Hasher maps a key to the hash that picks its shard.
type Hasher[K any] func(K) uint64

// StringHasher hashes s with FNV-1a.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Uint64Hasher mixes u with the SplitMix64 finalizer so that sequential
// ids spread over all shards.
func Uint64Hasher(u uint64) uint64 {
	u ^= u >> 30
	u *= 0xbf58476d1ce4e5b9
	u ^= u >> 27
	u *= 0x94d049bb133111eb
	u ^= u >> 31
	return u
}

// Stats is a snapshot of a ShardedCache.
type Stats struct {
	Len           int
	Capacity      int // per shard
	TotalCapacity int
	Hits          uint64
	Misses        uint64
	HitRate       float64
	Evictions     uint64
}

// ShardedCache is an LRU cache split into ShardCount shards, each with its
// own lock and its own capacity. It is safe for concurrent use.
type ShardedCache[K comparable, V any] struct {
	shards   [ShardCount]shard[K, V]
	hasher   Hasher[K]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*shardEntry[K, V]
	recency lru.List[K]
}

type shardEntry[K comparable, V any] struct {
	value V
	node  *lru.Node[K]
}

// NewSharded creates a cache holding up to capacity entries per shard.
// A capacity <= 0 selects DefaultCapacity.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *ShardedCache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &ShardedCache[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]*shardEntry[K, V])
	}
	return c
}

func (c *ShardedCache[K, V]) shardFor(key K) *shard[K, V] {
	return &c.shards[c.hasher(key)&shardMask]
}

// Get returns the value of key and marks it recently used.
func (c *ShardedCache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.recency.MoveToFront(e.node)
	v := e.value
	s.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// Set stores value under key, evicting the shard's least recently used
// entry when the shard is full.
func (c *ShardedCache[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.insertLocked(s, key, value)
}

// GetOrCreate returns the value of key, or stores and returns create().
// create runs under the shard lock and must not use the cache.
func (c *ShardedCache[K, V]) GetOrCreate(key K, create func() V) V {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.recency.MoveToFront(e.node)
		c.hits.Add(1)
		return e.value
	}
	c.misses.Add(1)
	v := create()
	c.insertLocked(s, key, v)
	return v
}

func (c *ShardedCache[K, V]) insertLocked(s *shard[K, V], key K, value V) {
	if e, ok := s.entries[key]; ok {
		e.value = value
		s.recency.MoveToFront(e.node)
		return
	}
	for s.recency.Len() >= c.capacity {
		oldest, ok := s.recency.RemoveOldest()
		if !ok {
			break
		}
		delete(s.entries, oldest)
		c.evictions.Add(1)
	}
	s.entries[key] = &shardEntry[K, V]{value: value, node: s.recency.PushFront(key)}
}

// Delete removes key and reports whether it was present.
func (c *ShardedCache[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.recency.Remove(e.node)
	delete(s.entries, key)
	return true
}

// Range calls fn for every entry until fn returns false. Each shard is
// locked while it is visited, so fn must not use the cache.
func (c *ShardedCache[K, V]) Range(fn func(K, V) bool) {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for k, e := range s.entries {
			if !fn(k, e.value) {
				s.mu.Unlock()
				return
			}
		}
		s.mu.Unlock()
	}
}

// Clear removes all entries. Statistics are kept.
func (c *ShardedCache[K, V]) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		clear(s.entries)
		s.recency.Clear()
		s.mu.Unlock()
	}
}

// Len returns the number of entries over all shards.
func (c *ShardedCache[K, V]) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Capacity returns the per-shard capacity.
func (c *ShardedCache[K, V]) Capacity() int { return c.capacity }

// Stats returns a snapshot of the counters.
func (c *ShardedCache[K, V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:           c.Len(),
		Capacity:      c.capacity,
		TotalCapacity: c.capacity * ShardCount,
		Hits:          hits,
		Misses:        misses,
		HitRate:       rate,
		Evictions:     c.evictions.Load(),
	}
}

// ResetStats zeroes the counters.
func (c *ShardedCache[K, V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
