// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides the LRU bookkeeping shared by paint's caches.
//
// [Cache] is a mutex-guarded LRU map used for low-contention tables such as
// the client table. [List] is the bare recency list; the public cache
// package builds its sharded cache on it.
//
//	c := cache.New[string, int](100)
//	c.Set("key", 42)
//	v, ok := c.Get("key")
package cache
