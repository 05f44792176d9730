// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package paint

import "log/slog"

// Stats counts the cache work of one paint pass.
type Stats struct {
	// SequentialMatches counts cache hits found at the match cursor.
	SequentialMatches int
	// OutOfOrderMatches counts cache hits found after the cursor missed,
	// either through the index or by the indexing scan.
	OutOfOrderMatches int
	// IndexedItems counts items added to the out-of-order index. It never
	// exceeds the length of the current list.
	IndexedItems int
	// CachedNewItems counts items copied from the current list.
	CachedNewItems int
	// NewItems counts all items appended to the new list, cached or not.
	NewItems int
}

// Matches returns the total number of cache hits.
func (s Stats) Matches() int { return s.SequentialMatches + s.OutOfOrderMatches }

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("sequential", s.SequentialMatches),
		slog.Int("outOfOrder", s.OutOfOrderMatches),
		slog.Int("indexed", s.IndexedItems),
		slog.Int("cachedNew", s.CachedNewItems),
		slog.Int("new", s.NewItems),
	)
}
