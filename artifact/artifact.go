// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package artifact holds the output of a completed paint pass: a display
// item list paired with the chunks partitioning it.
package artifact

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"github.com/gogpu/paint/chunk"
	"github.com/gogpu/paint/displayitem"
)

// Artifact is an immutable (list, chunks) pair. The zero value is an empty
// artifact.
//
// The list and chunks are owned by the artifact once passed to New and must
// not be modified afterwards.
type Artifact struct {
	list   *displayitem.List
	chunks []chunk.Chunk
}

// Empty returns an artifact with no items.
func Empty() *Artifact { return &Artifact{} }

// New creates an artifact taking ownership of list and chunks.
func New(list *displayitem.List, chunks []chunk.Chunk) *Artifact {
	return &Artifact{list: list, chunks: chunks}
}

// DisplayItemList returns the item list. It may be nil for an empty artifact.
func (a *Artifact) DisplayItemList() *displayitem.List { return a.list }

// Chunks returns the chunks in item order.
func (a *Artifact) Chunks() []chunk.Chunk { return a.chunks }

// Len returns the number of items.
func (a *Artifact) Len() int { return a.list.Len() }

// At returns the item at index i.
func (a *Artifact) At(i int) displayitem.Item { return a.list.At(i) }

// IsEmpty reports whether the artifact has no items.
func (a *Artifact) IsEmpty() bool { return a.list.IsEmpty() }

// FindChunkByDisplayItemIndex returns the index of the chunk containing
// item index i, or -1.
func (a *Artifact) FindChunkByDisplayItemIndex(i int) int {
	n := sort.Search(len(a.chunks), func(k int) bool { return a.chunks[k].End > i })
	if n < len(a.chunks) && a.chunks[n].Contains(i) {
		return n
	}
	return -1
}

// Sink receives replayed items.
type Sink interface {
	// BeginChunk is called before the first item of each chunk.
	BeginChunk(c chunk.Chunk)
	// Item is called for every item in list order.
	Item(index int, item displayitem.Item)
}

// Replay feeds every chunk and item to s in order.
func (a *Artifact) Replay(s Sink) {
	for _, c := range a.chunks {
		s.BeginChunk(c)
		for i := c.Begin; i < c.End; i++ {
			s.Item(i, a.list.At(i))
		}
	}
}

// ApproximateUnsharedMemoryUsage estimates the bytes held by the artifact.
func (a *Artifact) ApproximateUnsharedMemoryUsage() int {
	return int(unsafe.Sizeof(*a)) + a.list.CapacityInBytes() +
		cap(a.chunks)*int(unsafe.Sizeof(chunk.Chunk{}))
}

// Equal reports whether both artifacts hold element-wise equal items and
// identical chunk ranges.
func (a *Artifact) Equal(b *Artifact) bool {
	if a.Len() != b.Len() || len(a.chunks) != len(b.chunks) {
		return false
	}
	for i := range a.Len() {
		if !a.At(i).Equals(b.At(i)) {
			return false
		}
	}
	for i := range a.chunks {
		x, y := a.chunks[i], b.chunks[i]
		if x.Begin != y.Begin || x.End != y.End || x.Properties != y.Properties {
			return false
		}
	}
	return true
}

// String returns a multi-line dump of chunks and items.
func (a *Artifact) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "artifact: %d items, %d chunks\n", a.Len(), len(a.chunks))
	for _, c := range a.chunks {
		fmt.Fprintf(&sb, "  %s\n", c)
		for i := c.Begin; i < c.End; i++ {
			fmt.Fprintf(&sb, "    %d: %s\n", i, a.list.At(i))
		}
	}
	return sb.String()
}
