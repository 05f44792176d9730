// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package chunk

import (
	"fmt"
	"image"

	"github.com/gogpu/paint/displayitem"
)

// Chunk is a maximal contiguous run [Begin, End) of display items sharing
// the same properties.
type Chunk struct {
	Begin, End int

	// ID is the caller-given id active when the chunk started, or the id of
	// a foreign layer item. HasID is false when there was none and for
	// chunks of items created while skipping cache.
	ID    displayitem.ID
	HasID bool

	Properties Properties
	// Bounds is the union of the visual rects of the chunk's items. It is
	// computed when the chunks are committed.
	Bounds image.Rectangle
}

// Size returns the number of items in the chunk.
func (c Chunk) Size() int { return c.End - c.Begin }

// Contains reports whether item index i falls within the chunk.
func (c Chunk) Contains(i int) bool { return i >= c.Begin && i < c.End }

// String returns a debug representation of the chunk.
func (c Chunk) String() string {
	id := "-"
	if c.HasID {
		id = c.ID.String()
	}
	return fmt.Sprintf("chunk[%d,%d) id=%s props=%s bounds=%s",
		c.Begin, c.End, id, c.Properties, c.Bounds)
}

// Chunker groups consecutive display items into chunks as they are
// appended to a list.
type Chunker struct {
	chunks []Chunk
	// separate marks chunks that no other item may join.
	separate  []bool
	props     Properties
	currentID displayitem.ID
	hasID     bool
}

// NewChunker creates a chunker in its initial state.
func NewChunker() *Chunker {
	return &Chunker{}
}

// UpdateCurrentPaintChunkProperties sets the properties for subsequently
// appended items. A non-nil id becomes the id of chunks started from now on;
// a nil id clears it.
func (c *Chunker) UpdateCurrentPaintChunkProperties(id *displayitem.ID, props Properties) {
	c.hasID = id != nil
	if id != nil {
		c.currentID = *id
	}
	c.props = props
}

// CurrentPaintChunkProperties returns the properties new items will get.
func (c *Chunker) CurrentPaintChunkProperties() Properties { return c.props }

// CurrentPaintChunkID returns the id new chunks will get, if any.
func (c *Chunker) CurrentPaintChunkID() (displayitem.ID, bool) {
	return c.currentID, c.hasID
}

// IncrementDisplayItemIndex accounts for an item just appended to the list
// and reports whether it started a new chunk.
func (c *Chunker) IncrementDisplayItemIndex(item displayitem.Item) bool {
	var id displayitem.ID
	hasID := false
	separate := item.Type().IsForeignLayer()
	if separate {
		// A chunk of an item skipping cache must not match any old chunk.
		if !item.SkippedCache() {
			id, hasID = item.ID(), true
		}
		// Items after the foreign layer must not reuse the id of the chunk
		// before it.
		c.hasID = false
	} else if !item.SkippedCache() && c.hasID {
		id, hasID = c.currentID, true
	}

	n := len(c.chunks)
	if n > 0 && !separate && !c.separate[n-1] && c.chunks[n-1].Properties == c.props {
		c.chunks[n-1].End++
		return false
	}
	begin := 0
	if n > 0 {
		begin = c.chunks[n-1].End
	}
	c.chunks = append(c.chunks, Chunk{
		Begin:      begin,
		End:        begin + 1,
		ID:         id,
		HasID:      hasID,
		Properties: c.props,
	})
	c.separate = append(c.separate, separate)
	return true
}

// DecrementDisplayItemIndex accounts for the last item being removed from
// the list. A chunk left empty is dropped.
func (c *Chunker) DecrementDisplayItemIndex() {
	n := len(c.chunks)
	if n == 0 {
		panic("chunk: DecrementDisplayItemIndex on empty chunker")
	}
	if c.chunks[n-1].Size() > 1 {
		c.chunks[n-1].End--
		return
	}
	c.chunks = c.chunks[:n-1]
	c.separate = c.separate[:n-1]
}

// PaintChunks returns the chunks built so far. The slice is owned by the
// chunker until ReleasePaintChunks.
func (c *Chunker) PaintChunks() []Chunk { return c.chunks }

// ReleasePaintChunks hands the chunks to the caller and resets the chunker
// to its initial state.
func (c *Chunker) ReleasePaintChunks() []Chunk {
	chunks := c.chunks
	*c = Chunker{}
	return chunks
}

// Clear drops the chunks and resets the chunker.
func (c *Chunker) Clear() {
	*c = Chunker{}
}

// IsInInitialState reports whether no items were accounted for and no
// properties were set.
func (c *Chunker) IsInInitialState() bool {
	return len(c.chunks) == 0 && c.props == (Properties{}) && !c.hasID
}
