// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package paint

import (
	"fmt"
	"image"
	"log/slog"
	"slices"

	"github.com/gogpu/paint/artifact"
	"github.com/gogpu/paint/chunk"
	"github.com/gogpu/paint/displayitem"
	"github.com/gogpu/paint/picture"
)

const notFound = -1

// indicesByClient maps a client to the list indices of its cacheable items.
type indicesByClient map[displayitem.ClientID][]int

// Controller records the display items of one paint pass against the
// artifact of the previous pass, reusing cached items where the painter
// asks for them, and commits the result as the next artifact.
//
// A Controller is driven by one goroutine at a time.
type Controller struct {
	opts options

	current *artifact.Artifact
	// copied marks items of the current list already moved into the new list.
	copied []bool

	newList *displayitem.List
	chunker *chunk.Chunker

	outOfOrder      indicesByClient
	nextItemToMatch int
	nextItemToIndex int

	generation    displayitem.CacheGeneration
	skippingCache int

	textPainted  bool
	imagePainted bool

	stats    Stats
	lastPass Stats

	// newIndices is maintained only with duplicate id checking.
	newIndices indicesByClient

	// Under-invalidation checking of the cached range [uiBegin, uiEnd),
	// which started at uiStart.
	uiStart   int
	uiBegin   int
	uiEnd     int
	uiSkipped int
	uiContext string
}

// NewController creates a controller with an empty artifact.
func NewController(opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Controller{
		opts:       o,
		current:    artifact.Empty(),
		newList:    displayitem.NewList(0),
		chunker:    chunk.NewChunker(),
		outOfOrder: make(indicesByClient),
		generation: displayitem.JustCreated,
	}
	if o.duplicateIDChecking {
		c.newIndices = make(indicesByClient)
	}
	c.resetCurrentListIndices()
	return c
}

func (c *Controller) logger() *slog.Logger {
	if c.opts.logger != nil {
		return c.opts.logger
	}
	return Logger()
}

// InvalidateAll drops the current artifact and invalidates every client's
// cached items, so the next pass repaints everything. It must not be called
// while recording.
func (c *Controller) InvalidateAll() {
	if !c.newList.IsEmpty() {
		panic("paint: InvalidateAll called during recording")
	}
	c.current = artifact.Empty()
	c.generation = displayitem.Invalidated
	c.resetCurrentListIndices()
}

// DiscardNewDisplayItems abandons a pass: the uncommitted items, chunk
// state and skip-cache regions are dropped and the cache is invalidated as
// by InvalidateAll. The controller stays usable for the next pass.
func (c *Controller) DiscardNewDisplayItems() {
	c.newList = displayitem.NewList(0)
	c.chunker.Clear()
	c.skippingCache = 0
	if c.newIndices != nil {
		clear(c.newIndices)
	}
	c.stats = Stats{}
	c.InvalidateAll()
}

// UpdateCurrentPaintChunkProperties sets the chunk properties for the items
// appended next. A non-nil id names the chunk starting at the next item.
func (c *Controller) UpdateCurrentPaintChunkProperties(id *displayitem.ID, props chunk.Properties) {
	c.chunker.UpdateCurrentPaintChunkProperties(id, props)
}

// CurrentPaintChunkProperties returns the properties new items get.
func (c *Controller) CurrentPaintChunkProperties() chunk.Properties {
	return c.chunker.CurrentPaintChunkProperties()
}

// CreateAndAppend appends a freshly painted item to the new list. The
// payload is copied, so the caller may reuse its buffer.
func (c *Controller) CreateAndAppend(item displayitem.Item) {
	if c.opts.constructionDisabled {
		return
	}
	c.ensureNewDisplayItemListInitialCapacity()
	c.newList.Append(item)
	c.processNewItem()
}

// EndItem closes the bracket opened by the last begin item. If nothing was
// painted since that begin, the begin is removed instead of appending an
// empty pair.
func (c *Controller) EndItem(end displayitem.Item) {
	if c.opts.constructionDisabled {
		return
	}
	if !end.IsEnd() {
		panic("paint: EndItem with non-end item " + end.String())
	}
	if c.LastDisplayItemIsNoopBegin() {
		begin := c.newList.Last()
		if !end.Type().IsEndAndPairedWith(begin.Type()) {
			panic(fmt.Sprintf("paint: %s does not close %s", end.Type(), begin.Type()))
		}
		c.RemoveLastDisplayItem()
		return
	}
	c.CreateAndAppend(end)
}

// LastDisplayItemIsNoopBegin reports whether the last new item is a begin
// item, which never draws content.
func (c *Controller) LastDisplayItemIsNoopBegin() bool {
	if c.newList.IsEmpty() {
		return false
	}
	last := c.newList.Last()
	return last.IsBegin() && !last.DrawsContent()
}

// RemoveLastDisplayItem removes the last new item.
func (c *Controller) RemoveLastDisplayItem() {
	if c.newList.IsEmpty() {
		return
	}
	last := c.newList.Len() - 1
	if c.newIndices != nil {
		cid := c.newList.IDAt(last).Client
		if idx := c.newIndices[cid]; len(idx) > 0 && idx[len(idx)-1] == last {
			c.newIndices[cid] = idx[:len(idx)-1]
		}
	}
	if c.opts.underInvalidationChecking && c.isCheckingUnderInvalidation() {
		if c.uiSkipped > 0 {
			c.uiSkipped--
		} else if c.uiBegin > c.uiStart {
			c.uiBegin--
			c.copied[c.uiBegin] = false
		}
	}
	c.newList.RemoveLast()
	c.chunker.DecrementDisplayItemIndex()
}

// LastDisplayItem returns the new item offset positions before the last one.
func (c *Controller) LastDisplayItem(offset int) (displayitem.Item, bool) {
	i := c.newList.Len() - 1 - offset
	if offset < 0 || i < 0 {
		return displayitem.Item{}, false
	}
	return c.newList.At(i), true
}

// BeginSkippingCache starts a region whose items are always repainted and
// never matched in later passes. Regions nest.
func (c *Controller) BeginSkippingCache() { c.skippingCache++ }

// EndSkippingCache ends the innermost region started by BeginSkippingCache.
func (c *Controller) EndSkippingCache() {
	if c.skippingCache == 0 {
		panic("paint: EndSkippingCache without BeginSkippingCache")
	}
	c.skippingCache--
}

// IsSkippingCache reports whether a skip-cache region is active.
func (c *Controller) IsSkippingCache() bool { return c.skippingCache > 0 }

// ClientCacheIsValid reports whether client's items of the last commit may
// be reused.
func (c *Controller) ClientCacheIsValid(client displayitem.Client) bool {
	if c.IsSkippingCache() {
		return false
	}
	return client.DisplayItemsAreCached(c.generation)
}

// CacheIsEmpty reports whether the current artifact has no items.
func (c *Controller) CacheIsEmpty() bool { return c.current.IsEmpty() }

// UseCachedDrawingIfPossible appends the cached drawing of type t of client
// to the new list and reports true, or reports false if the painter must
// repaint it.
func (c *Controller) UseCachedDrawingIfPossible(client displayitem.Client, t displayitem.Type) bool {
	if !t.IsDrawing() {
		panic("paint: UseCachedDrawingIfPossible with non-drawing type " + t.String())
	}
	if c.opts.constructionDisabled || !c.ClientCacheIsValid(client) {
		return false
	}
	if c.opts.underInvalidationChecking && c.isCheckingUnderInvalidation() {
		// Inside a subsequence being checked; keep repainting.
		return false
	}

	id := displayitem.ID{Client: client.ClientID(), Type: t}
	found := c.findCachedItem(id)
	if found == notFound {
		c.logger().Warn("paint: cached drawing not found for valid client",
			"client", client.DebugName(), "type", t.String())
		return false
	}

	c.advanceCursors(found + 1)
	if c.opts.underInvalidationChecking {
		c.startCheckingUnderInvalidation(found, found+1, "")
		return false
	}

	c.ensureNewDisplayItemListInitialCapacity()
	c.copied[found] = true
	c.newList.Append(c.current.At(found))
	c.processNewItem()
	c.stats.CachedNewItems++
	return true
}

// UseCachedSubsequenceIfPossible copies the whole cached subsequence of
// client to the new list and reports true, or reports false and leaves the
// new list unchanged.
func (c *Controller) UseCachedSubsequenceIfPossible(client displayitem.Client) bool {
	if c.opts.subsequenceCachingDisabled || c.opts.constructionDisabled {
		return false
	}
	if !c.ClientCacheIsValid(client) {
		return false
	}
	if c.opts.underInvalidationChecking && c.isCheckingUnderInvalidation() {
		return false
	}

	id := displayitem.ID{Client: client.ClientID(), Type: displayitem.Subsequence}
	found := c.findCachedItem(id)
	if found == notFound {
		c.logger().Warn("paint: cached subsequence not found for valid client",
			"client", client.DebugName())
		return false
	}
	end := c.findSubsequenceEnd(found)
	if end == notFound {
		// Keep the begin item discoverable for other requests.
		if !slices.Contains(c.outOfOrder[client.ClientID()], found) {
			addItemToIndexIfNeeded(c.current.DisplayItemList(), found, c.outOfOrder)
		}
		c.logger().Warn("paint: cached subsequence is not closed",
			"client", client.DebugName(), "index", found)
		return false
	}

	if c.opts.underInvalidationChecking {
		c.advanceCursors(found + 1)
		c.startCheckingUnderInvalidation(found, end+1, "(in cached subsequence of "+client.DebugName()+")")
		return false
	}

	before := c.newList.Len()
	c.copyCachedSubsequence(found, end)
	c.stats.CachedNewItems += c.newList.Len() - before
	// Items of the subsequence were consumed, so they need no indexing.
	c.advanceCursors(end + 1)
	return true
}

// advanceCursors moves the match cursor to at least next and keeps the
// index cursor at or beyond it.
func (c *Controller) advanceCursors(next int) {
	c.nextItemToMatch = max(c.nextItemToMatch, next)
	c.nextItemToIndex = max(c.nextItemToIndex, c.nextItemToMatch)
}

// findCachedItem returns the index of the first unconsumed item of the
// current list with identity id, or notFound.
func (c *Controller) findCachedItem(id displayitem.ID) int {
	list := c.current.DisplayItemList()
	n := list.Len()

	for i := c.nextItemToMatch; i < n; i++ {
		// A consumed item means the sequence diverged.
		if c.copied[i] {
			break
		}
		if list.IDAt(i) == id {
			c.stats.SequentialMatches++
			return i
		}
		// A different cacheable item also ends sequential matching.
		if list.IsCacheableAt(i) {
			break
		}
	}

	if found := findMatchingItemFromIndex(id, c.outOfOrder, list, c.copied); found != notFound {
		c.stats.OutOfOrderMatches++
		return found
	}

	return c.findOutOfOrderCachedItemForward(id)
}

// findOutOfOrderCachedItemForward continues indexing the current list from
// nextItemToIndex until id is found. Every item is indexed at most once per
// pass, which keeps a whole pass linear in the size of the current list.
func (c *Controller) findOutOfOrderCachedItemForward(id displayitem.ID) int {
	list := c.current.DisplayItemList()
	n := list.Len()
	for i := c.nextItemToIndex; i < n; i++ {
		if c.copied[i] {
			continue
		}
		if list.IDAt(i) == id && list.IsCacheableAt(i) {
			c.stats.OutOfOrderMatches++
			c.nextItemToIndex = i + 1
			return i
		}
		if list.IsCacheableAt(i) {
			c.stats.IndexedItems++
			addItemToIndexIfNeeded(list, i, c.outOfOrder)
		}
	}
	c.nextItemToIndex = n
	return notFound
}

// findMatchingItemFromIndex returns the first indexed item of id.Client with
// identity id that is not marked in skip, or notFound.
func findMatchingItemFromIndex(id displayitem.ID, indices indicesByClient, list *displayitem.List, skip []bool) int {
	for _, i := range indices[id.Client] {
		if skip != nil && skip[i] {
			continue
		}
		if list.IDAt(i) == id {
			return i
		}
	}
	return notFound
}

func addItemToIndexIfNeeded(list *displayitem.List, i int, indices indicesByClient) {
	if !list.IsCacheableAt(i) {
		return
	}
	cid := list.IDAt(i).Client
	indices[cid] = append(indices[cid], i)
}

// findSubsequenceEnd returns the index of the item closing the subsequence
// that begins at begin, or notFound if the list ends first.
func (c *Controller) findSubsequenceEnd(begin int) int {
	list := c.current.DisplayItemList()
	client := list.IDAt(begin).Client
	depth := 0
	for i := begin; i < list.Len(); i++ {
		switch list.IDAt(i).Type {
		case displayitem.Subsequence:
			depth++
		case displayitem.EndSubsequence:
			depth--
			if depth == 0 {
				if list.IDAt(i).Client != client {
					return notFound
				}
				return i
			}
		}
	}
	return notFound
}

// copyCachedSubsequence copies current items [begin, end] to the new list,
// restoring the chunk properties they were committed with.
func (c *Controller) copyCachedSubsequence(begin, end int) {
	c.ensureNewDisplayItemListInitialCapacity()

	savedProps := c.chunker.CurrentPaintChunkProperties()
	savedID, hadID := c.chunker.CurrentPaintChunkID()

	chunks := c.current.Chunks()
	ci := c.current.FindChunkByDisplayItemIndex(begin)
	if ci >= 0 {
		c.updateFromCachedChunk(chunks[ci])
	}
	for i := begin; i <= end; i++ {
		if ci >= 0 && i == chunks[ci].End && ci+1 < len(chunks) {
			ci++
			c.updateFromCachedChunk(chunks[ci])
		}
		c.copied[i] = true
		c.newList.Append(c.current.At(i))
		c.processNewItem()
	}

	if hadID {
		c.chunker.UpdateCurrentPaintChunkProperties(&savedID, savedProps)
	} else {
		c.chunker.UpdateCurrentPaintChunkProperties(nil, savedProps)
	}
}

func (c *Controller) updateFromCachedChunk(ch chunk.Chunk) {
	if ch.HasID {
		id := ch.ID
		c.chunker.UpdateCurrentPaintChunkProperties(&id, ch.Properties)
		return
	}
	c.chunker.UpdateCurrentPaintChunkProperties(nil, ch.Properties)
}

// processNewItem updates bookkeeping for the item just appended.
func (c *Controller) processNewItem() {
	index := c.newList.Len() - 1
	if c.IsSkippingCache() {
		c.newList.SetSkippedCache(index)
	}
	item := c.newList.At(index)
	c.stats.NewItems++

	if c.newIndices != nil && item.IsCacheable() {
		if dup := findMatchingItemFromIndex(item.ID(), c.newIndices, c.newList, nil); dup != notFound {
			panic(fmt.Sprintf("paint: display item %s has duplicated id with previous %s (index %d)",
				item, c.newList.At(dup), dup))
		}
		addItemToIndexIfNeeded(c.newList, index, c.newIndices)
	}

	if item.IsDrawing() && (!c.textPainted || !c.imagePainted) {
		// Payloads not produced by picture fail to scan and are ignored.
		if s, err := picture.Scan(item.Payload()); err == nil {
			c.textPainted = c.textPainted || s.HasText
			c.imagePainted = c.imagePainted || s.HasImage
		}
	}

	c.chunker.IncrementDisplayItemIndex(item)

	if c.opts.underInvalidationChecking {
		c.checkUnderInvalidation()
	}
}

func (c *Controller) ensureNewDisplayItemListInitialCapacity() {
	if !c.newList.IsEmpty() {
		return
	}
	capacity := c.opts.initialCapacity
	if !c.current.IsEmpty() {
		capacity = c.current.DisplayItemList().UsedCapacityInBytes()
	}
	c.newList = displayitem.NewList(capacity)
}

func (c *Controller) resetCurrentListIndices() {
	c.nextItemToMatch = 0
	c.nextItemToIndex = 0
	clear(c.outOfOrder)
	n := c.current.Len()
	if cap(c.copied) >= n {
		c.copied = c.copied[:n]
		clear(c.copied)
	} else {
		c.copied = make([]bool, n)
	}
	c.stopCheckingUnderInvalidation()
}

// CommitNewDisplayItems makes the new list and chunks the current artifact.
// offset translates client visual rects into the space of the controller's
// owner.
func (c *Controller) CommitNewDisplayItems(offset image.Point) {
	if c.IsSkippingCache() {
		panic("paint: CommitNewDisplayItems inside a skip-cache region")
	}
	if c.opts.underInvalidationChecking && c.isCheckingUnderInvalidation() {
		c.reportUnfinishedUnderInvalidationCheck()
	}
	if c.newIndices != nil {
		clear(c.newIndices)
	}

	c.generation = displayitem.NextCacheGeneration()
	var skipped, open []displayitem.Client
	for i := range c.newList.Len() {
		item := c.newList.At(i)
		client := item.Client()
		c.newList.SetVisualRect(i, client.VisualRect().Add(offset))
		switch {
		case item.IsCacheable():
			client.SetDisplayItemsCached(c.generation)
		case item.SkippedCache():
			skipped = append(skipped, client)
			// Enclosing subsequences would replay the skipped item.
			skipped = append(skipped, open...)
		}
		switch item.Type() {
		case displayitem.Subsequence:
			open = append(open, client)
		case displayitem.EndSubsequence:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}
	// A client with any skipped-cache item must repaint next time even if
	// some of its other items were cacheable.
	for _, client := range skipped {
		client.SetDisplayItemsUncached()
	}

	chunks := c.chunker.ReleasePaintChunks()
	for i := range chunks {
		var bounds image.Rectangle
		for j := chunks[i].Begin; j < chunks[i].End; j++ {
			bounds = bounds.Union(c.newList.At(j).VisualRect())
		}
		chunks[i].Bounds = bounds
	}

	c.newList.ShrinkToFit()
	c.current = artifact.New(c.newList, chunks)
	c.newList = displayitem.NewList(0)
	c.resetCurrentListIndices()

	c.lastPass = c.stats
	c.stats = Stats{}

	c.logger().Debug("paint: committed",
		"items", c.current.Len(),
		"chunks", len(chunks),
		"stats", c.lastPass)
}

// PaintArtifact returns the artifact of the last commit. It must not be
// called while recording.
func (c *Controller) PaintArtifact() *artifact.Artifact {
	if !c.newList.IsEmpty() {
		panic("paint: PaintArtifact read during recording")
	}
	return c.current
}

// NewDisplayItemList returns the list being recorded. Callers must not
// append to it directly.
func (c *Controller) NewDisplayItemList() *displayitem.List { return c.newList }

// AppendDebugDrawingAfterCommit adds a debug drawing of client on top of the
// committed artifact. The drawing is never cached. The committed artifact is
// replaced, not modified.
func (c *Controller) AppendDebugDrawingAfterCommit(client displayitem.Client, payload []byte, offset image.Point) {
	if !c.newList.IsEmpty() {
		panic("paint: AppendDebugDrawingAfterCommit called during recording")
	}
	list := c.current.DisplayItemList().Clone()
	i := list.Append(displayitem.NewDrawing(client, displayitem.DrawingDebug, payload))
	list.SetSkippedCache(i)
	rect := client.VisualRect().Add(offset)
	list.SetVisualRect(i, rect)

	chunks := append([]chunk.Chunk(nil), c.current.Chunks()...)
	chunks = append(chunks, chunk.Chunk{
		Begin:      i,
		End:        i + 1,
		Properties: c.chunker.CurrentPaintChunkProperties(),
		Bounds:     rect,
	})
	c.current = artifact.New(list, chunks)
	c.resetCurrentListIndices()
}

// ApproximateUnsharedMemoryUsage estimates the bytes held by the controller.
func (c *Controller) ApproximateUnsharedMemoryUsage() int {
	n := c.current.ApproximateUnsharedMemoryUsage()
	n += c.newList.CapacityInBytes()
	n += cap(c.copied)
	for _, idx := range c.outOfOrder {
		n += cap(idx) * 8
	}
	return n
}

// SetDisplayItemConstructionIsDisabled toggles construction at runtime.
func (c *Controller) SetDisplayItemConstructionIsDisabled(disabled bool) {
	c.opts.constructionDisabled = disabled
}

// DisplayItemConstructionIsDisabled reports whether appended items are
// dropped.
func (c *Controller) DisplayItemConstructionIsDisabled() bool {
	return c.opts.constructionDisabled
}

// SetSubsequenceCachingIsDisabled toggles subsequence caching at runtime.
func (c *Controller) SetSubsequenceCachingIsDisabled(disabled bool) {
	c.opts.subsequenceCachingDisabled = disabled
}

// SubsequenceCachingIsDisabled reports whether subsequence requests always
// miss.
func (c *Controller) SubsequenceCachingIsDisabled() bool {
	return c.opts.subsequenceCachingDisabled
}

// TextPainted reports whether text was ever painted. It is never reset.
func (c *Controller) TextPainted() bool { return c.textPainted }

// SetTextPainted marks that text was painted.
func (c *Controller) SetTextPainted() { c.textPainted = true }

// ImagePainted reports whether an image was ever painted. It is never reset.
func (c *Controller) ImagePainted() bool { return c.imagePainted }

// SetImagePainted marks that an image was painted.
func (c *Controller) SetImagePainted() { c.imagePainted = true }

// Stats returns the counters of the pass being recorded.
func (c *Controller) Stats() Stats { return c.stats }

// LastPassStats returns the counters of the last committed pass.
func (c *Controller) LastPassStats() Stats { return c.lastPass }

// Close checks that the controller holds no uncommitted items. A pass must
// run to CommitNewDisplayItems before its controller is dropped.
func (c *Controller) Close() {
	if !c.newList.IsEmpty() {
		panic(fmt.Sprintf("paint: controller closed with %d uncommitted items", c.newList.Len()))
	}
}
