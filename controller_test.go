// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package paint

import (
	"image"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/paint/chunk"
	"github.com/gogpu/paint/displayitem"
	"github.com/gogpu/paint/picture"
)

type fakeClient struct {
	displayitem.CacheState
	id   displayitem.ClientID
	name string
	rect image.Rectangle
}

func (c *fakeClient) ClientID() displayitem.ClientID { return c.id }
func (c *fakeClient) DebugName() string              { return c.name }
func (c *fakeClient) VisualRect() image.Rectangle    { return c.rect }

var lastFakeID displayitem.ClientID

func newFake(name string) *fakeClient {
	lastFakeID++
	return &fakeClient{id: lastFakeID, name: name, rect: image.Rect(0, 0, 10, 10)}
}

const fg = displayitem.DrawingForeground

// drawOrReuse paints a one-byte drawing unless the cached one can be used.
// It reports whether the cache was used.
func drawOrReuse(pc *Controller, c displayitem.Client, t displayitem.Type, b byte) bool {
	if pc.UseCachedDrawingIfPossible(c, t) {
		return true
	}
	pc.CreateAndAppend(displayitem.NewDrawing(c, t, []byte{b}))
	return false
}

func ids(l *displayitem.List) []displayitem.ID {
	var out []displayitem.ID
	for _, item := range l.All() {
		out = append(out, item.ID())
	}
	return out
}

func id(c displayitem.Client, t displayitem.Type) displayitem.ID {
	return displayitem.ID{Client: c.ClientID(), Type: t}
}

func TestSequentialMatches(t *testing.T) {
	pc := NewController()
	a, b, c := newFake("a"), newFake("b"), newFake("c")

	for _, cl := range []*fakeClient{a, b, c} {
		assert.False(t, drawOrReuse(pc, cl, fg, 1), "first pass must miss")
	}
	pc.CommitNewDisplayItems(image.Point{})
	first := pc.PaintArtifact()

	for _, cl := range []*fakeClient{a, b, c} {
		assert.True(t, pc.UseCachedDrawingIfPossible(cl, fg), cl.name)
	}
	stats := pc.Stats()
	assert.Equal(t, 3, stats.SequentialMatches)
	assert.Equal(t, 0, stats.OutOfOrderMatches)
	assert.Equal(t, 3, stats.CachedNewItems)

	pc.CommitNewDisplayItems(image.Point{})
	assert.True(t, pc.PaintArtifact().Equal(first), "unchanged repaint must reproduce the artifact")
	assert.Equal(t, stats, pc.LastPassStats())
	assert.Equal(t, Stats{}, pc.Stats())
}

func TestOutOfOrderMatches(t *testing.T) {
	pc := NewController()
	a, b, c := newFake("a"), newFake("b"), newFake("c")
	for _, cl := range []*fakeClient{a, b, c} {
		drawOrReuse(pc, cl, fg, 1)
	}
	pc.CommitNewDisplayItems(image.Point{})
	for _, cl := range []*fakeClient{a, b, c} {
		require.True(t, pc.UseCachedDrawingIfPossible(cl, fg))
	}
	pc.CommitNewDisplayItems(image.Point{})

	for _, cl := range []*fakeClient{c, a, b} {
		require.True(t, pc.UseCachedDrawingIfPossible(cl, fg), cl.name)
	}
	stats := pc.Stats()
	assert.Equal(t, 0, stats.SequentialMatches)
	assert.Equal(t, 3, stats.OutOfOrderMatches)
	assert.Equal(t, []displayitem.ID{id(c, fg), id(a, fg), id(b, fg)}, ids(pc.NewDisplayItemList()))
	pc.CommitNewDisplayItems(image.Point{})
}

func TestIndexingIsLinear(t *testing.T) {
	const n = 200
	pc := NewController()
	clients := make([]*fakeClient, n)
	for i := range clients {
		clients[i] = newFake("c")
		drawOrReuse(pc, clients[i], fg, byte(i))
	}
	pc.CommitNewDisplayItems(image.Point{})

	// Reverse order is the worst case for the cursor.
	for i := n - 1; i >= 0; i-- {
		require.True(t, pc.UseCachedDrawingIfPossible(clients[i], fg))
	}
	stats := pc.Stats()
	assert.LessOrEqual(t, stats.IndexedItems, n)
	assert.Equal(t, n, stats.Matches())
	pc.CommitNewDisplayItems(image.Point{})

	// A shuffled order finds every item too.
	order := []int{5, 0, 199, 100, 1, 2, 150, 3}
	for _, i := range order {
		require.True(t, pc.UseCachedDrawingIfPossible(clients[i], fg))
	}
	assert.LessOrEqual(t, pc.Stats().IndexedItems, n)
	pc.CommitNewDisplayItems(image.Point{})
}

func TestRepeatedIdentityMatchesInOrder(t *testing.T) {
	pc := NewController()
	a := newFake("a")
	pc.CreateAndAppend(displayitem.NewDrawing(a, fg, []byte{1}))
	pc.CreateAndAppend(displayitem.NewDrawing(a, fg, []byte{2}))
	pc.CommitNewDisplayItems(image.Point{})

	require.True(t, pc.UseCachedDrawingIfPossible(a, fg))
	require.True(t, pc.UseCachedDrawingIfPossible(a, fg))
	assert.False(t, pc.UseCachedDrawingIfPossible(a, fg), "only two occurrences exist")

	l := pc.NewDisplayItemList()
	require.Equal(t, 2, l.Len())
	assert.Equal(t, []byte{1}, l.At(0).Payload())
	assert.Equal(t, []byte{2}, l.At(1).Payload())
	pc.CommitNewDisplayItems(image.Point{})
}

func TestInvalidatedClientRepaints(t *testing.T) {
	pc := NewController()
	a, b, c := newFake("a"), newFake("b"), newFake("c")
	for _, cl := range []*fakeClient{a, b, c} {
		drawOrReuse(pc, cl, fg, 1)
	}
	pc.CommitNewDisplayItems(image.Point{})

	b.SetDisplayItemsUncached()
	assert.True(t, drawOrReuse(pc, a, fg, 1))
	assert.False(t, drawOrReuse(pc, b, fg, 2))
	assert.True(t, drawOrReuse(pc, c, fg, 1))
	pc.CommitNewDisplayItems(image.Point{})

	art := pc.PaintArtifact()
	require.Equal(t, 3, art.Len())
	assert.Equal(t, []byte{2}, art.At(1).Payload())
	assert.True(t, pc.ClientCacheIsValid(b), "repainted client is cached again")
}

func TestRemovedClientDoesNotSurvive(t *testing.T) {
	pc := NewController()
	a, b := newFake("a"), newFake("b")
	drawOrReuse(pc, a, fg, 1)
	drawOrReuse(pc, b, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})

	require.True(t, pc.UseCachedDrawingIfPossible(a, fg))
	pc.CommitNewDisplayItems(image.Point{})

	assert.Equal(t, []displayitem.ID{id(a, fg)}, ids(pc.PaintArtifact().DisplayItemList()))
}

func TestInvalidateAll(t *testing.T) {
	pc := NewController()
	a, b := newFake("a"), newFake("b")
	drawOrReuse(pc, a, fg, 1)
	drawOrReuse(pc, b, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})
	require.False(t, pc.CacheIsEmpty())

	pc.InvalidateAll()
	assert.True(t, pc.CacheIsEmpty())
	assert.False(t, pc.ClientCacheIsValid(a))
	assert.False(t, drawOrReuse(pc, a, fg, 1))
	assert.False(t, drawOrReuse(pc, b, fg, 1))
	pc.CommitNewDisplayItems(image.Point{})

	assert.True(t, pc.UseCachedDrawingIfPossible(a, fg), "items are cached again after the next commit")
	pc.CommitNewDisplayItems(image.Point{})
}

func TestInvalidateAllDuringRecordingPanics(t *testing.T) {
	pc := NewController()
	pc.CreateAndAppend(displayitem.NewDrawing(newFake("a"), fg, nil))
	assert.Panics(t, pc.InvalidateAll)
	assert.Panics(t, func() { pc.PaintArtifact() })
	assert.Panics(t, pc.Close)
	pc.CommitNewDisplayItems(image.Point{})
	assert.NotPanics(t, pc.Close)
}

// paintSubsequence paints a subsequence of s containing one drawing per
// child, reusing the cache where possible.
func paintSubsequence(pc *Controller, s displayitem.Client, children ...displayitem.Client) bool {
	if pc.UseCachedSubsequenceIfPossible(s) {
		return true
	}
	pc.CreateAndAppend(displayitem.NewBegin(s, displayitem.Subsequence))
	for _, c := range children {
		drawOrReuse(pc, c, fg, 1)
	}
	pc.CreateAndAppend(displayitem.NewEnd(s, displayitem.EndSubsequence))
	return false
}

func TestSubsequenceCopy(t *testing.T) {
	pc := NewController()
	s, a, b, c := newFake("s"), newFake("a"), newFake("b"), newFake("c")

	paintSubsequence(pc, s, a, b)
	drawOrReuse(pc, c, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})
	first := pc.PaintArtifact()

	assert.True(t, paintSubsequence(pc, s, a, b))
	assert.True(t, drawOrReuse(pc, c, fg, 1))
	assert.Equal(t, 5, pc.Stats().CachedNewItems)
	pc.CommitNewDisplayItems(image.Point{})
	assert.True(t, pc.PaintArtifact().Equal(first))
}

func TestSubsequenceOutOfOrder(t *testing.T) {
	pc := NewController()
	s1, s2, a, b := newFake("s1"), newFake("s2"), newFake("a"), newFake("b")
	paintSubsequence(pc, s1, a)
	paintSubsequence(pc, s2, b)
	pc.CommitNewDisplayItems(image.Point{})

	require.True(t, paintSubsequence(pc, s2, b))
	require.True(t, paintSubsequence(pc, s1, a))
	assert.Equal(t, []displayitem.ID{
		id(s2, displayitem.Subsequence), id(b, fg), id(s2, displayitem.EndSubsequence),
		id(s1, displayitem.Subsequence), id(a, fg), id(s1, displayitem.EndSubsequence),
	}, ids(pc.NewDisplayItemList()))
	pc.CommitNewDisplayItems(image.Point{})
}

func TestNestedSubsequence(t *testing.T) {
	pc := NewController()
	outer, inner, a, b := newFake("outer"), newFake("inner"), newFake("a"), newFake("b")
	paint := func() bool {
		if pc.UseCachedSubsequenceIfPossible(outer) {
			return true
		}
		pc.CreateAndAppend(displayitem.NewBegin(outer, displayitem.Subsequence))
		drawOrReuse(pc, a, fg, 1)
		paintSubsequence(pc, inner, b)
		pc.CreateAndAppend(displayitem.NewEnd(outer, displayitem.EndSubsequence))
		return false
	}
	require.False(t, paint())
	pc.CommitNewDisplayItems(image.Point{})
	first := pc.PaintArtifact()

	// Invalidating the inner content forces the outer subsequence to be
	// repainted, while the untouched inner pieces still come from cache.
	b.SetDisplayItemsUncached()
	outer.SetDisplayItemsUncached()
	inner.SetDisplayItemsUncached()
	require.False(t, paint())
	pc.CommitNewDisplayItems(image.Point{})
	assert.True(t, pc.PaintArtifact().Equal(first))

	require.True(t, paint())
	assert.Equal(t, 6, pc.Stats().CachedNewItems)
	pc.CommitNewDisplayItems(image.Point{})
}

func TestSubsequenceAtomicity(t *testing.T) {
	pc := NewController()
	s, a := newFake("s"), newFake("a")
	// An unclosed subsequence cannot be copied.
	pc.CreateAndAppend(displayitem.NewBegin(s, displayitem.Subsequence))
	drawOrReuse(pc, a, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})

	assert.False(t, pc.UseCachedSubsequenceIfPossible(s))
	assert.True(t, pc.NewDisplayItemList().IsEmpty(), "failed copy must not append anything")
	assert.True(t, pc.UseCachedDrawingIfPossible(a, fg), "items of the failed subsequence stay reusable")
	pc.CommitNewDisplayItems(image.Point{})
}

func TestUnclosedSubsequenceIndexedOnce(t *testing.T) {
	pc := NewController()
	s, a := newFake("s"), newFake("a")
	pc.CreateAndAppend(displayitem.NewBegin(s, displayitem.Subsequence))
	drawOrReuse(pc, a, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})

	assert.False(t, pc.UseCachedSubsequenceIfPossible(s))
	assert.False(t, pc.UseCachedSubsequenceIfPossible(s))
	assert.Equal(t, []int{0}, pc.outOfOrder[s.ClientID()])
	pc.CommitNewDisplayItems(image.Point{})
}

func TestSkippedCacheInsideSubsequence(t *testing.T) {
	pc := NewController()
	outer, inner, other := newFake("outer"), newFake("inner"), newFake("other")
	caret, a := newFake("caret"), newFake("a")

	paintPass := func(b byte) {
		if !pc.UseCachedSubsequenceIfPossible(outer) {
			pc.CreateAndAppend(displayitem.NewBegin(outer, displayitem.Subsequence))
			if !pc.UseCachedSubsequenceIfPossible(inner) {
				pc.CreateAndAppend(displayitem.NewBegin(inner, displayitem.Subsequence))
				pc.BeginSkippingCache()
				pc.CreateAndAppend(displayitem.NewDrawing(caret, fg, []byte{b}))
				pc.EndSkippingCache()
				pc.CreateAndAppend(displayitem.NewEnd(inner, displayitem.EndSubsequence))
			}
			pc.CreateAndAppend(displayitem.NewEnd(outer, displayitem.EndSubsequence))
		}
		paintSubsequence(pc, other, a)
		pc.CommitNewDisplayItems(image.Point{})
	}

	paintPass(1)
	assert.False(t, pc.ClientCacheIsValid(outer), "enclosing subsequences replay skipped items")
	assert.False(t, pc.ClientCacheIsValid(inner))
	assert.False(t, pc.ClientCacheIsValid(caret))
	assert.True(t, pc.ClientCacheIsValid(other))

	paintPass(2)
	list := pc.PaintArtifact().DisplayItemList()
	require.Equal(t, 8, list.Len())
	assert.Equal(t, []byte{2}, list.At(2).Payload(), "skipped drawing is repainted")
	assert.True(t, list.At(2).SkippedCache())
	assert.Equal(t, 3, pc.LastPassStats().CachedNewItems, "only the other subsequence is copied")
}

func TestUnderInvalidationCheckedSubsequenceKeepsOrder(t *testing.T) {
	var reports []*UnderInvalidationError
	pc := NewController(
		WithUnderInvalidationChecking(true),
		WithUnderInvalidationHandler(func(err *UnderInvalidationError) { reports = append(reports, err) }),
	)
	s, a, c := newFake("s"), newFake("a"), newFake("c")
	paintSubsequence(pc, s, a)
	drawOrReuse(pc, c, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})

	assert.False(t, paintSubsequence(pc, s, a))
	assert.False(t, drawOrReuse(pc, c, fg, 1))
	stats := pc.Stats()
	assert.Equal(t, 2, stats.SequentialMatches)
	assert.Equal(t, 0, stats.OutOfOrderMatches)
	pc.CommitNewDisplayItems(image.Point{})
	assert.Empty(t, reports)
}

func TestDiscardNewDisplayItems(t *testing.T) {
	pc := NewController()
	a, b := newFake("a"), newFake("b")
	drawOrReuse(pc, a, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})

	assert.True(t, drawOrReuse(pc, a, fg, 1))
	pc.UpdateCurrentPaintChunkProperties(nil, chunk.Properties{BackfaceHidden: true})
	pc.BeginSkippingCache()
	drawOrReuse(pc, b, fg, 1)
	pc.DiscardNewDisplayItems()

	assert.False(t, pc.IsSkippingCache())
	assert.True(t, pc.NewDisplayItemList().IsEmpty())
	assert.True(t, pc.CacheIsEmpty())
	assert.Equal(t, chunk.Properties{}, pc.CurrentPaintChunkProperties())
	assert.False(t, pc.ClientCacheIsValid(a))

	assert.False(t, drawOrReuse(pc, a, fg, 1))
	pc.CommitNewDisplayItems(image.Point{})
	assert.Equal(t, 1, pc.PaintArtifact().Len())
	assert.True(t, pc.ClientCacheIsValid(a))
}

func TestSubsequenceCachingDisabled(t *testing.T) {
	pc := NewController(WithSubsequenceCachingDisabled(true))
	s, a := newFake("s"), newFake("a")
	paintSubsequence(pc, s, a)
	pc.CommitNewDisplayItems(image.Point{})

	assert.True(t, pc.SubsequenceCachingIsDisabled())
	assert.False(t, paintSubsequence(pc, s, a))
	assert.Equal(t, 1, pc.Stats().CachedNewItems, "the drawing inside is still cached")
	pc.CommitNewDisplayItems(image.Point{})

	pc.SetSubsequenceCachingIsDisabled(false)
	assert.True(t, paintSubsequence(pc, s, a))
	pc.CommitNewDisplayItems(image.Point{})
}

func TestNoopPairElision(t *testing.T) {
	pc := NewController()
	c, a := newFake("clip"), newFake("a")

	pc.CreateAndAppend(displayitem.NewBegin(c, displayitem.BeginClip))
	assert.True(t, pc.LastDisplayItemIsNoopBegin())
	pc.EndItem(displayitem.NewEnd(c, displayitem.EndClip))
	assert.True(t, pc.NewDisplayItemList().IsEmpty())

	pc.CreateAndAppend(displayitem.NewBegin(c, displayitem.BeginClip))
	drawOrReuse(pc, a, fg, 1)
	assert.False(t, pc.LastDisplayItemIsNoopBegin())
	pc.EndItem(displayitem.NewEnd(c, displayitem.EndClip))
	assert.Equal(t, 3, pc.NewDisplayItemList().Len())

	last, ok := pc.LastDisplayItem(0)
	require.True(t, ok)
	assert.Equal(t, displayitem.EndClip, last.Type())
	first, ok := pc.LastDisplayItem(2)
	require.True(t, ok)
	assert.Equal(t, displayitem.BeginClip, first.Type())
	_, ok = pc.LastDisplayItem(3)
	assert.False(t, ok)

	pc.CommitNewDisplayItems(image.Point{})
	assert.Len(t, pc.PaintArtifact().Chunks(), 1)
}

func TestEndItemMismatchPanics(t *testing.T) {
	pc := NewController()
	c := newFake("c")
	pc.CreateAndAppend(displayitem.NewBegin(c, displayitem.BeginClip))
	assert.Panics(t, func() { pc.EndItem(displayitem.NewEnd(c, displayitem.EndTransform)) })
	assert.Panics(t, func() { pc.EndItem(displayitem.NewBegin(c, displayitem.BeginClip)) })
}

func TestSkippingCache(t *testing.T) {
	pc := NewController()
	a, b := newFake("a"), newFake("b")
	drawOrReuse(pc, a, fg, 1)
	drawOrReuse(pc, b, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})

	assert.True(t, drawOrReuse(pc, a, fg, 1))
	pc.BeginSkippingCache()
	pc.BeginSkippingCache()
	assert.True(t, pc.IsSkippingCache())
	assert.False(t, pc.ClientCacheIsValid(b))
	assert.False(t, drawOrReuse(pc, b, fg, 1))
	pc.EndSkippingCache()
	assert.True(t, pc.IsSkippingCache())
	assert.Panics(t, func() { pc.CommitNewDisplayItems(image.Point{}) })
	pc.EndSkippingCache()
	assert.Panics(t, pc.EndSkippingCache)

	last, _ := pc.LastDisplayItem(0)
	assert.True(t, last.SkippedCache())
	assert.False(t, last.IsCacheable())
	pc.CommitNewDisplayItems(image.Point{})

	assert.True(t, pc.ClientCacheIsValid(a))
	assert.False(t, pc.ClientCacheIsValid(b), "skipped-cache client must repaint")
	chunks := pc.PaintArtifact().Chunks()
	require.Len(t, chunks, 1)
}

func TestChunksAndVisualRects(t *testing.T) {
	pc := NewController()
	a, b := newFake("a"), newFake("b")
	b.rect = image.Rect(20, 20, 30, 30)
	p1 := chunk.Properties{Effect: chunk.NewEffectNode(nil, 1)}
	p2 := chunk.Properties{Effect: chunk.NewEffectNode(nil, 0.5)}

	pc.UpdateCurrentPaintChunkProperties(nil, p1)
	assert.Equal(t, p1, pc.CurrentPaintChunkProperties())
	drawOrReuse(pc, a, fg, 1)
	pc.UpdateCurrentPaintChunkProperties(nil, p2)
	drawOrReuse(pc, b, fg, 1)
	pc.CommitNewDisplayItems(image.Pt(5, 5))

	art := pc.PaintArtifact()
	chunks := art.Chunks()
	require.Len(t, chunks, 2)
	assert.Equal(t, image.Rect(5, 5, 15, 15), chunks[0].Bounds)
	assert.Equal(t, image.Rect(25, 25, 35, 35), chunks[1].Bounds)
	assert.Equal(t, image.Rect(25, 25, 35, 35), art.At(1).VisualRect())
	assert.Equal(t, 1, art.FindChunkByDisplayItemIndex(1))
}

func TestSubsequenceRestoresChunkProperties(t *testing.T) {
	pc := NewController()
	s, a, b := newFake("s"), newFake("a"), newFake("b")
	p1 := chunk.Properties{BackfaceHidden: true}
	p2 := chunk.Properties{Clip: chunk.NewClipNode(nil, nil, image.Rect(0, 0, 5, 5))}

	pc.UpdateCurrentPaintChunkProperties(nil, p1)
	paintSubsequence(pc, s, a)
	pc.UpdateCurrentPaintChunkProperties(nil, p2)
	drawOrReuse(pc, b, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})
	first := pc.PaintArtifact()

	// The painter is already in p2 when it reuses the subsequence.
	pc.UpdateCurrentPaintChunkProperties(nil, p2)
	require.True(t, paintSubsequence(pc, s, a))
	assert.Equal(t, p2, pc.CurrentPaintChunkProperties(), "painter properties are reinstated")
	require.True(t, drawOrReuse(pc, b, fg, 1))
	pc.CommitNewDisplayItems(image.Point{})

	assert.True(t, pc.PaintArtifact().Equal(first))
}

func TestUnderInvalidationChecking(t *testing.T) {
	var reports []*UnderInvalidationError
	pc := NewController(
		WithUnderInvalidationChecking(true),
		WithUnderInvalidationHandler(func(err *UnderInvalidationError) { reports = append(reports, err) }),
	)
	a, b := newFake("a"), newFake("b")
	drawOrReuse(pc, a, fg, 1)
	drawOrReuse(pc, b, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})
	first := pc.PaintArtifact()

	// Correctly cached content repaints identically.
	assert.False(t, drawOrReuse(pc, a, fg, 1), "checking turns hits into repaints")
	assert.False(t, drawOrReuse(pc, b, fg, 1))
	pc.CommitNewDisplayItems(image.Point{})
	assert.Empty(t, reports)
	assert.True(t, pc.PaintArtifact().Equal(first))

	// b changed without being invalidated.
	drawOrReuse(pc, a, fg, 1)
	drawOrReuse(pc, b, fg, 2)
	pc.CommitNewDisplayItems(image.Point{})
	require.Len(t, reports, 1)
	assert.Equal(t, id(b, fg), reports[0].NewItem.ID())
	assert.True(t, reports[0].HasOldItem)
	assert.Equal(t, []byte{1}, reports[0].OldItem.Payload())
	assert.Contains(t, reports[0].Error(), "under-invalidation")
}

func TestUnderInvalidationInSubsequence(t *testing.T) {
	var reports []*UnderInvalidationError
	pc := NewController(
		WithUnderInvalidationChecking(true),
		WithUnderInvalidationHandler(func(err *UnderInvalidationError) { reports = append(reports, err) }),
	)
	s, a := newFake("s"), newFake("a")
	paintSubsequence(pc, s, a)
	pc.CommitNewDisplayItems(image.Point{})

	assert.False(t, paintSubsequence(pc, s, a))
	pc.CommitNewDisplayItems(image.Point{})
	assert.Empty(t, reports)

	// Repaint the subsequence with different content.
	require.False(t, pc.UseCachedSubsequenceIfPossible(s))
	pc.CreateAndAppend(displayitem.NewBegin(s, displayitem.Subsequence))
	pc.CreateAndAppend(displayitem.NewDrawing(a, fg, []byte{9}))
	pc.CreateAndAppend(displayitem.NewEnd(s, displayitem.EndSubsequence))
	pc.CommitNewDisplayItems(image.Point{})
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Context, "s")
}

func TestUnderInvalidationDefaultHandlerPanics(t *testing.T) {
	pc := NewController(WithUnderInvalidationChecking(true))
	a := newFake("a")
	drawOrReuse(pc, a, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})

	require.False(t, pc.UseCachedDrawingIfPossible(a, fg))
	assert.Panics(t, func() { pc.CreateAndAppend(displayitem.NewDrawing(a, fg, []byte{2})) })
}

func TestDuplicateIDChecking(t *testing.T) {
	pc := NewController(WithDuplicateIDChecking(true))
	a := newFake("a")
	pc.CreateAndAppend(displayitem.NewDrawing(a, fg, nil))
	assert.Panics(t, func() { pc.CreateAndAppend(displayitem.NewDrawing(a, fg, nil)) })

	pc2 := NewController(WithDuplicateIDChecking(true))
	pc2.CreateAndAppend(displayitem.NewDrawing(a, fg, nil))
	pc2.RemoveLastDisplayItem()
	assert.NotPanics(t, func() { pc2.CreateAndAppend(displayitem.NewDrawing(a, fg, nil)) })
}

func TestConstructionDisabled(t *testing.T) {
	pc := NewController(WithConstructionDisabled(true))
	a := newFake("a")
	pc.CreateAndAppend(displayitem.NewDrawing(a, fg, nil))
	assert.True(t, pc.NewDisplayItemList().IsEmpty())
	assert.True(t, pc.DisplayItemConstructionIsDisabled())

	pc.SetDisplayItemConstructionIsDisabled(false)
	pc.CreateAndAppend(displayitem.NewDrawing(a, fg, nil))
	assert.Equal(t, 1, pc.NewDisplayItemList().Len())
	pc.CommitNewDisplayItems(image.Point{})
}

func TestTextAndImagePainted(t *testing.T) {
	pc := NewController()
	a, b := newFake("a"), newFake("b")
	assert.False(t, pc.TextPainted())

	var rec picture.Recorder
	rec.DrawText("hi", fixed.P(0, 10), gputypes.Color{A: 1})
	pc.CreateAndAppend(displayitem.NewDrawing(a, displayitem.DrawingText, rec.Bytes()))
	assert.True(t, pc.TextPainted())
	assert.False(t, pc.ImagePainted())

	pc.CreateAndAppend(displayitem.NewDrawing(b, fg, []byte{0xff}))
	pc.SetImagePainted()
	assert.True(t, pc.ImagePainted())
	pc.CommitNewDisplayItems(image.Point{})
	assert.True(t, pc.TextPainted(), "flags are never reset")
}

func TestAppendDebugDrawingAfterCommit(t *testing.T) {
	pc := NewController()
	a, dbg := newFake("a"), newFake("debug")
	drawOrReuse(pc, a, fg, 1)
	pc.CommitNewDisplayItems(image.Point{})
	before := pc.PaintArtifact()

	pc.AppendDebugDrawingAfterCommit(dbg, []byte{7}, image.Pt(1, 1))
	after := pc.PaintArtifact()
	assert.Equal(t, 1, before.Len(), "committed artifact is not modified")
	require.Equal(t, 2, after.Len())
	item := after.At(1)
	assert.Equal(t, displayitem.DrawingDebug, item.Type())
	assert.True(t, item.SkippedCache())
	assert.Equal(t, image.Rect(1, 1, 11, 11), item.VisualRect())

	assert.True(t, drawOrReuse(pc, a, fg, 1))
	pc.CommitNewDisplayItems(image.Point{})
	assert.Equal(t, 1, pc.PaintArtifact().Len())
}

func TestMemoryUsageAndDebugString(t *testing.T) {
	pc := NewController(WithInitialCapacity(4096))
	a := newFake("a")
	empty := pc.ApproximateUnsharedMemoryUsage()
	drawOrReuse(pc, a, fg, 1)
	assert.Contains(t, pc.DebugString(), "new display item list:")
	pc.CommitNewDisplayItems(image.Point{})
	assert.Greater(t, pc.ApproximateUnsharedMemoryUsage(), empty)
	assert.Contains(t, pc.DebugString(), "(cached)")
	pc.ShowDebugData()
}

func TestUseCachedDrawingRejectsBrackets(t *testing.T) {
	pc := NewController()
	assert.Panics(t, func() { pc.UseCachedDrawingIfPossible(newFake("a"), displayitem.BeginClip) })
}

func BenchmarkSequentialPass(b *testing.B) {
	pc := NewController()
	clients := make([]*fakeClient, 1000)
	for i := range clients {
		clients[i] = newFake("c")
		drawOrReuse(pc, clients[i], fg, byte(i))
	}
	pc.CommitNewDisplayItems(image.Point{})

	for b.Loop() {
		for _, c := range clients {
			pc.UseCachedDrawingIfPossible(c, fg)
		}
		pc.CommitNewDisplayItems(image.Point{})
	}
}
