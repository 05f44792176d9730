// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package paint implements an incremental display item cache for
// retained-mode painting.
//
// # Overview
//
// A painter records display items (drawings and begin/end brackets) into a
// [Controller] once per paint pass. Items whose clients did not change
// since the previous pass do not have to be repainted: the painter asks the
// controller to reuse them with [Controller.UseCachedDrawingIfPossible] or,
// for whole painted subtrees, [Controller.UseCachedSubsequenceIfPossible].
// At the end of the pass [Controller.CommitNewDisplayItems] turns the new
// list into the [artifact.Artifact] consumed by a compositor and used as
// the cache of the next pass.
//
// # Quick Start
//
//	pc := paint.NewController()
//
//	// Every pass:
//	if !pc.UseCachedDrawingIfPossible(box, displayitem.DrawingBoxDecorationBackground) {
//	    var rec picture.Recorder
//	    rec.FillRect(bounds, color)
//	    pc.CreateAndAppend(displayitem.NewDrawing(box, displayitem.DrawingBoxDecorationBackground, rec.Bytes()))
//	}
//	pc.CommitNewDisplayItems(image.Point{})
//	art := pc.PaintArtifact()
//
// The recorder package wraps these calls for common cases.
//
// # Matching
//
// The painter usually emits items in nearly the same order as before, so a
// lookup first checks the item at the match cursor. On a miss the
// controller consults an index of the current list, which it extends lazily
// by scanning forward from where indexing last stopped. Every item is
// indexed at most once per pass, keeping a pass linear in the size of the
// current list however out of order the requests are. [Stats] exposes the
// counters.
//
// # Invalidation
//
// Each client carries a cache generation stamp. A commit stamps the clients
// of cacheable items with a fresh generation; a client is reusable only
// while its stamp equals the controller's generation. Painters invalidate a
// client by calling its SetDisplayItemsUncached, and [Controller.InvalidateAll]
// invalidates everything.
//
// # Debugging
//
// [WithUnderInvalidationChecking] turns every cache hit into a repaint and
// compares the result with the cached item, reporting clients that changed
// without being invalidated.
//
// # Concurrency
//
// A Controller is not safe for concurrent use. Different controllers may be
// driven from different goroutines as long as they share no clients; see
// the layers package.
package paint
