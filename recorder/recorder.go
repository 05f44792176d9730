// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package recorder wraps the paint.Controller calls a painter makes around
// each piece of content: try the cache, otherwise record, and keep begin
// and end items balanced.
//
//	recorder.Subsequence(pc, card, func() {
//	    recorder.Drawing(pc, card, displayitem.DrawingBoxDecorationBackground, func(r *picture.Recorder) {
//	        r.FillRect(bounds, bg)
//	    })
//	    recorder.Bracket(pc, card, displayitem.BeginClip, func() {
//	        paintChildren()
//	    })
//	})
package recorder

import (
	"github.com/gogpu/paint"
	"github.com/gogpu/paint/chunk"
	"github.com/gogpu/paint/displayitem"
	"github.com/gogpu/paint/picture"
)

// Drawing appends the drawing of type t of client, reusing the cached one
// when the client is valid and recording it with fn otherwise. It reports
// whether the cached drawing was used.
func Drawing(pc *paint.Controller, client displayitem.Client, t displayitem.Type, fn func(r *picture.Recorder)) bool {
	if pc.UseCachedDrawingIfPossible(client, t) {
		return true
	}
	if pc.DisplayItemConstructionIsDisabled() {
		return false
	}
	r := picture.GetRecorder()
	defer picture.PutRecorder(r)
	fn(r)
	pc.CreateAndAppend(displayitem.NewDrawing(client, t, r.Bytes()))
	return false
}

// Subsequence appends the whole cached subsequence of client, or brackets
// what fn paints with subsequence begin and end items. It reports whether
// the cached subsequence was used.
//
// A subsequence that painted nothing is kept when it can be matched in a
// later pass and removed when it was created while skipping cache.
func Subsequence(pc *paint.Controller, client displayitem.Client, fn func()) bool {
	if pc.UseCachedSubsequenceIfPossible(client) {
		return true
	}
	pc.CreateAndAppend(displayitem.NewBegin(client, displayitem.Subsequence))
	fn()
	if pc.DisplayItemConstructionIsDisabled() {
		return false
	}
	if pc.LastDisplayItemIsNoopBegin() {
		if last, _ := pc.LastDisplayItem(0); last.SkippedCache() {
			pc.RemoveLastDisplayItem()
			return false
		}
	}
	pc.CreateAndAppend(displayitem.NewEnd(client, displayitem.EndSubsequence))
	return false
}

// Bracket appends a begin item of type begin, runs fn, and closes the
// bracket. A bracket around nothing is dropped entirely.
func Bracket(pc *paint.Controller, client displayitem.Client, begin displayitem.Type, fn func()) {
	pc.CreateAndAppend(displayitem.NewBegin(client, begin))
	fn()
	pc.EndItem(displayitem.NewEnd(client, begin.EndType()))
}

// ScopedProperties paints fn with props as the current chunk properties
// and restores the previous properties afterwards. A non-nil id names the
// chunk started for fn's items.
func ScopedProperties(pc *paint.Controller, id *displayitem.ID, props chunk.Properties, fn func()) {
	prev := pc.CurrentPaintChunkProperties()
	pc.UpdateCurrentPaintChunkProperties(id, props)
	defer pc.UpdateCurrentPaintChunkProperties(nil, prev)
	fn()
}

// SkipCache paints fn without reusing or caching any of its items.
func SkipCache(pc *paint.Controller, fn func()) {
	pc.BeginSkippingCache()
	defer pc.EndSkippingCache()
	fn()
}
