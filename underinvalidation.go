// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package paint

import (
	"fmt"

	"github.com/gogpu/paint/displayitem"
)

// UnderInvalidationError reports a client whose repainted output differs
// from its cached output although the client was not invalidated.
type UnderInvalidationError struct {
	// Reason describes the kind of mismatch.
	Reason string
	// Context names the cached subsequence being checked, if any.
	Context string
	// NewItem is the repainted item.
	NewItem displayitem.Item
	// OldItem is the cached item. HasOldItem is false when the repainted
	// output is longer than the cached range.
	OldItem    displayitem.Item
	HasOldItem bool
}

func (e *UnderInvalidationError) Error() string {
	s := "paint: " + e.Reason
	if e.Context != "" {
		s += " " + e.Context
	}
	s += fmt.Sprintf(": new %s", e.NewItem)
	if e.HasOldItem {
		s += fmt.Sprintf(", old %s", e.OldItem)
	} else {
		s += ", no old item"
	}
	return s
}

// UnderInvalidationHandler receives under-invalidation reports. If it
// returns, the controller keeps the repainted items and stops checking the
// current cached range.
type UnderInvalidationHandler func(err *UnderInvalidationError)

func (c *Controller) reportUnderInvalidation(err *UnderInvalidationError) {
	if c.opts.underInvalidationHandler != nil {
		c.opts.underInvalidationHandler(err)
		return
	}
	c.logger().Error("paint: under-invalidation",
		"reason", err.Reason,
		"context", err.Context,
		"new", err.NewItem.String(),
		"old", err.OldItem.String())
	panic(err)
}

func (c *Controller) isCheckingUnderInvalidation() bool {
	return c.uiEnd > c.uiBegin
}

func (c *Controller) startCheckingUnderInvalidation(begin, end int, context string) {
	c.uiStart, c.uiBegin, c.uiEnd = begin, begin, end
	c.uiSkipped = 0
	c.uiContext = context
}

func (c *Controller) stopCheckingUnderInvalidation() {
	c.uiStart, c.uiBegin, c.uiEnd = 0, 0, 0
	c.uiSkipped = 0
	c.uiContext = ""
}

// checkUnderInvalidation compares the item just appended with the next
// item of the cached range. On a match the repainted item is replaced by
// the cached one so the new list looks as if the cache had been used.
func (c *Controller) checkUnderInvalidation() {
	if !c.isCheckingUnderInvalidation() {
		return
	}
	n := c.newList.Len()
	newItem := c.newList.Last()
	current := c.current.DisplayItemList()
	oldIndex := c.uiBegin + c.uiSkipped
	hasOld := oldIndex < current.Len()

	equal := hasOld && newItem.Equals(current.At(oldIndex))
	if !equal {
		if newItem.IsBegin() {
			// The begin may still be removed as half of a no-op pair.
			c.uiSkipped++
			return
		}
		if newItem.IsDrawing() && c.uiSkipped == 1 && n >= 2 &&
			c.newList.IDAt(n-2).Type == displayitem.BeginCompositing {
			// The drawing may be folded into the preceding compositing.
			c.uiSkipped++
			return
		}
	}

	if c.uiSkipped > 0 || !equal {
		// Report the earliest mismatch.
		err := &UnderInvalidationError{
			Reason:  "under-invalidation: display item changed",
			Context: c.uiContext,
			NewItem: c.newList.At(n - c.uiSkipped - 1),
		}
		if c.uiBegin < current.Len() {
			err.OldItem = current.At(c.uiBegin)
			err.HasOldItem = true
		}
		c.stopCheckingUnderInvalidation()
		c.reportUnderInvalidation(err)
		return
	}

	c.newList.RemoveLast()
	c.newList.Append(current.At(oldIndex))
	c.copied[oldIndex] = true
	c.uiBegin++
	if c.uiBegin == c.uiEnd {
		// The whole range was repainted as cached; match after it.
		c.advanceCursors(c.uiEnd)
		c.stopCheckingUnderInvalidation()
	}
}

// reportUnfinishedUnderInvalidationCheck reports a cached range that was
// only partly repainted when the pass was committed.
func (c *Controller) reportUnfinishedUnderInvalidationCheck() {
	err := &UnderInvalidationError{Context: c.uiContext}
	if c.uiSkipped > 0 {
		err.Reason = "under-invalidation: display item changed"
		err.NewItem = c.newList.At(c.newList.Len() - c.uiSkipped)
	} else {
		err.Reason = "under-invalidation: cached items not repainted"
	}
	current := c.current.DisplayItemList()
	if c.uiBegin < current.Len() {
		err.OldItem = current.At(c.uiBegin)
		err.HasOldItem = true
		if c.uiSkipped == 0 {
			err.NewItem = err.OldItem
		}
	}
	c.stopCheckingUnderInvalidation()
	c.reportUnderInvalidation(err)
}
