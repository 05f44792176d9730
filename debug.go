// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package paint

import (
	"fmt"
	"strings"

	"github.com/gogpu/paint/displayitem"
)

// DebugString returns a dump of the current and new display item lists.
func (c *Controller) DebugString() string {
	var sb strings.Builder
	sb.WriteString("current display item list:\n")
	c.writeList(&sb, c.current.DisplayItemList(), c.copied)
	sb.WriteString("new display item list:\n")
	c.writeList(&sb, c.newList, nil)
	return sb.String()
}

func (c *Controller) writeList(sb *strings.Builder, l *displayitem.List, copied []bool) {
	for i, item := range l.All() {
		mark := ""
		if copied != nil && copied[i] {
			mark = " (copied)"
		} else if item.IsCacheable() && c.ClientCacheIsValid(item.Client()) {
			mark = " (cached)"
		}
		fmt.Fprintf(sb, "  %d: %s%s\n", i, item, mark)
	}
}

// ShowDebugData logs DebugString at info level.
func (c *Controller) ShowDebugData() {
	c.logger().Info("paint: debug data", "lists", c.DebugString())
}
