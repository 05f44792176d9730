// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package displayitem

import (
	"fmt"
	"image"
	"iter"
	"strings"
	"unsafe"
)

// header is the fixed-size part of an item. Payload bytes live in the
// list's shared arena at [offset, offset+length).
type header struct {
	id         ID
	flags      itemFlags
	offset     int
	length     int
	visualRect image.Rectangle
}

const headerSize = int(unsafe.Sizeof(header{}))

// List is an ordered, append-only sequence of display items.
//
// Fixed-size item headers are stored in one slice, variable-size payloads
// in a single growable byte arena, and client references in a parallel
// slice, so appending an item never allocates per item.
//
// List is not safe for concurrent use.
type List struct {
	headers []header
	clients []Client
	data    []byte
}

// NewList creates an empty list whose storage is sized for roughly
// capacityBytes of item headers and payloads.
func NewList(capacityBytes int) *List {
	if capacityBytes < 0 {
		capacityBytes = 0
	}
	n := capacityBytes / (headerSize + 16)
	return &List{
		headers: make([]header, 0, n),
		clients: make([]Client, 0, n),
		data:    make([]byte, 0, capacityBytes/2),
	}
}

// Len returns the number of items.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.headers)
}

// IsEmpty reports whether the list has no items.
func (l *List) IsEmpty() bool { return l.Len() == 0 }

// Append copies item into the list and returns its index. The payload is
// copied into the arena, so the caller may reuse its buffer.
func (l *List) Append(item Item) int {
	off := len(l.data)
	l.data = append(l.data, item.payload...)
	l.headers = append(l.headers, header{
		id:         item.id,
		flags:      item.flags,
		offset:     off,
		length:     len(item.payload),
		visualRect: item.visualRect,
	})
	l.clients = append(l.clients, item.client)
	return len(l.headers) - 1
}

// At returns the item at index i.
func (l *List) At(i int) Item {
	h := &l.headers[i]
	end := h.offset + h.length
	var payload []byte
	if h.length > 0 {
		payload = l.data[h.offset:end:end]
	}
	return Item{
		client:     l.clients[i],
		id:         h.id,
		flags:      h.flags,
		payload:    payload,
		visualRect: h.visualRect,
	}
}

// IDAt returns the identity of the item at index i without building an Item.
func (l *List) IDAt(i int) ID { return l.headers[i].id }

// IsCacheableAt reports whether the item at index i is cacheable.
func (l *List) IsCacheableAt(i int) bool {
	h := &l.headers[i]
	return isCacheable(h.id.Type, h.flags)
}

// Last returns the last item. It panics if the list is empty.
func (l *List) Last() Item { return l.At(len(l.headers) - 1) }

// RemoveLast drops the last item and releases its payload bytes.
func (l *List) RemoveLast() {
	n := len(l.headers) - 1
	if n < 0 {
		return
	}
	l.data = l.data[:l.headers[n].offset]
	l.headers = l.headers[:n]
	l.clients[n] = nil
	l.clients = l.clients[:n]
}

// SetSkippedCache marks the item at index i as created while skipping cache.
func (l *List) SetSkippedCache(i int) {
	l.headers[i].flags |= flagSkippedCache
}

// SetVisualRect assigns the visual rect of the item at index i.
func (l *List) SetVisualRect(i int, r image.Rectangle) {
	l.headers[i].visualRect = r
}

// All iterates over the items in order.
func (l *List) All() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		for i := range l.Len() {
			if !yield(i, l.At(i)) {
				return
			}
		}
	}
}

// UsedCapacityInBytes returns the bytes in use by headers and payloads.
// It is used as the capacity hint for the next pass's list.
func (l *List) UsedCapacityInBytes() int {
	if l == nil {
		return 0
	}
	return len(l.headers)*headerSize + len(l.data)
}

// CapacityInBytes returns the bytes allocated for headers and payloads.
func (l *List) CapacityInBytes() int {
	if l == nil {
		return 0
	}
	return cap(l.headers)*headerSize + cap(l.data) +
		cap(l.clients)*int(unsafe.Sizeof(Client(nil)))
}

// ShrinkToFit releases unused capacity. The list must not be appended to
// afterwards if the release matters.
func (l *List) ShrinkToFit() {
	if cap(l.headers) > len(l.headers) {
		l.headers = append([]header(nil), l.headers...)
		l.clients = append([]Client(nil), l.clients...)
	}
	if cap(l.data) > len(l.data) {
		l.data = append([]byte(nil), l.data...)
	}
}

// Clone returns a deep copy of the list.
func (l *List) Clone() *List {
	if l == nil {
		return NewList(0)
	}
	return &List{
		headers: append([]header(nil), l.headers...),
		clients: append([]Client(nil), l.clients...),
		data:    append([]byte(nil), l.data...),
	}
}

// String returns one line per item, prefixed with its index.
func (l *List) String() string {
	var sb strings.Builder
	for i, item := range l.All() {
		fmt.Fprintf(&sb, "%d: %s\n", i, item)
	}
	return sb.String()
}
