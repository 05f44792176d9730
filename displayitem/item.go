// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package displayitem

import (
	"bytes"
	"fmt"
	"image"
)

type itemFlags uint8

const (
	// flagSkippedCache marks items created while the controller was
	// skipping the cache. Such items are never matched against later.
	flagSkippedCache itemFlags = 1 << iota
)

// Item is one recorded paint operation or bracketing marker.
//
// Items read from a List alias the list's storage: the payload must not
// be modified and must not be retained beyond the list's lifetime.
type Item struct {
	client     Client
	id         ID
	flags      itemFlags
	payload    []byte
	visualRect image.Rectangle
}

// NewDrawing creates a drawing item. The payload is an opaque recording of
// the drawing; an empty payload draws nothing.
func NewDrawing(client Client, t Type, payload []byte) Item {
	if !t.IsDrawing() {
		panic("displayitem: NewDrawing with non-drawing type " + t.String())
	}
	return newItem(client, t, payload)
}

// NewForeignLayer creates an item standing for externally produced content.
func NewForeignLayer(client Client, t Type, payload []byte) Item {
	if !t.IsForeignLayer() {
		panic("displayitem: NewForeignLayer with non-foreign-layer type " + t.String())
	}
	return newItem(client, t, payload)
}

// NewBegin creates an item opening a bracket of type t.
func NewBegin(client Client, t Type) Item {
	if !t.IsBegin() {
		panic("displayitem: NewBegin with non-begin type " + t.String())
	}
	return newItem(client, t, nil)
}

// NewEnd creates an item closing a bracket of type t.
func NewEnd(client Client, t Type) Item {
	if !t.IsEnd() {
		panic("displayitem: NewEnd with non-end type " + t.String())
	}
	return newItem(client, t, nil)
}

func newItem(client Client, t Type, payload []byte) Item {
	if client == nil {
		panic("displayitem: nil client")
	}
	return Item{
		client:  client,
		id:      ID{Client: client.ClientID(), Type: t},
		payload: payload,
	}
}

// Client returns the client that produced the item.
func (it Item) Client() Client { return it.client }

// ID returns the identity of the item.
func (it Item) ID() ID { return it.id }

// Type returns the item type.
func (it Item) Type() Type { return it.id.Type }

// Payload returns the opaque drawing payload.
func (it Item) Payload() []byte { return it.payload }

// VisualRect returns the bounds assigned when the item was committed.
func (it Item) VisualRect() image.Rectangle { return it.visualRect }

// SkippedCache reports whether the item was created while skipping cache.
func (it Item) SkippedCache() bool { return it.flags&flagSkippedCache != 0 }

// IsDrawing reports whether the item is a drawing.
func (it Item) IsDrawing() bool { return it.id.Type.IsDrawing() }

// IsBegin reports whether the item opens a bracket.
func (it Item) IsBegin() bool { return it.id.Type.IsBegin() }

// IsEnd reports whether the item closes a bracket.
func (it Item) IsEnd() bool { return it.id.Type.IsEnd() }

// IsCacheable reports whether a later pass may reuse the item: drawings and
// subsequence starts not created while skipping cache.
func (it Item) IsCacheable() bool {
	return isCacheable(it.id.Type, it.flags)
}

func isCacheable(t Type, f itemFlags) bool {
	return (t.IsDrawing() || t == Subsequence) && f&flagSkippedCache == 0
}

// DrawsContent reports whether replaying the item produces pixels.
// Brackets never draw content.
func (it Item) DrawsContent() bool {
	switch {
	case it.id.Type.IsDrawing():
		return len(it.payload) > 0
	case it.id.Type.IsForeignLayer():
		return true
	default:
		return false
	}
}

// Equals reports whether two items have the same identity, flags, and
// byte-identical payloads.
func (it Item) Equals(other Item) bool {
	return it.id == other.id &&
		it.flags == other.flags &&
		bytes.Equal(it.payload, other.payload)
}

// String returns a debug representation of the item.
func (it Item) String() string {
	name := "<nil>"
	if it.client != nil {
		name = it.client.DebugName()
	}
	s := fmt.Sprintf("{%s %q %s", it.id.Type, name, it.visualRect)
	if len(it.payload) > 0 {
		s += fmt.Sprintf(" payload=%dB", len(it.payload))
	}
	if it.SkippedCache() {
		s += " skippedCache"
	}
	return s + "}"
}
