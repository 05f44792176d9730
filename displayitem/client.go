// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package displayitem

import (
	"fmt"
	"image"
	"sync/atomic"
)

// ClientID is the stable identity of a display item client. It must stay
// the same for the logical lifetime of the painted content, even when the
// object backing the content is recreated between paint passes.
type ClientID uint64

// ID identifies a display item: the client that produced it and its type.
type ID struct {
	Client ClientID
	Type   Type
}

// String returns "client:type".
func (id ID) String() string {
	return fmt.Sprintf("%d:%s", id.Client, id.Type)
}

// CacheGeneration is a token stamped on clients whose display items were
// committed by a controller. A client's cached items are valid only while
// its stamp equals the controller's current generation.
type CacheGeneration uint32

const (
	// JustCreated is the stamp of a client that has never been committed.
	JustCreated CacheGeneration = iota
	// Invalidated never matches any client stamp.
	Invalidated

	firstGeneration
)

var lastGeneration atomic.Uint32

func init() {
	lastGeneration.Store(uint32(firstGeneration) - 1)
}

// NextCacheGeneration returns a generation that has never been returned
// before. It is safe for concurrent use.
func NextCacheGeneration() CacheGeneration {
	return CacheGeneration(lastGeneration.Add(1))
}

// IsValid reports whether g can mark a client cached.
func (g CacheGeneration) IsValid() bool {
	return g >= firstGeneration
}

// Client is the capability a controller needs from the object that
// produced display items.
//
// The cache-validity methods are written only by the controller driving
// the client's current paint pass, and by the painter when it invalidates
// the client between passes.
type Client interface {
	// ClientID returns the stable identity of the client.
	ClientID() ClientID
	// DebugName returns a name for diagnostics.
	DebugName() string
	// VisualRect returns the client's painted bounds in the space of the
	// object that owns the controller.
	VisualRect() image.Rectangle

	// DisplayItemsAreCached reports whether the client's items committed
	// under generation g are still valid.
	DisplayItemsAreCached(g CacheGeneration) bool
	// SetDisplayItemsCached stamps the client with g.
	SetDisplayItemsCached(g CacheGeneration)
	// SetDisplayItemsUncached drops the stamp, forcing a repaint.
	SetDisplayItemsUncached()
}

// CacheState implements the cache-validity half of Client and is meant to
// be embedded. The zero value is a just-created client.
type CacheState struct {
	generation CacheGeneration
}

// DisplayItemsAreCached implements Client.
func (s *CacheState) DisplayItemsAreCached(g CacheGeneration) bool {
	return g.IsValid() && s.generation == g
}

// SetDisplayItemsCached implements Client.
func (s *CacheState) SetDisplayItemsCached(g CacheGeneration) {
	s.generation = g
}

// SetDisplayItemsUncached implements Client.
func (s *CacheState) SetDisplayItemsUncached() {
	s.generation = Invalidated
}

// IsJustCreated reports whether the client has never been stamped or
// invalidated.
func (s *CacheState) IsJustCreated() bool {
	return s.generation == JustCreated
}
