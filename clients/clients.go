// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package clients assigns stable display item client identities to
// logically named content.
//
// A painter that rebuilds its objects every frame cannot use object
// addresses as client identities. A Table hands out one Client per name
// and keeps it, with its cache state, until the name is forgotten.
package clients

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/paint/displayitem"
	"github.com/gogpu/paint/internal/cache"
)

// Client is a named display item client. Its visual rect is set by the
// painter before each pass.
type Client struct {
	displayitem.CacheState

	id   displayitem.ClientID
	name string

	mu   sync.Mutex
	rect image.Rectangle
}

// ClientID implements displayitem.Client.
func (c *Client) ClientID() displayitem.ClientID { return c.id }

// DebugName implements displayitem.Client.
func (c *Client) DebugName() string { return c.name }

// VisualRect implements displayitem.Client.
func (c *Client) VisualRect() image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rect
}

// SetVisualRect sets the bounds reported at the next commit.
func (c *Client) SetVisualRect(r image.Rectangle) {
	c.mu.Lock()
	c.rect = r
	c.mu.Unlock()
}

// Name returns the name the client was created for.
func (c *Client) Name() string { return c.name }

// Table maps names to clients. It is safe for concurrent use, but a client
// must only be painted by one controller at a time.
type Table struct {
	clients *cache.Cache[string, *Client]
	lastID  atomic.Uint64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{clients: cache.New[string, *Client](0)}
}

// Get returns the client of name, creating it on first use. A new client
// has a fresh id and is just created, so it is painted rather than reused.
func (t *Table) Get(name string) *Client {
	return t.clients.GetOrCreate(name, func() *Client {
		return &Client{
			id:   displayitem.ClientID(t.lastID.Add(1)),
			name: name,
		}
	})
}

// Lookup returns the client of name if it exists.
func (t *Table) Lookup(name string) (*Client, bool) {
	return t.clients.Get(name)
}

// Forget drops the client of name. A later Get creates a client with a new
// identity, so nothing cached for the old one can be reused.
func (t *Table) Forget(name string) bool {
	return t.clients.Delete(name)
}

// Len returns the number of clients.
func (t *Table) Len() int { return t.clients.Len() }

// Names returns the client names, most recently used first.
func (t *Table) Names() []string { return t.clients.Keys() }

// InvalidateAll marks every client uncached.
func (t *Table) InvalidateAll() {
	for _, name := range t.clients.Keys() {
		if c, ok := t.clients.Get(name); ok {
			c.SetDisplayItemsUncached()
		}
	}
}
