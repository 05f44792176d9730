// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

// Node is an element of a List. It remembers its key so that evicting the
// oldest node can also remove the key from the owning map.
type Node[K comparable] struct {
	Key        K
	prev, next *Node[K]
}

// List is a doubly-linked recency list: the front is the most recently
// used key, the back the least recently used one.
//
// List is not safe for concurrent use; owners lock around it.
type List[K comparable] struct {
	front, back *Node[K]
	len         int
}

// Len returns the number of nodes.
func (l *List[K]) Len() int { return l.len }

// PushFront inserts key as the most recently used node.
func (l *List[K]) PushFront(key K) *Node[K] {
	n := &Node[K]{Key: key}
	l.linkFront(n)
	return n
}

// MoveToFront marks n as the most recently used node.
func (l *List[K]) MoveToFront(n *Node[K]) {
	if n == nil || n == l.front {
		return
	}
	l.unlink(n)
	l.linkFront(n)
}

// Remove unlinks n. A nil node is ignored.
func (l *List[K]) Remove(n *Node[K]) {
	if n != nil {
		l.unlink(n)
	}
}

// RemoveOldest unlinks the least recently used node and returns its key.
func (l *List[K]) RemoveOldest() (K, bool) {
	n := l.back
	if n == nil {
		var zero K
		return zero, false
	}
	l.unlink(n)
	return n.Key, true
}

// Oldest returns the key of the least recently used node.
func (l *List[K]) Oldest() (K, bool) {
	if l.back == nil {
		var zero K
		return zero, false
	}
	return l.back.Key, true
}

// Clear drops all nodes.
func (l *List[K]) Clear() { *l = List[K]{} }

func (l *List[K]) linkFront(n *Node[K]) {
	n.prev, n.next = nil, l.front
	if l.front != nil {
		l.front.prev = n
	}
	l.front = n
	if l.back == nil {
		l.back = n
	}
	l.len++
}

func (l *List[K]) unlink(n *Node[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.front = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.back = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}
