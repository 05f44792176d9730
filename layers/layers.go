// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package layers keeps one paint.Controller per compositing layer and
// paints the layers of a frame in parallel.
//
// Each layer's controller is driven by exactly one goroutine during
// PaintAll. Layers must not share display item clients, since a client's
// cache state belongs to the controller that last committed it.
package layers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/gogpu/paint"
	"github.com/gogpu/paint/artifact"
	"github.com/gogpu/paint/cache"
	"github.com/gogpu/paint/internal/parallel"
)

var (
	// ErrLayerExists is returned by Add for an id already in the set.
	ErrLayerExists = errors.New("layers: layer already exists")
	// ErrUnknownLayer is returned for passes naming a layer not in the set.
	ErrUnknownLayer = errors.New("layers: unknown layer")
)

// ID identifies a layer.
type ID uint64

// Pass paints one layer's display items into pc. The set commits them
// afterwards.
type Pass func(ctx context.Context, pc *paint.Controller) error

type layer struct {
	id     ID
	offset image.Point

	// mu is held while a pass drives pc.
	mu sync.Mutex
	pc *paint.Controller
}

// Set is a collection of layers. Add, Remove, and lookups are safe for
// concurrent use; PaintAll must not run concurrently with itself. Artifacts
// and Stats wait for a layer's running pass to commit.
//
// A layer keeps the same controller for its lifetime, so the controller
// returned by Add stays valid after failed passes.
//
// The set holds at most cache.DefaultCapacity layers per shard. When a
// shard overflows, its least recently painted layer is dropped and starts
// from an empty cache if added again.
type Set struct {
	layers *cache.ShardedCache[uint64, *layer]
	pool   *parallel.WorkerPool
	opts   []paint.Option
}

// NewSet creates a set painting on workers goroutines (GOMAXPROCS when
// non-positive). opts configure every layer's controller.
func NewSet(workers int, opts ...paint.Option) *Set {
	return &Set{
		layers: cache.NewSharded[uint64, *layer](cache.DefaultCapacity, cache.Uint64Hasher),
		pool:   parallel.NewWorkerPool(workers),
		opts:   opts,
	}
}

// Add creates layer id whose client visual rects are translated by offset
// at commit.
func (s *Set) Add(id ID, offset image.Point) (*paint.Controller, error) {
	created := false
	l := s.layers.GetOrCreate(uint64(id), func() *layer {
		created = true
		return &layer{id: id, offset: offset, pc: paint.NewController(s.opts...)}
	})
	if !created {
		return nil, fmt.Errorf("%w: %d", ErrLayerExists, id)
	}
	return l.pc, nil
}

// Controller returns the controller of layer id.
func (s *Set) Controller(id ID) (*paint.Controller, bool) {
	l, ok := s.layers.Get(uint64(id))
	if !ok {
		return nil, false
	}
	return l.pc, true
}

// Remove drops layer id and reports whether it existed.
func (s *Set) Remove(id ID) bool {
	return s.layers.Delete(uint64(id))
}

// Len returns the number of layers.
func (s *Set) Len() int { return s.layers.Len() }

// IDs returns the layer ids in increasing order.
func (s *Set) IDs() []ID {
	var ids []ID
	s.layers.Range(func(k uint64, _ *layer) bool {
		ids = append(ids, ID(k))
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PaintAll runs the pass of every layer in passes and commits it. Layers
// without a pass keep their artifact. A layer whose pass fails or panics
// loses its cache and repaints from scratch next time; the other layers
// are unaffected. The returned error joins the failures.
func (s *Set) PaintAll(ctx context.Context, passes map[ID]Pass) error {
	ids := make([]ID, 0, len(passes))
	for id := range passes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	tasks := make([]parallel.Task, 0, len(ids))
	for _, id := range ids {
		l, ok := s.layers.Get(uint64(id))
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownLayer, id))
			continue
		}
		pass := passes[id]
		tasks = append(tasks, func(ctx context.Context) error {
			return s.paintLayer(ctx, l, pass)
		})
	}
	errs = append(errs, s.pool.Run(ctx, tasks))
	return errors.Join(errs...)
}

func (s *Set) paintLayer(ctx context.Context, l *layer, pass Pass) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			paint.Logger().Warn("layers: pass failed, dropping layer cache",
				"layer", l.id, "error", err)
			l.pc.DiscardNewDisplayItems()
			err = fmt.Errorf("layers: layer %d: %w", l.id, err)
		}
	}()
	if err := pass(ctx, l.pc); err != nil {
		return err
	}
	l.pc.CommitNewDisplayItems(l.offset)
	return nil
}

// Artifacts returns the committed artifact of every layer.
func (s *Set) Artifacts() map[ID]*artifact.Artifact {
	out := make(map[ID]*artifact.Artifact, s.layers.Len())
	s.layers.Range(func(k uint64, l *layer) bool {
		l.mu.Lock()
		out[ID(k)] = l.pc.PaintArtifact()
		l.mu.Unlock()
		return true
	})
	return out
}

// Stats returns the statistics of every layer's last committed pass.
func (s *Set) Stats() map[ID]paint.Stats {
	out := make(map[ID]paint.Stats, s.layers.Len())
	s.layers.Range(func(k uint64, l *layer) bool {
		l.mu.Lock()
		out[ID(k)] = l.pc.LastPassStats()
		l.mu.Unlock()
		return true
	})
	return out
}

// Close stops the worker goroutines. Controllers stay readable.
func (s *Set) Close() {
	s.pool.Close()
}
