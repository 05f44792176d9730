// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenario

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/paint"
	"github.com/gogpu/paint/artifact"
	"github.com/gogpu/paint/chunk"
	"github.com/gogpu/paint/clients"
	"github.com/gogpu/paint/displayitem"
	"github.com/gogpu/paint/picture"
	"github.com/gogpu/paint/recorder"
)

const subsequenceSuffix = "#subsequence"

// Result is the outcome of one pass.
type Result struct {
	Name  string
	Stats paint.Stats
	// Items and Chunks describe the committed artifact.
	Items, Chunks int
	Artifact      *artifact.Artifact
	// UnderInvalidations lists the reports collected while checking.
	UnderInvalidations []string
}

// Runner paints the passes of a scenario one at a time.
type Runner struct {
	sc    *Scenario
	next  int
	roots []*Node

	pc     *paint.Controller
	table  *clients.Table
	parent map[string]*Node // nil for roots
	byName map[string]*Node
	props  map[*Node]chunk.Properties
	clips  map[*Node]*chunk.ClipNode

	reports []string
}

// NewRunner prepares sc for painting. opts configure the controller; an
// under-invalidation handler collecting reports into the results is
// installed unless opts replace it.
func NewRunner(sc *Scenario, opts ...paint.Option) *Runner {
	r := &Runner{
		sc:     sc,
		table:  clients.NewTable(),
		parent: make(map[string]*Node),
		byName: make(map[string]*Node),
		props:  make(map[*Node]chunk.Properties),
		clips:  make(map[*Node]*chunk.ClipNode),
	}
	handler := paint.WithUnderInvalidationHandler(func(err *paint.UnderInvalidationError) {
		r.reports = append(r.reports, err.Error())
	})
	r.pc = paint.NewController(append([]paint.Option{handler}, opts...)...)
	for _, n := range sc.Nodes {
		c := n.clone()
		r.roots = append(r.roots, c)
		r.index(c, nil)
	}
	return r
}

// Controller returns the controller the runner paints into.
func (r *Runner) Controller() *paint.Controller { return r.pc }

// Done reports whether every pass ran.
func (r *Runner) Done() bool { return r.next >= len(r.sc.Passes) }

// Run paints all remaining passes. It stops at the first error and returns
// the results so far.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	var results []Result
	for !r.Done() {
		res, err := r.Step(ctx)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Step applies the next pass's mutations, paints the tree, and commits.
// A failed expectation is returned as an ErrExpectation error after the
// pass was committed.
func (r *Runner) Step(ctx context.Context) (Result, error) {
	if r.Done() {
		return Result{}, errors.New("scenario: no passes left")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	pass := r.sc.Passes[r.next]
	r.next++
	res := Result{Name: pass.Name}

	for i, m := range pass.Mutations {
		if err := r.apply(m); err != nil {
			return res, fmt.Errorf("scenario: pass %q mutation %d: %w", pass.Name, i, err)
		}
	}

	r.reports = nil
	for _, n := range r.roots {
		r.paintNode(n, chunk.Properties{}, image.Point{})
	}
	r.pc.CommitNewDisplayItems(image.Point{})

	art := r.pc.PaintArtifact()
	res.Stats = r.pc.LastPassStats()
	res.Items = art.Len()
	res.Chunks = len(art.Chunks())
	res.Artifact = art
	res.UnderInvalidations = r.reports

	paint.Logger().Debug("scenario: pass painted",
		"scenario", r.sc.Name, "pass", pass.Name, "stats", res.Stats)

	if pass.Expect != nil {
		if err := pass.Expect.check(res); err != nil {
			return res, fmt.Errorf("scenario: pass %q: %w", pass.Name, err)
		}
	}
	return res, nil
}

func (e *Expect) check(res Result) error {
	var errs []error
	want := func(name string, want *int, got int) {
		if want != nil && *want != got {
			errs = append(errs, fmt.Errorf("%w: %s = %d, want %d", ErrExpectation, name, got, *want))
		}
	}
	want("sequential", e.Sequential, res.Stats.SequentialMatches)
	want("out_of_order", e.OutOfOrder, res.Stats.OutOfOrderMatches)
	want("cached", e.Cached, res.Stats.CachedNewItems)
	want("items", e.Items, res.Items)
	return errors.Join(errs...)
}

func (r *Runner) index(n, parent *Node) {
	r.byName[n.Name] = n
	r.parent[n.Name] = parent
	for _, c := range n.Children {
		r.index(c, n)
	}
}

func (r *Runner) unindex(n *Node) {
	delete(r.byName, n.Name)
	delete(r.parent, n.Name)
	delete(r.props, n)
	delete(r.clips, n)
	r.table.Forget(n.Name)
	r.table.Forget(n.Name + subsequenceSuffix)
	for _, c := range n.Children {
		r.unindex(c)
	}
}

func (r *Runner) lookup(name string) (*Node, error) {
	n, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return n, nil
}

// siblings returns a pointer to the child list holding nodes under parent.
func (r *Runner) siblings(parent *Node) *[]*Node {
	if parent == nil {
		return &r.roots
	}
	return &parent.Children
}

// invalidate marks n repainted along with every enclosing subsequence,
// whose cached copy would otherwise still hold n's old output.
func (r *Runner) invalidate(n *Node) {
	r.table.Get(n.Name).SetDisplayItemsUncached()
	r.invalidateSubsequences(n)
}

func (r *Runner) invalidateSubsequences(n *Node) {
	for ; n != nil; n = r.parent[n.Name] {
		if n.Subsequence {
			r.table.Get(n.Name + subsequenceSuffix).SetDisplayItemsUncached()
		}
	}
}

func (r *Runner) apply(m Mutation) error {
	switch m.Op {
	case OpInvalidateAll:
		r.pc.InvalidateAll()
		return nil

	case OpAdd:
		var parent *Node
		if m.Parent != "" {
			p, err := r.lookup(m.Parent)
			if err != nil {
				return err
			}
			parent = p
		}
		n := m.Add.clone()
		list := r.siblings(parent)
		*list = slices.Insert(*list, insertIndex(m.Index, len(*list)), n)
		r.index(n, parent)
		r.invalidateSubsequences(parent)
		return nil
	}

	n, err := r.lookup(m.Node)
	if err != nil {
		return err
	}
	switch m.Op {
	case OpInvalidate:
		r.invalidate(n)

	case OpUpdate:
		if m.Text != nil {
			n.Text = *m.Text
		}
		if m.Color != nil {
			n.Color = append(n.Color[:0], m.Color...)
		}
		if !m.Silent {
			r.invalidate(n)
		}

	case OpMove:
		parent := r.parent[n.Name]
		list := r.siblings(parent)
		i := slices.Index(*list, n)
		*list = slices.Delete(*list, i, i+1)
		*list = slices.Insert(*list, insertIndex(m.Index, len(*list)), n)
		r.invalidateSubsequences(parent)

	case OpRemove:
		parent := r.parent[n.Name]
		list := r.siblings(parent)
		i := slices.Index(*list, n)
		*list = slices.Delete(*list, i, i+1)
		r.unindex(n)
		r.invalidateSubsequences(parent)

	case OpSkipCache:
		n.SkipCache = m.Value
		r.invalidate(n)
	}
	return nil
}

func insertIndex(index *int, n int) int {
	if index == nil || *index < 0 || *index > n {
		return n
	}
	return *index
}

// propertiesFor returns n's chunk properties. Property nodes are created
// once per node so unchanged nodes keep identical properties across
// passes.
func (r *Runner) propertiesFor(n *Node, parent chunk.Properties) chunk.Properties {
	if p, ok := r.props[n]; ok {
		return p
	}
	p := parent
	if n.Translate != nil {
		p.Transform = chunk.NewTransformNode(parent.Transform,
			f64.Aff3{1, 0, n.Translate[0], 0, 1, n.Translate[1]})
	}
	if n.Opacity != nil {
		p.Effect = chunk.NewEffectNode(parent.Effect, *n.Opacity)
	}
	r.props[n] = p
	return p
}

func (r *Runner) paintNode(n *Node, parent chunk.Properties, origin image.Point) {
	props := r.propertiesFor(n, parent)
	if n.Translate != nil {
		origin = origin.Add(image.Pt(int(n.Translate[0]), int(n.Translate[1])))
	}
	client := r.table.Get(n.Name)
	client.SetVisualRect(n.rect().Add(origin))

	body := func() {
		recorder.ScopedProperties(r.pc, nil, props, func() {
			r.paintSelf(n, client)
			children := func() {
				for _, c := range n.Children {
					r.paintNode(c, props, origin)
				}
			}
			if n.Clip == nil {
				children()
				return
			}
			clipProps := props
			clipProps.Clip = r.clipFor(n, props)
			recorder.Bracket(r.pc, client, displayitem.BeginClip, func() {
				recorder.ScopedProperties(r.pc, nil, clipProps, children)
			})
		})
	}
	if n.SkipCache {
		inner := body
		body = func() { recorder.SkipCache(r.pc, inner) }
	}
	if n.Subsequence {
		sub := r.table.Get(n.Name + subsequenceSuffix)
		sub.SetVisualRect(client.VisualRect())
		recorder.Subsequence(r.pc, sub, body)
		return
	}
	body()
}

// clipFor returns n's clip node, created once like the other properties.
func (r *Runner) clipFor(n *Node, props chunk.Properties) *chunk.ClipNode {
	if c, ok := r.clips[n]; ok {
		return c
	}
	rect := image.Rect(n.Clip[0], n.Clip[1], n.Clip[2], n.Clip[3])
	c := chunk.NewClipNode(props.Clip, props.Transform, rect)
	r.clips[n] = c
	return c
}

func (r *Runner) paintSelf(n *Node, client *clients.Client) {
	rect := n.rect()
	color := n.color()
	switch n.Kind {
	case KindBox, "":
		recorder.Drawing(r.pc, client, displayitem.DrawingBoxDecorationBackground, func(p *picture.Recorder) {
			p.FillRect(rect, color)
		})
	case KindText:
		recorder.Drawing(r.pc, client, displayitem.DrawingText, func(p *picture.Recorder) {
			p.DrawText(n.Text, fixed.P(rect.Min.X, rect.Max.Y), color)
		})
	case KindImage:
		recorder.Drawing(r.pc, client, displayitem.DrawingImage, func(p *picture.Recorder) {
			p.DrawImage(n.Image, rect)
		})
	}
}

func (n *Node) rect() image.Rectangle {
	if n.Rect == nil {
		return image.Rectangle{}
	}
	return image.Rect(n.Rect[0], n.Rect[1], n.Rect[2], n.Rect[3])
}

func (n *Node) color() gputypes.Color {
	if n.Color == nil {
		return gputypes.Color{A: 1}
	}
	return gputypes.Color{R: n.Color[0], G: n.Color[1], B: n.Color[2], A: n.Color[3]}
}
