// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raster replays a paint artifact into an RGBA image on the CPU.
//
// It is a reference rasterizer for inspecting what a pass committed, not a
// production renderer. Rects are axis-aligned: a rotated or skewed chunk
// transform maps each rect to its bounding box. Effects apply their
// opacity and blend mode to every item of the chunk instead of compositing
// an isolated group.
//
//	img, err := raster.Render(pc.PaintArtifact(), image.Rect(0, 0, 800, 600))
package raster

import (
	"fmt"
	"image"
	"math"

	"github.com/go-text/typesetting/di"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/paint/artifact"
	"github.com/gogpu/paint/chunk"
	"github.com/gogpu/paint/displayitem"
	"github.com/gogpu/paint/internal/blend"
	"github.com/gogpu/paint/picture"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// ImageSource resolves the image ids recorded by picture.Recorder.DrawImage.
// It returns nil for unknown ids.
type ImageSource func(id uint32) image.Image

// Option configures a Canvas.
type Option func(*Canvas)

// WithImages sets the source of recorded images. Without one, or for ids it
// does not know, images are drawn as a flat colour derived from the id.
func WithImages(src ImageSource) Option {
	return func(c *Canvas) { c.images = src }
}

// WithFace sets the font used for text. The default is basicfont.Face7x13.
func WithFace(f font.Face) Option {
	return func(c *Canvas) {
		if f != nil {
			c.face = f
		}
	}
}

// Canvas is an artifact.Sink drawing replayed items into an RGBA image.
type Canvas struct {
	dst    *image.RGBA
	images ImageSource
	face   font.Face

	// State of the current chunk.
	m       f64.Aff3
	clip    image.Rectangle
	opacity float64
	blend   blend.Func
	hidden  bool

	err error
}

var _ artifact.Sink = (*Canvas)(nil)

// NewCanvas creates a transparent canvas covering bounds.
func NewCanvas(bounds image.Rectangle, opts ...Option) *Canvas {
	c := &Canvas{
		dst:     image.NewRGBA(bounds),
		face:    basicfont.Face7x13,
		m:       identity,
		clip:    bounds,
		opacity: 1,
		blend:   blend.FuncOf(blend.SourceOver),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render replays a into a new image covering bounds. The image is returned
// even when some payloads failed to decode.
func Render(a *artifact.Artifact, bounds image.Rectangle, opts ...Option) (*image.RGBA, error) {
	c := NewCanvas(bounds, opts...)
	a.Replay(c)
	return c.Image(), c.Err()
}

// Image returns the canvas image.
func (c *Canvas) Image() *image.RGBA { return c.dst }

// Err returns the first payload decoding error.
func (c *Canvas) Err() error { return c.err }

// BeginChunk implements artifact.Sink.
func (c *Canvas) BeginChunk(ch chunk.Chunk) {
	p := ch.Properties
	c.m = p.Transform.Combined()
	c.clip = c.dst.Rect
	for n := p.Clip; n != nil; n = n.Parent() {
		c.clip = c.clip.Intersect(mapRect(n.Transform().Combined(), n.Rect()))
	}
	c.opacity = float64(p.Effect.CombinedOpacity())
	mode := blend.SourceOver
	if p.Effect != nil {
		mode = blend.ModeOf(p.Effect.Blend())
	}
	c.blend = blend.FuncOf(mode)
	// A mirrored transform shows the back face.
	c.hidden = p.BackfaceHidden && c.m[0]*c.m[4]-c.m[1]*c.m[3] < 0
}

// Item implements artifact.Sink. Only drawings are painted; begin, end,
// and foreign layer items carry no picture.
func (c *Canvas) Item(index int, item displayitem.Item) {
	if c.hidden || !item.IsDrawing() || c.clip.Empty() {
		return
	}
	m := c.m
	dec := picture.NewDecoder(item.Payload())
	for dec.Next() {
		switch dec.Tag() {
		case picture.TagFillRect:
			r, col := dec.FillRect()
			c.fill(mapRect(m, r), col)
		case picture.TagStrokeRect:
			r, col, w := dec.StrokeRect()
			for _, edge := range strokeEdges(r, w) {
				c.fill(mapRect(m, edge), col)
			}
		case picture.TagText:
			origin, col, runs := dec.Text()
			c.text(m, origin, col, runs)
		case picture.TagImage:
			id, r := dec.Image()
			c.image(id, mapRect(m, r))
		case picture.TagTransform:
			m = concat(c.m, dec.Transform())
		}
	}
	if err := dec.Err(); err != nil && c.err == nil {
		c.err = fmt.Errorf("raster: item %d (%s): %w", index, item, err)
	}
}

// strokeEdges splits the outline of r into four non-overlapping rects.
func strokeEdges(r image.Rectangle, width float32) []image.Rectangle {
	w := max(1, int(math.Ceil(float64(width))))
	if 2*w >= r.Dx() || 2*w >= r.Dy() {
		return []image.Rectangle{r}
	}
	return []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+w, r.Min.X+w, r.Max.Y-w),
		image.Rect(r.Max.X-w, r.Min.Y+w, r.Max.X, r.Max.Y-w),
	}
}

func (c *Canvas) fill(r image.Rectangle, col gputypes.Color) {
	r = r.Intersect(c.clip)
	if r.Empty() {
		return
	}
	sr, sg, sb, sa := blend.Premultiply(col.R, col.G, col.B, col.A, c.opacity)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c.put(x, y, sr, sg, sb, sa)
		}
	}
}

func (c *Canvas) put(x, y int, r, g, b, a byte) {
	i := c.dst.PixOffset(x, y)
	p := c.dst.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.blend(r, g, b, a, p[0], p[1], p[2], p[3])
}

func (c *Canvas) text(m f64.Aff3, origin fixed.Point26_6, col gputypes.Color, runs []picture.Run) {
	var s []rune
	for _, run := range runs {
		rs := []rune(run.Text)
		if run.Direction.Progression() == di.TowardTopLeft {
			for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
				rs[i], rs[j] = rs[j], rs[i]
			}
		}
		s = append(s, rs...)
	}
	if len(s) == 0 {
		return
	}

	ox, oy := float64(origin.X)/64, float64(origin.Y)/64
	dot := fixed.Point26_6{
		X: fixed.Int26_6(math.Round((m[0]*ox + m[1]*oy + m[2]) * 64)),
		Y: fixed.Int26_6(math.Round((m[3]*ox + m[4]*oy + m[5]) * 64)),
	}
	mask := image.NewAlpha(c.clip)
	d := font.Drawer{Dst: mask, Src: image.Opaque, Face: c.face, Dot: dot}
	d.DrawString(string(s))

	sr, sg, sb, sa := blend.Premultiply(col.R, col.G, col.B, col.A, c.opacity)
	r := c.clip
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cov := mask.AlphaAt(x, y).A
			if cov == 0 {
				continue
			}
			pr, pg, pb, pa := blend.Scale(sr, sg, sb, sa, cov)
			c.put(x, y, pr, pg, pb, pa)
		}
	}
}

func (c *Canvas) image(id uint32, dr image.Rectangle) {
	var src image.Image
	if c.images != nil {
		src = c.images(id)
	}
	if src == nil {
		c.fill(dr, placeholder(id))
		return
	}
	r := dr.Intersect(c.clip)
	if r.Empty() {
		return
	}
	tmp := image.NewRGBA(dr)
	xdraw.NearestNeighbor.Scale(tmp, dr, src, src.Bounds(), xdraw.Src, nil)
	op := byte(math.Round(c.opacity * 255))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := tmp.RGBAAt(x, y)
			pr, pg, pb, pa := blend.Scale(p.R, p.G, p.B, p.A, op)
			c.put(x, y, pr, pg, pb, pa)
		}
	}
}

// placeholder returns an opaque colour identifying image id.
func placeholder(id uint32) gputypes.Color {
	h := id*2654435761 + 0x9e3779b9
	return gputypes.Color{
		R: float64(byte(h>>24)) / 255,
		G: float64(byte(h>>16)) / 255,
		B: float64(byte(h>>8)) / 255,
		A: 1,
	}
}

// mapRect returns the integer bounding box of r transformed by m.
func mapRect(m f64.Aff3, r image.Rectangle) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
	} {
		x := m[0]*p[0] + m[1]*p[1] + m[2]
		y := m[3]*p[0] + m[4]*p[1] + m[5]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// concat returns a*b, applying b first.
func concat(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
