// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

var (
	red         = gputypes.Color{R: 1, A: 1}
	white       = gputypes.Color{R: 1, G: 1, B: 1, A: 1}
	black       = gputypes.Color{A: 1}
	transparent = color.RGBA{}
)

// paintOne commits a single drawing painted with props.
func paintOne(t *testing.T, props chunk.Properties, fn func(r *picture.Recorder)) *artifact.Artifact {
	t.Helper()
	pc := paint.NewController()
	c := clients.NewTable().Get("item")
	recorder.ScopedProperties(pc, nil, props, func() {
		recorder.Drawing(pc, c, displayitem.DrawingForeground, fn)
	})
	pc.CommitNewDisplayItems(image.Point{})
	return pc.PaintArtifact()
}

func TestRenderFill(t *testing.T) {
	a := paintOne(t, chunk.Properties{}, func(r *picture.Recorder) {
		r.FillRect(image.Rect(2, 2, 6, 6), red)
	})
	img, err := Render(a, image.Rect(0, 0, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(3, 3))
	assert.Equal(t, transparent, img.RGBAAt(0, 0))
	assert.Equal(t, transparent, img.RGBAAt(6, 6))
}

func TestRenderChunkProperties(t *testing.T) {
	props := chunk.Properties{
		Transform: chunk.NewTransformNode(nil, f64.Aff3{1, 0, 10, 0, 1, 0}),
		Clip:      chunk.NewClipNode(nil, nil, image.Rect(0, 0, 12, 20)),
		Effect:    chunk.NewEffectNode(nil, 0.5),
	}
	a := paintOne(t, props, func(r *picture.Recorder) {
		r.FillRect(image.Rect(0, 0, 5, 5), white)
	})
	img, err := Render(a, image.Rect(0, 0, 20, 20))
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{128, 128, 128, 128}, img.RGBAAt(10, 1), "translated, half opaque")
	assert.Equal(t, transparent, img.RGBAAt(9, 1))
	assert.Equal(t, transparent, img.RGBAAt(12, 1), "clipped")
}

func TestRenderBlendMode(t *testing.T) {
	pc := paint.NewController()
	tbl := clients.NewTable()
	bg, hole := tbl.Get("bg"), tbl.Get("hole")
	recorder.Drawing(pc, bg, displayitem.DrawingBoxDecorationBackground, func(r *picture.Recorder) {
		r.FillRect(image.Rect(0, 0, 4, 4), red)
	})
	erase := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorZero,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	props := chunk.Properties{Effect: chunk.NewEffectNodeWithBlend(nil, 1, gputypes.BlendState{Color: erase, Alpha: erase})}
	recorder.ScopedProperties(pc, nil, props, func() {
		recorder.Drawing(pc, hole, displayitem.DrawingForeground, func(r *picture.Recorder) {
			r.FillRect(image.Rect(1, 1, 3, 3), black)
		})
	})
	pc.CommitNewDisplayItems(image.Point{})

	img, err := Render(pc.PaintArtifact(), image.Rect(0, 0, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, transparent, img.RGBAAt(1, 1))
}

func TestRenderStrokeAndPayloadTransform(t *testing.T) {
	a := paintOne(t, chunk.Properties{}, func(r *picture.Recorder) {
		r.StrokeRect(image.Rect(0, 0, 10, 10), black, 2)
		r.Transform(f64.Aff3{1, 0, 20, 0, 1, 0})
		r.FillRect(image.Rect(0, 0, 1, 1), red)
	})
	img, err := Render(a, image.Rect(0, 0, 30, 10))
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(1, 1).A, "stroke edge")
	assert.Equal(t, uint8(255), img.RGBAAt(8, 5).A, "stroke edge")
	assert.Equal(t, transparent, img.RGBAAt(5, 5), "stroke interior")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(20, 0))
}

func TestRenderImages(t *testing.T) {
	green := image.NewRGBA(image.Rect(0, 0, 2, 2))
	draw.Draw(green, green.Bounds(), image.NewUniform(color.RGBA{G: 255, A: 255}), image.Point{}, draw.Src)

	a := paintOne(t, chunk.Properties{}, func(r *picture.Recorder) {
		r.DrawImage(1, image.Rect(0, 0, 4, 4))
		r.DrawImage(2, image.Rect(4, 0, 8, 4))
	})
	img, err := Render(a, image.Rect(0, 0, 8, 4), WithImages(func(id uint32) image.Image {
		if id == 1 {
			return green
		}
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, img.RGBAAt(3, 3), "scaled source")
	assert.Equal(t, uint8(255), img.RGBAAt(5, 1).A, "placeholder for unknown id")
	assert.Equal(t, img.RGBAAt(4, 0), img.RGBAAt(7, 3), "placeholder is flat")
}

func TestRenderText(t *testing.T) {
	a := paintOne(t, chunk.Properties{}, func(r *picture.Recorder) {
		r.DrawText("Hi", fixed.P(1, 12), black)
	})
	img, err := Render(a, image.Rect(0, 0, 20, 16))
	require.NoError(t, err)

	inked := 0
	for y := range 16 {
		for x := range 20 {
			if img.RGBAAt(x, y).A > 0 {
				inked++
				assert.LessOrEqual(t, y, 12, "glyphs sit on the baseline")
			}
		}
	}
	assert.Positive(t, inked)
}

func TestRenderBackfaceHidden(t *testing.T) {
	mirror := chunk.NewTransformNode(nil, f64.Aff3{-1, 0, 10, 0, 1, 0})
	fill := func(r *picture.Recorder) { r.FillRect(image.Rect(0, 0, 5, 5), red) }

	img, err := Render(paintOne(t, chunk.Properties{Transform: mirror}, fill), image.Rect(0, 0, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(7, 2).A, "mirrored into [5, 10)")
	assert.Equal(t, transparent, img.RGBAAt(2, 2))

	img, err = Render(paintOne(t, chunk.Properties{Transform: mirror, BackfaceHidden: true}, fill), image.Rect(0, 0, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, transparent, img.RGBAAt(7, 2))
}

func TestRenderMalformedPayload(t *testing.T) {
	pc := paint.NewController()
	c := clients.NewTable().Get("bad")
	pc.CreateAndAppend(displayitem.NewDrawing(c, displayitem.DrawingForeground,
		[]byte{byte(picture.TagFillRect), 50, 0, 0, 0}))
	pc.CommitNewDisplayItems(image.Point{})

	_, err := Render(pc.PaintArtifact(), image.Rect(0, 0, 4, 4))
	assert.ErrorIs(t, err, picture.ErrTruncated)
}

func TestMapRect(t *testing.T) {
	rot := f64.Aff3{0, -1, 0, 1, 0, 0}
	assert.Equal(t, image.Rect(-4, 1, -2, 3), mapRect(rot, image.Rect(1, 2, 3, 4)))
	assert.Equal(t, image.Rect(6, 2, 8, 4), mapRect(f64.Aff3{1, 0, 5, 0, 1, 0}, image.Rect(1, 2, 3, 4)))
	assert.True(t, mapRect(identity, image.Rectangle{}).Empty())
}
