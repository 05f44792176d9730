// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package picture

import (
	"encoding/binary"
	"errors"
	"image"
	"math"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// ErrTruncated is reported when a payload ends inside an operation.
var ErrTruncated = errors.New("picture: truncated payload")

// Decoder iterates over the operations of a payload.
//
//	dec := picture.NewDecoder(item.Payload())
//	for dec.Next() {
//	    switch dec.Tag() {
//	    case picture.TagFillRect:
//	        rect, color := dec.FillRect()
//	        // ...
//	    }
//	}
//	if err := dec.Err(); err != nil {
//	    // ...
//	}
type Decoder struct {
	data []byte
	pos  int
	tag  Tag
	body []byte
	off  int
	err  error
}

// NewDecoder creates a decoder over payload.
func NewDecoder(payload []byte) *Decoder {
	return &Decoder{data: payload}
}

// Next advances to the next operation. It returns false at the end of the
// payload or on a malformed operation; check Err to distinguish.
func (d *Decoder) Next() bool {
	if d.err != nil || d.pos >= len(d.data) {
		return false
	}
	if len(d.data)-d.pos < opHeaderSize {
		d.err = ErrTruncated
		return false
	}
	t := Tag(d.data[d.pos])
	n := int(binary.LittleEndian.Uint32(d.data[d.pos+1:]))
	start := d.pos + opHeaderSize
	if n < 0 || n > len(d.data)-start {
		d.err = ErrTruncated
		return false
	}
	d.tag = t
	d.body = d.data[start : start+n]
	d.off = 0
	d.pos = start + n
	return true
}

// Tag returns the current operation's tag.
func (d *Decoder) Tag() Tag { return d.tag }

// Err returns the first decoding error.
func (d *Decoder) Err() error { return d.err }

// FillRect decodes a TagFillRect operation.
func (d *Decoder) FillRect() (image.Rectangle, gputypes.Color) {
	return d.rect(), d.color()
}

// StrokeRect decodes a TagStrokeRect operation.
func (d *Decoder) StrokeRect() (image.Rectangle, gputypes.Color, float32) {
	r, c := d.rect(), d.color()
	return r, c, math.Float32frombits(d.u32())
}

// Text decodes a TagText operation.
func (d *Decoder) Text() (fixed.Point26_6, gputypes.Color, []Run) {
	origin := fixed.Point26_6{X: fixed.Int26_6(int32(d.u32())), Y: fixed.Int26_6(int32(d.u32()))}
	c := d.color()
	n := int(d.u16())
	runs := make([]Run, 0, n)
	for range n {
		dir := di.Direction(d.u8())
		sc := language.Script(d.u32())
		l := int(d.u32())
		b := d.bytes(l)
		if d.err != nil {
			return origin, c, nil
		}
		runs = append(runs, Run{Text: string(b), Direction: dir, Script: sc})
	}
	return origin, c, runs
}

// Image decodes a TagImage operation.
func (d *Decoder) Image() (uint32, image.Rectangle) {
	id := d.u32()
	return id, d.rect()
}

// Transform decodes a TagTransform operation.
func (d *Decoder) Transform() f64.Aff3 {
	var m f64.Aff3
	for i := range m {
		m[i] = math.Float64frombits(d.u64())
	}
	return m
}

func (d *Decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > len(d.body)-d.off {
		d.err = ErrTruncated
		return nil
	}
	b := d.body[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) u8() uint8 {
	b := d.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Decoder) u16() uint16 {
	b := d.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *Decoder) u32() uint32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *Decoder) u64() uint64 {
	b := d.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *Decoder) rect() image.Rectangle {
	x0, y0 := int32(d.u32()), int32(d.u32())
	x1, y1 := int32(d.u32()), int32(d.u32())
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}

func (d *Decoder) color() gputypes.Color {
	return gputypes.Color{
		R: math.Float64frombits(d.u64()),
		G: math.Float64frombits(d.u64()),
		B: math.Float64frombits(d.u64()),
		A: math.Float64frombits(d.u64()),
	}
}

// Summary describes what a payload draws.
type Summary struct {
	Ops      int
	HasText  bool
	HasImage bool
}

// Scan summarizes payload without decoding operation bodies.
func Scan(payload []byte) (Summary, error) {
	var s Summary
	d := NewDecoder(payload)
	for d.Next() {
		s.Ops++
		switch d.Tag() {
		case TagText:
			s.HasText = true
		case TagImage:
			s.HasImage = true
		}
	}
	return s, d.Err()
}
