// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package picture

import (
	"encoding/binary"
	"image"
	"math"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// Recorder appends drawing operations to a payload buffer.
//
// The zero value is ready to use. A Recorder is not safe for concurrent use.
type Recorder struct {
	buf      []byte
	bounds   image.Rectangle
	hasText  bool
	hasImage bool
}

// Reset clears the recorder, keeping its buffer.
func (r *Recorder) Reset() {
	r.buf = r.buf[:0]
	r.bounds = image.Rectangle{}
	r.hasText = false
	r.hasImage = false
}

// Bytes returns the recorded payload. The slice aliases the recorder's
// buffer and is only valid until the next Reset.
func (r *Recorder) Bytes() []byte { return r.buf }

// Len returns the payload size in bytes.
func (r *Recorder) Len() int { return len(r.buf) }

// Bounds returns the union of the destination rects of all operations.
func (r *Recorder) Bounds() image.Rectangle { return r.bounds }

// HasText reports whether any text was recorded.
func (r *Recorder) HasText() bool { return r.hasText }

// HasImage reports whether any image was recorded.
func (r *Recorder) HasImage() bool { return r.hasImage }

// FillRect records a solid rectangle fill.
func (r *Recorder) FillRect(rect image.Rectangle, c gputypes.Color) {
	start := r.begin(TagFillRect)
	r.putRect(rect)
	r.putColor(c)
	r.end(start)
	r.bounds = r.bounds.Union(rect)
}

// StrokeRect records a rectangle outline of the given width.
func (r *Recorder) StrokeRect(rect image.Rectangle, c gputypes.Color, width float32) {
	start := r.begin(TagStrokeRect)
	r.putRect(rect)
	r.putColor(c)
	r.buf = binary.LittleEndian.AppendUint32(r.buf, math.Float32bits(width))
	r.end(start)
	hw := int(math.Ceil(float64(width) / 2))
	r.bounds = r.bounds.Union(rect.Inset(-hw))
}

// DrawText records text at origin. The text is split into directional runs
// with the Unicode bidi algorithm; each run carries its direction and the
// script of its first strong character.
func (r *Recorder) DrawText(s string, origin fixed.Point26_6, c gputypes.Color) {
	runs := SplitRuns(s)
	start := r.begin(TagText)
	r.buf = binary.LittleEndian.AppendUint32(r.buf, uint32(origin.X))
	r.buf = binary.LittleEndian.AppendUint32(r.buf, uint32(origin.Y))
	r.putColor(c)
	r.buf = binary.LittleEndian.AppendUint16(r.buf, uint16(len(runs)))
	for _, run := range runs {
		r.buf = append(r.buf, byte(run.Direction))
		r.buf = binary.LittleEndian.AppendUint32(r.buf, uint32(run.Script))
		r.buf = binary.LittleEndian.AppendUint32(r.buf, uint32(len(run.Text)))
		r.buf = append(r.buf, run.Text...)
	}
	r.end(start)
	r.hasText = true
	p := image.Pt(origin.X.Floor(), origin.Y.Floor())
	r.bounds = r.bounds.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
}

// DrawImage records an image identified by id drawn into dst.
func (r *Recorder) DrawImage(id uint32, dst image.Rectangle) {
	start := r.begin(TagImage)
	r.buf = binary.LittleEndian.AppendUint32(r.buf, id)
	r.putRect(dst)
	r.end(start)
	r.hasImage = true
	r.bounds = r.bounds.Union(dst)
}

// Transform records a transform change for subsequent operations.
func (r *Recorder) Transform(m f64.Aff3) {
	start := r.begin(TagTransform)
	for _, v := range m {
		r.buf = binary.LittleEndian.AppendUint64(r.buf, math.Float64bits(v))
	}
	r.end(start)
}

func (r *Recorder) begin(t Tag) int {
	start := len(r.buf)
	r.buf = append(r.buf, byte(t), 0, 0, 0, 0)
	return start
}

func (r *Recorder) end(start int) {
	n := len(r.buf) - start - opHeaderSize
	binary.LittleEndian.PutUint32(r.buf[start+1:], uint32(n))
}

func (r *Recorder) putRect(rect image.Rectangle) {
	r.buf = binary.LittleEndian.AppendUint32(r.buf, uint32(int32(rect.Min.X)))
	r.buf = binary.LittleEndian.AppendUint32(r.buf, uint32(int32(rect.Min.Y)))
	r.buf = binary.LittleEndian.AppendUint32(r.buf, uint32(int32(rect.Max.X)))
	r.buf = binary.LittleEndian.AppendUint32(r.buf, uint32(int32(rect.Max.Y)))
}

func (r *Recorder) putColor(c gputypes.Color) {
	for _, v := range [4]float64{c.R, c.G, c.B, c.A} {
		r.buf = binary.LittleEndian.AppendUint64(r.buf, math.Float64bits(v))
	}
}

// Run is a directional text run.
type Run struct {
	Text      string
	Direction di.Direction
	Script    language.Script
}

// SplitRuns splits s into runs of uniform bidi direction in logical order.
func SplitRuns(s string) []Run {
	if s == "" {
		return nil
	}
	var p bidi.Paragraph
	if _, err := p.SetString(s, bidi.DefaultDirection(bidi.Neutral)); err != nil {
		return []Run{{Text: s, Direction: di.DirectionLTR, Script: detectScript(s)}}
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return []Run{{Text: s, Direction: di.DirectionLTR, Script: detectScript(s)}}
	}
	runes := []rune(s)
	runs := make([]Run, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		// Pos is in runes, end inclusive.
		start, end := run.Pos()
		end = min(end+1, len(runes))
		if start < 0 || start >= end {
			continue
		}
		text := string(runes[start:end])
		dir := di.DirectionLTR
		if run.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		runs = append(runs, Run{Text: text, Direction: dir, Script: detectScript(text)})
	}
	if len(runs) == 0 {
		return []Run{{Text: s, Direction: di.DirectionLTR, Script: detectScript(s)}}
	}
	return runs
}

// detectScript returns the script of the first character with a specific
// script, or Latin.
func detectScript(s string) language.Script {
	for _, r := range s {
		sc := language.LookupScript(r)
		if sc != language.Common && sc != language.Inherited && sc != language.Unknown {
			return sc
		}
	}
	return language.Latin
}

var recorderPool = sync.Pool{
	New: func() any { return new(Recorder) },
}

// GetRecorder returns a reset recorder from a shared pool.
func GetRecorder() *Recorder {
	r := recorderPool.Get().(*Recorder)
	r.Reset()
	return r
}

// PutRecorder returns r to the shared pool. Payloads obtained from r.Bytes
// must not be used afterwards.
func PutRecorder(r *Recorder) {
	if r == nil {
		return
	}
	recorderPool.Put(r)
}
