// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package picture records drawing payloads for display items.
//
// A payload is a flat tag stream. Every operation is encoded as
//
//	tag (1 byte) | body length (uint32 LE) | body
//
// so a reader can skip operations it does not understand. The display item
// cache treats payloads as opaque bytes and compares them byte-wise; this
// package only gives painters a convenient way to produce them and lets
// tools decode them again.
package picture

// Tag identifies an operation in a payload. Tags are grouped by high nibble:
//
//	0x0X: rectangle fills and strokes
//	0x1X: text
//	0x2X: images
//	0x3X: state
type Tag byte

const (
	// TagFillRect fills a rectangle.
	// Body: 4 int32 [x0, y0, x1, y1], 4 float64 color [r, g, b, a].
	TagFillRect Tag = 0x01

	// TagStrokeRect strokes a rectangle outline.
	// Body: as TagFillRect, then 1 float32 line width.
	TagStrokeRect Tag = 0x02

	// TagText draws a shaped-later text run sequence.
	// Body: 2 int32 fixed.Point26_6 origin, 4 float64 color, uint16 run
	// count, then per run: uint8 direction, uint32 script, uint32 byte
	// length, UTF-8 bytes.
	TagText Tag = 0x10

	// TagImage draws an externally owned image.
	// Body: 1 uint32 image id, 4 int32 destination rect.
	TagImage Tag = 0x20

	// TagTransform replaces the current transform.
	// Body: 6 float64 [a, b, c, d, e, f].
	TagTransform Tag = 0x30
)

// String returns a human-readable name for the tag.
func (t Tag) String() string {
	switch t {
	case TagFillRect:
		return "FillRect"
	case TagStrokeRect:
		return "StrokeRect"
	case TagText:
		return "Text"
	case TagImage:
		return "Image"
	case TagTransform:
		return "Transform"
	default:
		return "Unknown"
	}
}

// opHeaderSize is the size of the tag and length prefix.
const opHeaderSize = 5
