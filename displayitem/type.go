// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package displayitem

import "fmt"

// Type distinguishes the kinds of display items. Types are grouped into
// ranges so that the category of an item can be derived from its type
// alone:
//
//	0x0100-0x01FF: drawings
//	0x0200-0x02FF: foreign layers
//	0x0300-0x03FF: paired begin/end brackets (begin even, end odd)
type Type uint16

// Uninitialized is the zero Type. It is never valid for an appended item.
const Uninitialized Type = 0

// Drawing types.
const (
	drawingFirst Type = 0x0100

	DrawingBoxDecorationBackground Type = drawingFirst + iota - 1
	DrawingForeground
	DrawingText
	DrawingImage
	DrawingOutline
	DrawingSelection
	DrawingCaret
	DrawingScrollbar
	DrawingDebug

	// drawingPhaseFirst starts the painter-defined phase range, see DrawingType.
	drawingPhaseFirst Type = 0x0140
	drawingLast       Type = 0x01FF
)

// Foreign layer types. A foreign layer is content produced outside the
// display list (a canvas, a plugin, a video) and always gets its own chunk.
const (
	foreignLayerFirst Type = 0x0200

	ForeignLayerCanvas Type = foreignLayerFirst + iota - 1
	ForeignLayerPlugin
	ForeignLayerVideo

	foreignLayerLast Type = 0x02FF
)

// Paired types. Each begin type is immediately followed by its end type.
const (
	pairedFirst Type = 0x0300

	BeginClip Type = pairedFirst + iota - 1
	EndClip
	BeginFloatClip
	EndFloatClip
	BeginScroll
	EndScroll
	BeginTransform
	EndTransform
	BeginTransform3D
	EndTransform3D
	BeginFilter
	EndFilter
	BeginCompositing
	EndCompositing
	BeginClipPath
	EndClipPath
	Subsequence
	EndSubsequence

	pairedLast = EndSubsequence
)

// DrawingType returns the drawing type for a painter-defined paint phase.
// It panics if phase does not fit the drawing range.
func DrawingType(phase int) Type {
	t := drawingPhaseFirst + Type(phase)
	if phase < 0 || t > drawingLast {
		panic(fmt.Sprintf("displayitem: paint phase %d out of range", phase))
	}
	return t
}

// IsDrawing reports whether t is a drawing type.
func (t Type) IsDrawing() bool {
	return t >= drawingFirst && t <= drawingLast
}

// IsForeignLayer reports whether t is a foreign layer type.
func (t Type) IsForeignLayer() bool {
	return t >= foreignLayerFirst && t <= foreignLayerLast
}

// IsPaired reports whether t is a begin or an end type.
func (t Type) IsPaired() bool {
	return t >= pairedFirst && t <= pairedLast
}

// IsBegin reports whether t opens a bracket.
func (t Type) IsBegin() bool {
	return t.IsPaired() && (t-pairedFirst)%2 == 0
}

// IsEnd reports whether t closes a bracket.
func (t Type) IsEnd() bool {
	return t.IsPaired() && (t-pairedFirst)%2 == 1
}

// EndType returns the end type paired with the begin type t.
// It panics if t is not a begin type.
func (t Type) EndType() Type {
	if !t.IsBegin() {
		panic("displayitem: EndType of non-begin type " + t.String())
	}
	return t + 1
}

// IsEndAndPairedWith reports whether t is the end type closing begin.
func (t Type) IsEndAndPairedWith(begin Type) bool {
	return t.IsEnd() && begin.IsBegin() && t == begin+1
}

var typeNames = map[Type]string{
	Uninitialized:                  "Uninitialized",
	DrawingBoxDecorationBackground: "BoxDecorationBackground",
	DrawingForeground:              "Foreground",
	DrawingText:                    "Text",
	DrawingImage:                   "Image",
	DrawingOutline:                 "Outline",
	DrawingSelection:               "Selection",
	DrawingCaret:                   "Caret",
	DrawingScrollbar:               "Scrollbar",
	DrawingDebug:                   "DebugDrawing",
	ForeignLayerCanvas:             "ForeignLayerCanvas",
	ForeignLayerPlugin:             "ForeignLayerPlugin",
	ForeignLayerVideo:              "ForeignLayerVideo",
	BeginClip:                      "BeginClip",
	EndClip:                        "EndClip",
	BeginFloatClip:                 "BeginFloatClip",
	EndFloatClip:                   "EndFloatClip",
	BeginScroll:                    "BeginScroll",
	EndScroll:                      "EndScroll",
	BeginTransform:                 "BeginTransform",
	EndTransform:                   "EndTransform",
	BeginTransform3D:               "BeginTransform3D",
	EndTransform3D:                 "EndTransform3D",
	BeginFilter:                    "BeginFilter",
	EndFilter:                      "EndFilter",
	BeginCompositing:               "BeginCompositing",
	EndCompositing:                 "EndCompositing",
	BeginClipPath:                  "BeginClipPath",
	EndClipPath:                    "EndClipPath",
	Subsequence:                    "Subsequence",
	EndSubsequence:                 "EndSubsequence",
}

// String returns a human-readable name for the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	switch {
	case t >= drawingPhaseFirst && t <= drawingLast:
		return fmt.Sprintf("DrawingPhase%d", t-drawingPhaseFirst)
	case t.IsDrawing():
		return fmt.Sprintf("Drawing(%#04x)", uint16(t))
	case t.IsForeignLayer():
		return fmt.Sprintf("ForeignLayer(%#04x)", uint16(t))
	default:
		return fmt.Sprintf("Unknown(%#04x)", uint16(t))
	}
}
