// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package blend implements the Porter-Duff operators used to composite
// replayed paint chunks.
//
// All operations work on premultiplied 8-bit RGBA.
package blend

import "github.com/gogpu/gputypes"

// Mode is a compositing operator.
type Mode uint8

const (
	// SourceOver draws the source over the destination: S + D*(1-Sa).
	SourceOver Mode = iota
	// Source replaces the destination: S.
	Source
	// Plus adds source and destination, clamped: S + D.
	Plus
	// Modulate multiplies source and destination: S*D.
	Modulate
	// DestinationOut erases the destination by source alpha: D*(1-Sa).
	DestinationOut
)

// String returns the operator name.
func (m Mode) String() string {
	switch m {
	case SourceOver:
		return "SourceOver"
	case Source:
		return "Source"
	case Plus:
		return "Plus"
	case Modulate:
		return "Modulate"
	case DestinationOut:
		return "DestinationOut"
	default:
		return "Unknown"
	}
}

// Func blends one premultiplied source pixel with a destination pixel.
type Func func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// FuncOf returns the blend function of m, SourceOver for unknown modes.
func FuncOf(m Mode) Func {
	switch m {
	case Source:
		return source
	case Plus:
		return plus
	case Modulate:
		return modulate
	case DestinationOut:
		return destinationOut
	default:
		return sourceOver
	}
}

// ModeOf maps a GPU blend state on premultiplied colours to the operator
// it computes. States without a matching operator fall back to SourceOver.
func ModeOf(s gputypes.BlendState) Mode {
	c := s.Color
	if c.Operation != gputypes.BlendOperationAdd {
		return SourceOver
	}
	switch {
	case c.SrcFactor == gputypes.BlendFactorOne && c.DstFactor == gputypes.BlendFactorZero:
		return Source
	case c.SrcFactor == gputypes.BlendFactorOne && c.DstFactor == gputypes.BlendFactorOne:
		return Plus
	case c.SrcFactor == gputypes.BlendFactorDst && c.DstFactor == gputypes.BlendFactorZero:
		return Modulate
	case c.SrcFactor == gputypes.BlendFactorZero && c.DstFactor == gputypes.BlendFactorOneMinusSrcAlpha:
		return DestinationOut
	}
	return SourceOver
}

func sourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	inv := 255 - sa
	return addClamp(sr, mulDiv255(dr, inv)),
		addClamp(sg, mulDiv255(dg, inv)),
		addClamp(sb, mulDiv255(db, inv)),
		addClamp(sa, mulDiv255(da, inv))
}

func source(sr, sg, sb, sa, _, _, _, _ byte) (byte, byte, byte, byte) {
	return sr, sg, sb, sa
}

func plus(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return addClamp(sr, dr), addClamp(sg, dg), addClamp(sb, db), addClamp(sa, da)
}

func modulate(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return mulDiv255(sr, dr), mulDiv255(sg, dg), mulDiv255(sb, db), mulDiv255(sa, da)
}

func destinationOut(_, _, _, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	inv := 255 - sa
	return mulDiv255(dr, inv), mulDiv255(dg, inv), mulDiv255(db, inv), mulDiv255(da, inv)
}
