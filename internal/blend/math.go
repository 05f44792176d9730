// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blend

// div255 divides x by 255 exactly for x in [0, 65535], without a division.
//
// Formula: ((x + 1) + ((x + 1) >> 8)) >> 8 (Alvy Ray Smith).
func div255(x uint32) uint32 {
	t := x + 1
	return (t + (t >> 8)) >> 8
}

// mulDiv255 returns a*b/255, rounded down.
func mulDiv255(a, b byte) byte {
	return byte(div255(uint32(a) * uint32(b)))
}

// addClamp adds two bytes and clamps to 255.
func addClamp(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}

// Scale multiplies a premultiplied pixel by coverage c in [0, 255].
func Scale(r, g, b, a, c byte) (byte, byte, byte, byte) {
	if c == 255 {
		return r, g, b, a
	}
	return mulDiv255(r, c), mulDiv255(g, c), mulDiv255(b, c), mulDiv255(a, c)
}

// Premultiply converts straight colour channels in [0, 1] to premultiplied
// bytes, scaling alpha by opacity. Out-of-range inputs are clamped.
func Premultiply(r, g, b, a, opacity float64) (byte, byte, byte, byte) {
	a = clamp01(a) * clamp01(opacity)
	return toByte(clamp01(r) * a), toByte(clamp01(g) * a), toByte(clamp01(b) * a), toByte(a)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func toByte(v float64) byte {
	return byte(v*255 + 0.5)
}
