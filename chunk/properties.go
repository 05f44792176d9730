// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package chunk

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f64"
)

// identity is the identity affine transform.
var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// TransformNode is a node in the transform property tree. Nodes are
// immutable and compared by pointer.
type TransformNode struct {
	parent *TransformNode
	matrix f64.Aff3
}

// NewTransformNode creates a transform node applying m after parent.
// A nil parent means the root space.
func NewTransformNode(parent *TransformNode, m f64.Aff3) *TransformNode {
	return &TransformNode{parent: parent, matrix: m}
}

// Parent returns the parent node, or nil for a root-level node.
func (n *TransformNode) Parent() *TransformNode { return n.parent }

// Matrix returns the local transform.
func (n *TransformNode) Matrix() f64.Aff3 { return n.matrix }

// Combined returns the transform from the node's local space to the root
// space. A nil node is the identity.
func (n *TransformNode) Combined() f64.Aff3 {
	if n == nil {
		return identity
	}
	return mul(n.parent.Combined(), n.matrix)
}

// mul returns a*b, applying b first.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

// ClipNode is a node in the clip property tree.
type ClipNode struct {
	parent    *ClipNode
	transform *TransformNode
	rect      image.Rectangle
}

// NewClipNode creates a clip to rect, expressed in the space of transform.
func NewClipNode(parent *ClipNode, transform *TransformNode, rect image.Rectangle) *ClipNode {
	return &ClipNode{parent: parent, transform: transform, rect: rect}
}

// Parent returns the parent node.
func (n *ClipNode) Parent() *ClipNode { return n.parent }

// Transform returns the space the clip rect is expressed in.
func (n *ClipNode) Transform() *TransformNode { return n.transform }

// Rect returns the clip rect.
func (n *ClipNode) Rect() image.Rectangle { return n.rect }

// EffectNode is a node in the effect property tree.
type EffectNode struct {
	parent  *EffectNode
	opacity float32
	blend   gputypes.BlendState
}

// NewEffectNode creates an effect with the given opacity, composited with
// premultiplied source-over blending.
func NewEffectNode(parent *EffectNode, opacity float32) *EffectNode {
	return NewEffectNodeWithBlend(parent, opacity, gputypes.BlendStatePremultiplied())
}

// NewEffectNodeWithBlend creates an effect with an explicit blend state.
func NewEffectNodeWithBlend(parent *EffectNode, opacity float32, blend gputypes.BlendState) *EffectNode {
	return &EffectNode{parent: parent, opacity: opacity, blend: blend}
}

// Parent returns the parent node.
func (n *EffectNode) Parent() *EffectNode { return n.parent }

// Opacity returns the node's own opacity.
func (n *EffectNode) Opacity() float32 { return n.opacity }

// Blend returns the blend state used to composite the effect.
func (n *EffectNode) Blend() gputypes.BlendState { return n.blend }

// CombinedOpacity returns the product of opacities up to the root.
func (n *EffectNode) CombinedOpacity() float32 {
	o := float32(1)
	for ; n != nil; n = n.parent {
		o *= n.opacity
	}
	return o
}

// Properties is the set of visual properties shared by every item of a
// chunk. Two property sets are equal when they reference the same nodes.
type Properties struct {
	Transform      *TransformNode
	Clip           *ClipNode
	Effect         *EffectNode
	BackfaceHidden bool
}

// String returns a debug representation of the properties.
func (p Properties) String() string {
	s := fmt.Sprintf("{t=%p c=%p e=%p", p.Transform, p.Clip, p.Effect)
	if p.BackfaceHidden {
		s += " backfaceHidden"
	}
	return s + "}"
}
