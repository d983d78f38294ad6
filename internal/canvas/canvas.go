// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package canvas defines the capability surface of the host design-document
// model: node trees, cloning, geometry, text sizing behavior and font loading.
// The engine core only ever talks to these interfaces; the in-memory
// implementation in this package doubles as the test double and as the
// server-side document model decoded from the plugin's JSON snapshot.
package canvas

import "context"

// NodeType identifies the kind of a document node.
type NodeType string

const (
	NodePage   NodeType = "page"
	NodeFrame  NodeType = "frame"
	NodeGroup  NodeType = "group"
	NodeText   NodeType = "text"
	NodeVector NodeType = "vector"
)

// LayoutMode is a frame's auto-layout flow direction.
type LayoutMode string

const (
	LayoutNone       LayoutMode = "none"
	LayoutHorizontal LayoutMode = "horizontal"
	LayoutVertical   LayoutMode = "vertical"
)

// Sizing is how an auto-layout frame sizes itself on one axis.
type Sizing string

const (
	SizingFixed Sizing = "fixed"
	SizingAuto  Sizing = "auto"
)

// AutoResize is a text node's sizing behavior when its content changes.
type AutoResize string

const (
	// ResizeNone keeps both dimensions fixed; overflowing text clips.
	ResizeNone AutoResize = "none"
	// ResizeHeight keeps width fixed and lets height follow the wrapped text.
	ResizeHeight AutoResize = "height"
	// ResizeWidthAndHeight lets the box hug the text on both axes.
	ResizeWidthAndHeight AutoResize = "width-and-height"
)

// Alignment is a text node's horizontal alignment.
type Alignment string

const (
	AlignLeft      Alignment = "left"
	AlignCenter    Alignment = "center"
	AlignRight     Alignment = "right"
	AlignJustified Alignment = "justified"
)

// Direction is a paragraph base direction.
type Direction string

const (
	DirectionLTR Direction = "ltr"
	DirectionRTL Direction = "rtl"
)

// LineHeightUnit describes how a line height value is expressed.
type LineHeightUnit string

const (
	LineHeightPixels  LineHeightUnit = "px"
	LineHeightPercent LineHeightUnit = "percent"
	LineHeightAuto    LineHeightUnit = "auto"
)

// LineHeight is a text node's line height as reported by the host.
// Value is meaningless when Unit is LineHeightAuto.
type LineHeight struct {
	Value float64
	Unit  LineHeightUnit
}

// Font identifies a font by family and style, matching the host's font model.
type Font struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

// String returns "Family Style" for logs and error messages.
func (f Font) String() string {
	if f.Style == "" {
		return f.Family
	}
	return f.Family + " " + f.Style
}

// Rect is an absolute bounding box in canvas pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns the right edge of the rect.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the bottom edge of the rect.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Node is the read/write surface every document node exposes.
type Node interface {
	ID() string
	Name() string
	Type() NodeType
	Parent() Node
	Children() []Node
	Locked() bool

	// Position is the node's offset relative to its parent.
	Position() (x, y float64)
	SetPosition(x, y float64)
	// Size is the node's own width and height.
	Size() (w, h float64)
	// Bounds is the node's absolute bounding box on the canvas.
	Bounds() Rect

	// Clone deep-copies the node and its subtree. The copy is detached;
	// the caller is responsible for appending it to a parent.
	Clone() (Node, error)
}

// TextNode is the surface of a text leaf.
type TextNode interface {
	Node

	Characters() string
	SetCharacters(s string)

	Font() Font
	SetFont(f Font)

	// FontSize reports false when the host reports a mixed or unreadable value.
	FontSize() (float64, bool)
	LineHeight() LineHeight

	AutoResize() AutoResize
	SetAutoResize(m AutoResize)

	Alignment() Alignment
	SetAlignment(a Alignment)

	// Resize forces the node's pixel dimensions. Under ResizeHeight the
	// height is immediately recomputed from the new width.
	Resize(w, h float64)
}

// DirectionSetter is an optional text capability; hosts that cannot set a
// paragraph base direction simply do not implement it.
type DirectionSetter interface {
	SetParagraphDirection(d Direction) error
}

// FrameNode is the surface of a container that can hold children.
type FrameNode interface {
	Node

	LayoutMode() LayoutMode
	// PrimarySizing is the sizing mode along the layout direction,
	// CounterSizing the one across it. Both are SizingFixed for frames
	// without auto-layout.
	PrimarySizing() Sizing
	CounterSizing() Sizing

	// AppendChild adds (or moves) a child to the end of the child list.
	AppendChild(n Node) error
}

// FontLoader loads fonts before text writes; loads may fail per font.
type FontLoader interface {
	LoadFont(ctx context.Context, f Font) error
}

// Document bundles the capabilities the pipeline needs from the host.
type Document interface {
	Root() Node
	Fonts() FontLoader
	NodeByID(id string) Node
	// NewText creates a detached text node owned by this document.
	NewText(name string) TextNode
}

// WalkText appends every unlocked-or-not text leaf under root to the visit
// function in depth-first order, children in document order. The traversal
// order is load-bearing: correspondence mapping pairs leaves by DFS index.
func WalkText(root Node, visit func(t TextNode)) {
	if root == nil {
		return
	}
	if t, ok := root.(TextNode); ok {
		visit(t)
		return
	}
	for _, c := range root.Children() {
		WalkText(c, visit)
	}
}

// CollectText returns all text leaves under root in DFS order.
func CollectText(root Node) []TextNode {
	var out []TextNode
	WalkText(root, func(t TextNode) { out = append(out, t) })
	return out
}

// HasLockedAncestor reports whether n or any of its ancestors is locked.
func HasLockedAncestor(n Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Locked() {
			return true
		}
	}
	return false
}
