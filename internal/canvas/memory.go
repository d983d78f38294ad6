// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package canvas

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// charWidthFactor approximates average glyph advance as a fraction of the
// font size. The engine never depends on the exact value: layout QA compares
// the host's own reflow against the host's own baseline, so any consistent
// metric works.
const charWidthFactor = 0.6

var idCounter atomic.Int64

func nextID(prefix string) string {
	return fmt.Sprintf("%s:%d", prefix, idCounter.Add(1))
}

// baseNode carries the state shared by all in-memory node kinds.
type baseNode struct {
	id     string
	name   string
	typ    NodeType
	x, y   float64
	w, h   float64
	locked bool
	parent Node
}

func (b *baseNode) ID() string                { return b.id }
func (b *baseNode) Name() string              { return b.name }
func (b *baseNode) Type() NodeType            { return b.typ }
func (b *baseNode) Parent() Node              { return b.parent }
func (b *baseNode) Locked() bool              { return b.locked }
func (b *baseNode) Position() (x, y float64)  { return b.x, b.y }
func (b *baseNode) SetPosition(x, y float64)  { b.x, b.y = x, y }
func (b *baseNode) Size() (w, h float64)      { return b.w, b.h }

func (b *baseNode) Bounds() Rect {
	x, y := b.x, b.y
	for p := b.parent; p != nil; p = p.Parent() {
		px, py := p.Position()
		x += px
		y += py
	}
	return Rect{X: x, Y: y, W: b.w, H: b.h}
}

// Frame is an in-memory container node (page, frame or group).
type Frame struct {
	baseNode
	layoutMode    LayoutMode
	primarySizing Sizing
	counterSizing Sizing
	children      []Node
}

// FrameOptions configure a new in-memory frame.
type FrameOptions struct {
	Name          string
	Type          NodeType // NodeFrame when empty
	X, Y, W, H    float64
	Locked        bool
	LayoutMode    LayoutMode
	PrimarySizing Sizing
	CounterSizing Sizing
}

// NewFrame creates a detached in-memory frame.
func NewFrame(opts FrameOptions) *Frame {
	typ := opts.Type
	if typ == "" {
		typ = NodeFrame
	}
	mode := opts.LayoutMode
	if mode == "" {
		mode = LayoutNone
	}
	ps, cs := opts.PrimarySizing, opts.CounterSizing
	if ps == "" {
		ps = SizingFixed
	}
	if cs == "" {
		cs = SizingFixed
	}
	return &Frame{
		baseNode: baseNode{
			id: nextID("f"), name: opts.Name, typ: typ,
			x: opts.X, y: opts.Y, w: opts.W, h: opts.H, locked: opts.Locked,
		},
		layoutMode:    mode,
		primarySizing: ps,
		counterSizing: cs,
	}
}

func (f *Frame) Children() []Node {
	out := make([]Node, len(f.children))
	copy(out, f.children)
	return out
}

func (f *Frame) LayoutMode() LayoutMode  { return f.layoutMode }
func (f *Frame) PrimarySizing() Sizing   { return f.primarySizing }
func (f *Frame) CounterSizing() Sizing   { return f.counterSizing }

// AppendChild adds n to the end of the child list, detaching it from its
// previous parent first. Re-appending an existing child moves it to the end,
// which is what RTL mirroring relies on.
func (f *Frame) AppendChild(n Node) error {
	switch c := n.(type) {
	case *Frame:
		c.detach()
		c.parent = f
	case *Text:
		c.detach()
		c.parent = f
	default:
		return fmt.Errorf("canvas: cannot append node of type %T", n)
	}
	f.children = append(f.children, n)
	return nil
}

func (f *Frame) removeChild(n Node) {
	for i, c := range f.children {
		if c == n {
			f.children = append(f.children[:i], f.children[i+1:]...)
			return
		}
	}
}

func (f *Frame) detach() {
	if p, ok := f.parent.(*Frame); ok {
		p.removeChild(f)
	}
	f.parent = nil
}

func (f *Frame) Clone() (Node, error) {
	cp := &Frame{
		baseNode:      f.baseNode,
		layoutMode:    f.layoutMode,
		primarySizing: f.primarySizing,
		counterSizing: f.counterSizing,
	}
	cp.id = nextID("f")
	cp.parent = nil
	for _, c := range f.children {
		cc, err := c.Clone()
		if err != nil {
			return nil, err
		}
		if err := cp.AppendChild(cc); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

// Text is an in-memory text leaf with a deterministic greedy reflow model.
type Text struct {
	baseNode
	chars      string
	font       Font
	fontSize   float64
	mixedSize  bool
	lineHeight LineHeight
	autoResize AutoResize
	alignment  Alignment
	direction  Direction
}

// TextOptions configure a new in-memory text node.
type TextOptions struct {
	Name       string
	Characters string
	X, Y, W, H float64
	Locked     bool
	Font       Font
	FontSize   float64
	MixedSize  bool
	LineHeight LineHeight
	AutoResize AutoResize
	Alignment  Alignment
}

// NewText creates a detached in-memory text node and reflows it once.
func NewText(opts TextOptions) *Text {
	t := &Text{
		baseNode: baseNode{
			id: nextID("t"), name: opts.Name, typ: NodeText,
			x: opts.X, y: opts.Y, w: opts.W, h: opts.H, locked: opts.Locked,
		},
		chars:      opts.Characters,
		font:       opts.Font,
		fontSize:   opts.FontSize,
		mixedSize:  opts.MixedSize,
		lineHeight: opts.LineHeight,
		autoResize: opts.AutoResize,
		alignment:  opts.Alignment,
		direction:  DirectionLTR,
	}
	if t.fontSize == 0 {
		t.fontSize = 14
	}
	if t.lineHeight.Unit == "" {
		t.lineHeight = LineHeight{Unit: LineHeightAuto}
	}
	if t.autoResize == "" {
		t.autoResize = ResizeHeight
	}
	if t.alignment == "" {
		t.alignment = AlignLeft
	}
	t.reflow()
	return t
}

func (t *Text) Children() []Node { return nil }

func (t *Text) Characters() string { return t.chars }

func (t *Text) SetCharacters(s string) {
	t.chars = s
	t.reflow()
}

func (t *Text) Font() Font     { return t.font }
func (t *Text) SetFont(f Font) { t.font = f }

func (t *Text) FontSize() (float64, bool) {
	if t.mixedSize {
		return 0, false
	}
	return t.fontSize, true
}

func (t *Text) LineHeight() LineHeight { return t.lineHeight }

func (t *Text) AutoResize() AutoResize { return t.autoResize }

func (t *Text) SetAutoResize(m AutoResize) {
	t.autoResize = m
	t.reflow()
}

func (t *Text) Alignment() Alignment     { return t.alignment }
func (t *Text) SetAlignment(a Alignment) { t.alignment = a }

func (t *Text) Resize(w, h float64) {
	t.w, t.h = w, h
	if t.autoResize == ResizeHeight {
		t.reflow()
	}
}

// SetParagraphDirection implements the optional DirectionSetter capability.
func (t *Text) SetParagraphDirection(d Direction) error {
	t.direction = d
	return nil
}

// ParagraphDirection exposes the direction for tests.
func (t *Text) ParagraphDirection() Direction { return t.direction }

func (t *Text) detach() {
	if p, ok := t.parent.(*Frame); ok {
		p.removeChild(t)
	}
	t.parent = nil
}

func (t *Text) Clone() (Node, error) {
	cp := *t
	cp.id = nextID("t")
	cp.parent = nil
	return &cp, nil
}

// resolvedLineHeight is the pixel line height the reflow model uses.
func (t *Text) resolvedLineHeight() float64 {
	switch t.lineHeight.Unit {
	case LineHeightPixels:
		if t.lineHeight.Value > 0 {
			return t.lineHeight.Value
		}
	case LineHeightPercent:
		if t.lineHeight.Value > 0 {
			return t.fontSize * t.lineHeight.Value / 100
		}
	}
	return t.fontSize * 1.2
}

// reflow recomputes the node's size from its sizing mode, mimicking the
// host's text layout with a greedy word wrap over an average glyph width.
func (t *Text) reflow() {
	lh := t.resolvedLineHeight()
	switch t.autoResize {
	case ResizeWidthAndHeight:
		longest := 0
		lines := 1
		for i, line := range strings.Split(t.chars, "\n") {
			if i > 0 {
				lines++
			}
			if n := len([]rune(line)); n > longest {
				longest = n
			}
		}
		t.w = float64(longest) * t.fontSize * charWidthFactor
		t.h = float64(lines) * lh
	case ResizeHeight:
		t.h = float64(t.wrappedLines()) * lh
	}
	// ResizeNone: dimensions stay wherever they were put.
}

// wrappedLines counts the lines a greedy word wrap produces at the current
// width. Words longer than a line are broken mid-word, like the host does.
func (t *Text) wrappedLines() int {
	perLine := int(t.w / (t.fontSize * charWidthFactor))
	if perLine < 1 {
		perLine = 1
	}
	total := 0
	for _, para := range strings.Split(t.chars, "\n") {
		total += wrapCount(para, perLine)
	}
	if total < 1 {
		total = 1
	}
	return total
}

func wrapCount(para string, perLine int) int {
	words := strings.Fields(para)
	if len(words) == 0 {
		return 1
	}
	lines := 1
	current := 0
	for _, w := range words {
		n := len([]rune(w))
		for n > perLine {
			// Break an over-long word across lines.
			if current > 0 {
				lines++
				current = 0
			}
			n -= perLine
			lines++
		}
		switch {
		case current == 0:
			current = n
		case current+1+n <= perLine:
			current += 1 + n
		default:
			lines++
			current = n
		}
	}
	return lines
}

// Doc is the in-memory Document implementation.
type Doc struct {
	page      *Frame
	available map[Font]bool
}

// NewDoc creates a document with the given page root. fonts lists the font
// catalog available to LoadFont; a nil catalog accepts every font.
func NewDoc(page *Frame, fonts []Font) *Doc {
	var avail map[Font]bool
	if fonts != nil {
		avail = make(map[Font]bool, len(fonts))
		for _, f := range fonts {
			avail[f] = true
		}
	}
	return &Doc{page: page, available: avail}
}

func (d *Doc) Root() Node { return d.page }

// Page returns the typed page root for tests and the JSON codec.
func (d *Doc) Page() *Frame { return d.page }

func (d *Doc) Fonts() FontLoader { return d }

// LoadFont implements FontLoader against the document's font catalog.
func (d *Doc) LoadFont(_ context.Context, f Font) error {
	if d.available == nil || d.available[f] {
		return nil
	}
	return fmt.Errorf("canvas: font %q not available", f.String())
}

func (d *Doc) NodeByID(id string) Node {
	var found Node
	var walk func(n Node)
	walk = func(n Node) {
		if found != nil {
			return
		}
		if n.ID() == id {
			found = n
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(d.page)
	return found
}

func (d *Doc) NewText(name string) TextNode {
	return NewText(TextOptions{Name: name})
}
