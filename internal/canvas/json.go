// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package canvas

import (
	"encoding/json"
	"fmt"
)

// DocumentJSON is the wire form of a document snapshot exchanged with the
// plugin: a page subtree plus the font catalog the host has loaded.
type DocumentJSON struct {
	Page  NodeJSON `json:"page"`
	Fonts []Font   `json:"fonts,omitempty"`
}

// NodeJSON is the wire form of one node.
type NodeJSON struct {
	ID     string  `json:"id,omitempty"`
	Type   string  `json:"type"`
	Name   string  `json:"name,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Locked bool    `json:"locked,omitempty"`

	// Frame fields.
	LayoutMode    string     `json:"layoutMode,omitempty"`
	PrimarySizing string     `json:"primarySizing,omitempty"`
	CounterSizing string     `json:"counterSizing,omitempty"`
	Children      []NodeJSON `json:"children,omitempty"`

	// Text fields.
	Characters      string  `json:"characters,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	FontStyle       string  `json:"fontStyle,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty"`
	MixedFontSize   bool    `json:"mixedFontSize,omitempty"`
	LineHeight      float64 `json:"lineHeight,omitempty"`
	LineHeightUnit  string  `json:"lineHeightUnit,omitempty"`
	AutoResize      string  `json:"autoResize,omitempty"`
	Alignment       string  `json:"alignment,omitempty"`
	Direction       string  `json:"direction,omitempty"`
}

// DecodeDocument builds an in-memory document from its wire form.
func DecodeDocument(data []byte) (*Doc, error) {
	var dj DocumentJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return BuildDocument(dj)
}

// BuildDocument builds an in-memory document from an already-parsed snapshot.
func BuildDocument(dj DocumentJSON) (*Doc, error) {
	root, err := buildNode(dj.Page)
	if err != nil {
		return nil, err
	}
	frame, ok := root.(*Frame)
	if !ok {
		return nil, fmt.Errorf("document root must be a container, got %s", dj.Page.Type)
	}
	return NewDoc(frame, dj.Fonts), nil
}

func buildNode(nj NodeJSON) (Node, error) {
	switch NodeType(nj.Type) {
	case NodeText:
		t := NewText(TextOptions{
			Name:       nj.Name,
			Characters: nj.Characters,
			X:          nj.X, Y: nj.Y, W: nj.W, H: nj.H,
			Locked:     nj.Locked,
			Font:       Font{Family: nj.FontFamily, Style: nj.FontStyle},
			FontSize:   nj.FontSize,
			MixedSize:  nj.MixedFontSize,
			LineHeight: LineHeight{Value: nj.LineHeight, Unit: lineHeightUnit(nj.LineHeightUnit)},
			AutoResize: autoResize(nj.AutoResize),
			Alignment:  Alignment(nj.Alignment),
		})
		// Trust the host's reported geometry over our own reflow estimate.
		t.w, t.h = nj.W, nj.H
		if nj.ID != "" {
			t.id = nj.ID
		}
		return t, nil
	case NodePage, NodeFrame, NodeGroup, NodeVector, "":
		typ := NodeType(nj.Type)
		if typ == "" {
			typ = NodeFrame
		}
		f := NewFrame(FrameOptions{
			Name: nj.Name,
			Type: typ,
			X:    nj.X, Y: nj.Y, W: nj.W, H: nj.H,
			Locked:        nj.Locked,
			LayoutMode:    layoutMode(nj.LayoutMode),
			PrimarySizing: Sizing(nj.PrimarySizing),
			CounterSizing: Sizing(nj.CounterSizing),
		})
		if f.primarySizing == "" {
			f.primarySizing = SizingFixed
		}
		if f.counterSizing == "" {
			f.counterSizing = SizingFixed
		}
		if nj.ID != "" {
			f.id = nj.ID
		}
		for _, cj := range nj.Children {
			c, err := buildNode(cj)
			if err != nil {
				return nil, err
			}
			if err := f.AppendChild(c); err != nil {
				return nil, err
			}
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", nj.Type)
	}
}

func lineHeightUnit(s string) LineHeightUnit {
	switch LineHeightUnit(s) {
	case LineHeightPixels, LineHeightPercent:
		return LineHeightUnit(s)
	default:
		return LineHeightAuto
	}
}

func autoResize(s string) AutoResize {
	switch AutoResize(s) {
	case ResizeNone, ResizeHeight, ResizeWidthAndHeight:
		return AutoResize(s)
	default:
		return ResizeHeight
	}
}

func layoutMode(s string) LayoutMode {
	switch LayoutMode(s) {
	case LayoutHorizontal, LayoutVertical:
		return LayoutMode(s)
	default:
		return LayoutNone
	}
}

// EncodeNode converts a node subtree back to its wire form.
func EncodeNode(n Node) NodeJSON {
	x, y := n.Position()
	w, h := n.Size()
	nj := NodeJSON{
		ID:     n.ID(),
		Type:   string(n.Type()),
		Name:   n.Name(),
		X:      x, Y: y, W: w, H: h,
		Locked: n.Locked(),
	}
	switch t := n.(type) {
	case TextNode:
		nj.Characters = t.Characters()
		nj.FontFamily = t.Font().Family
		nj.FontStyle = t.Font().Style
		if size, ok := t.FontSize(); ok {
			nj.FontSize = size
		} else {
			nj.MixedFontSize = true
		}
		lh := t.LineHeight()
		nj.LineHeight = lh.Value
		nj.LineHeightUnit = string(lh.Unit)
		nj.AutoResize = string(t.AutoResize())
		nj.Alignment = string(t.Alignment())
		if mt, ok := n.(*Text); ok {
			nj.Direction = string(mt.ParagraphDirection())
		}
	case FrameNode:
		nj.LayoutMode = string(t.LayoutMode())
		nj.PrimarySizing = string(t.PrimarySizing())
		nj.CounterSizing = string(t.CounterSizing())
		for _, c := range n.Children() {
			nj.Children = append(nj.Children, EncodeNode(c))
		}
	}
	return nj
}
