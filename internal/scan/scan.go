// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scan walks a document subtree and extracts the ordered list of
// translatable text units with the geometry baseline later QA passes measure
// against. Traversal is depth-first with children in document order; the
// correspondence mapper depends on exactly this order.
package scan

import (
	"strings"

	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/model"
)

// defaultFontSize is used when the host reports a mixed or unreadable size.
const defaultFontSize = 14

// labelKeywords flag a layer as label-like by name. Descriptive metadata
// only; nothing in the pipeline branches on it.
var labelKeywords = []string{
	"button", "btn", "nav", "tab", "tag", "label", "badge", "chip", "menu",
}

// Scan extracts all translatable text units under root. It never fails:
// unreadable geometry degrades to typed defaults, and empty or locked leaves
// are only counted, not extracted.
func Scan(root canvas.Node) *model.ScanResult {
	res := &model.ScanResult{}
	canvas.WalkText(root, func(t canvas.TextNode) {
		res.TotalLeaves++
		if strings.TrimSpace(t.Characters()) == "" {
			res.SkippedEmpty++
			return
		}
		if canvas.HasLockedAncestor(t) {
			res.SkippedLocked++
			return
		}
		res.Units = append(res.Units, unitFrom(t, model.UnitID(len(res.Units))))
	})
	return res
}

func unitFrom(t canvas.TextNode, id string) model.TextUnit {
	size, ok := t.FontSize()
	if !ok || size <= 0 {
		size = defaultFontSize
	}
	w, h := t.Size()
	chars := t.Characters()
	return model.TextUnit{
		ID:         id,
		Characters: chars,
		NodeID:     t.ID(),
		LayerName:  t.Name(),
		FontSize:   size,
		LineHeight: resolveLineHeight(t.LineHeight(), size),
		Width:      w,
		Height:     h,
		AutoResize: t.AutoResize(),
		Alignment:  t.Alignment(),
		Font:       t.Font(),
		LabelLike:  labelLike(t.Name(), size, chars),
	}
}

// resolveLineHeight turns the host's reported line height into pixels.
// Mixed/auto values fall back to fontSize × 1.2; percentages resolve against
// the font size.
func resolveLineHeight(lh canvas.LineHeight, fontSize float64) float64 {
	switch lh.Unit {
	case canvas.LineHeightPixels:
		if lh.Value > 0 {
			return lh.Value
		}
	case canvas.LineHeightPercent:
		if lh.Value > 0 {
			return fontSize * lh.Value / 100
		}
	}
	return fontSize * 1.2
}

// labelLike classifies short, small or name-hinted leaves as UI labels.
func labelLike(layerName string, fontSize float64, chars string) bool {
	name := strings.ToLower(layerName)
	for _, kw := range labelKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return fontSize <= 14 && len([]rune(chars)) <= 24
}
