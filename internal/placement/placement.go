// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package placement clones the original subtree once per language, positions
// the clone per the configured layout mode and builds the per-language
// correspondence record. The original node is never mutated: all writes
// target the clone.
package placement

import (
	"fmt"
	"log/slog"

	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/correspond"
	"github.com/glotframe/glotframe/internal/model"
)

// labelOffset is the fixed distance between a clone's top edge and its label.
const labelOffset = 20

// Engine duplicates and places clones on the canvas.
type Engine struct {
	doc canvas.Document
	log *slog.Logger
}

// New creates a placement engine over the given document.
func New(doc canvas.Document, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{doc: doc, log: log}
}

// Offset computes the relative placement offset for the clone at index (the
// position of the language in the run's selection). Pure: depends only on
// the index, the original's geometry, the gap and the wrap column count.
func Offset(mode model.PlacementMode, index int, origW, origH, gap float64, wrapColumns int) (dx, dy float64) {
	switch mode {
	case model.PlacementColumn:
		return 0, float64(index+1) * (origH + gap)
	case model.PlacementWrap:
		cols := wrapColumns
		if cols < 1 {
			cols = 1
		}
		col := index % cols
		row := index / cols
		// Wrap starts at the first wrap column; row 0 is not offset past the
		// original the way row/column modes are.
		return float64(col+1) * (origW + gap), float64(row) * (origH + gap)
	default: // row
		return float64(index+1) * (origW + gap), 0
	}
}

// Duplicate clones original for one language, places the clone, optionally
// labels it and mirrors RTL flow, and returns the language's CloneRecord.
// index is the language's position in the run's selection. The label font
// must already be loaded by the caller.
func (e *Engine) Duplicate(original canvas.Node, index int, lang model.LanguageTarget, layout model.Layout, units []model.TextUnit) (*model.CloneRecord, error) {
	clone, err := original.Clone()
	if err != nil {
		return nil, fmt.Errorf("cloning for %s: %w", lang.Code, err)
	}

	parent, ok := original.Parent().(canvas.FrameNode)
	if !ok {
		return nil, fmt.Errorf("original %q has no container parent", original.Name())
	}
	if err := parent.AppendChild(clone); err != nil {
		return nil, fmt.Errorf("appending clone for %s: %w", lang.Code, err)
	}

	ox, oy := original.Position()
	ow, oh := original.Size()
	dx, dy := Offset(layout.Mode, index, ow, oh, layout.Gap, layout.WrapColumns)
	clone.SetPosition(ox+dx, oy+dy)

	if layout.AddLabel {
		e.addLabel(parent, clone, lang, layout.LabelFormat)
	}

	// The correspondence must be built before any child reordering: pairing
	// is positional, and mirroring reverses the clone's DFS order. The
	// handles are live node references, so they survive the reorder.
	handles, diag := correspond.BuildMap(original, clone, units)
	if diag != "" {
		e.log.Warn("clone correspondence incomplete",
			"language", lang.Code, "diag", diag)
	}

	if layout.MirrorRTL && lang.IsRTL() {
		if !mirrorHorizontal(clone) {
			// Non-fatal: the run continues without mirroring.
			e.log.Debug("rtl mirror not applicable",
				"language", lang.Code, "node", clone.Name())
		}
	}

	return &model.CloneRecord{
		Language:     lang.Code,
		Root:         clone,
		Handles:      handles,
		MismatchDiag: diag,
	}, nil
}

// addLabel creates a small text leaf above the clone naming the language.
func (e *Engine) addLabel(parent canvas.FrameNode, clone canvas.Node, lang model.LanguageTarget, format model.LabelFormat) {
	label := e.doc.NewText(fmt.Sprintf("label/%s", lang.Code))
	label.SetCharacters(lang.Label(format))
	label.SetAutoResize(canvas.ResizeWidthAndHeight)
	if err := parent.AppendChild(label); err != nil {
		e.log.Warn("label append failed", "language", lang.Code, "error", err)
		return
	}
	cx, cy := clone.Position()
	label.SetPosition(cx, cy-labelOffset)
}

// mirrorHorizontal reverses child order of a horizontal auto-layout container
// by re-appending children back-to-front. Returns false when the node is not
// a horizontal auto-layout frame; nothing is changed in that case.
func mirrorHorizontal(n canvas.Node) bool {
	frame, ok := n.(canvas.FrameNode)
	if !ok || frame.LayoutMode() != canvas.LayoutHorizontal {
		return false
	}
	children := frame.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if err := frame.AppendChild(children[i]); err != nil {
			return false
		}
	}
	return true
}
