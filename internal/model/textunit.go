// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the data types shared across the localization
// pipeline: text units, language targets, translation sets, QA reports and
// per-language run progress.
package model

import (
	"fmt"

	"github.com/glotframe/glotframe/internal/canvas"
)

// TextUnit is one translatable text leaf extracted from the original
// selection. IDs are run-scoped: dense t0..t(n-1) in DFS-visit order over the
// original subtree, unique within a run, not persistent across runs. A unit
// is immutable after scan; it is the baseline every language's QA pass
// measures against.
type TextUnit struct {
	ID         string            `json:"id"`
	Characters string            `json:"characters"`
	NodeID     string            `json:"nodeId"`
	LayerName  string            `json:"layerName"`
	FontSize   float64           `json:"fontSize"`
	LineHeight float64           `json:"lineHeight"` // resolved to pixels
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	AutoResize canvas.AutoResize `json:"autoResize"`
	Alignment  canvas.Alignment  `json:"alignment"`
	Font       canvas.Font       `json:"font"`
	LabelLike  bool              `json:"labelLike"`
}

// UnitID formats the run-scoped id for the unit at DFS index i.
func UnitID(i int) string { return fmt.Sprintf("t%d", i) }

// ScanResult is the outcome of one scan pass over the selection.
type ScanResult struct {
	Units         []TextUnit `json:"units"`
	TotalLeaves   int        `json:"totalLeaves"`
	SkippedEmpty  int        `json:"skippedEmpty"`
	SkippedLocked int        `json:"skippedLocked"`
}

// UnitByID returns the unit with the given id, or nil.
func (r *ScanResult) UnitByID(id string) *TextUnit {
	for i := range r.Units {
		if r.Units[i].ID == id {
			return &r.Units[i]
		}
	}
	return nil
}

// CloneRecord is one language's duplicated subtree plus the correspondence
// from text-unit id to the clone's live text handle. The map contains an
// entry for an id exactly when both sides have a text leaf at the same DFS
// index; pairing is positional, never content-based.
type CloneRecord struct {
	Language string
	Root     canvas.Node
	Handles  map[string]canvas.TextNode

	// MismatchDiag is set when the original and clone leaf counts diverge,
	// in which case Handles covers only the shorter side.
	MismatchDiag string
}
