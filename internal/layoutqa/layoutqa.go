// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package layoutqa re-measures every mapped text unit after translation and
// classifies layout breakage on a green/amber/red scale. It has no text
// metrics of its own: the host's reflow is the oracle, and the only
// instrument is a measure-then-rollback probe on the live handle.
package layoutqa

import (
	"fmt"
	"math"

	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/model"
)

const (
	// fixedBoxTolerance absorbs sub-pixel measurement noise in the
	// fixed-box overflow check.
	fixedBoxTolerance = 0.5
	// containerTolerance absorbs float rounding in absolute bounds only.
	containerTolerance = 1.0
	// growthFloorPx is the minimum height growth treated as a new line.
	growthFloorPx = 4.0
)

// Engine evaluates one language's clone against the original baseline.
type Engine struct{}

// New creates a QA engine.
func New() *Engine { return &Engine{} }

// Evaluate produces the language's QAReport. units is the immutable
// pre-translation baseline in scan order; fontErrors comes from the apply
// pass. The report is recomputed wholesale on every call.
func (e *Engine) Evaluate(rec *model.CloneRecord, units []model.TextUnit, lang model.LanguageTarget, fontErrors []string) model.QAReport {
	var issues []model.QAIssue

	for _, unit := range units {
		handle, ok := rec.Handles[unit.ID]
		if !ok {
			continue
		}

		switch unit.AutoResize {
		case canvas.ResizeNone:
			if issue, broke := e.checkFixedBox(unit, handle); broke {
				issues = append(issues, issue)
			}
		case canvas.ResizeHeight:
			if issue, grew := e.checkLineGrowth(unit, handle); grew {
				issues = append(issues, issue)
			}
			// ResizeWidthAndHeight boxes hug their text and cannot overflow
			// themselves; only the container check applies to them.
		}

		if issue, broke := e.checkContainerOverflow(unit, handle); broke {
			issues = append(issues, issue)
		}
	}

	for _, name := range fontErrors {
		issues = append(issues, model.QAIssue{
			Severity: model.SeverityAmber,
			Category: model.IssueFontLoad,
			Message:  fmt.Sprintf("Font failed to load: %s", name),
		})
	}

	return model.NewQAReport(lang.Code, issues)
}

// checkFixedBox detects text that no longer fits a fixed-size box. Needed
// height is measured by temporarily letting the handle grow vertically, then
// rolling back both the mode and the exact pixel dimensions — width included,
// because width drives the re-wrap.
func (e *Engine) checkFixedBox(unit model.TextUnit, handle canvas.TextNode) (model.QAIssue, bool) {
	w0, h0 := handle.Size()

	handle.SetAutoResize(canvas.ResizeHeight)
	_, needed := handle.Size()
	handle.SetAutoResize(canvas.ResizeNone)
	handle.Resize(w0, h0)

	if needed <= h0+fixedBoxTolerance {
		return model.QAIssue{}, false
	}
	return model.QAIssue{
		Severity: model.SeverityRed,
		Category: model.IssueTextOverflow,
		EntryID:  unit.ID,
		Message:  fmt.Sprintf("Overflow: %q needs %.0fpx but the box is %.0fpx", unit.LayerName, needed, h0),
	}, true
}

// checkLineGrowth flags grows-vertically units whose reflowed height grew
// past the original baseline by more than max(lineHeight×0.8, 4px).
func (e *Engine) checkLineGrowth(unit model.TextUnit, handle canvas.TextNode) (model.QAIssue, bool) {
	_, current := handle.Size()
	delta := current - unit.Height

	threshold := unit.LineHeight * 0.8
	if threshold < growthFloorPx {
		threshold = growthFloorPx
	}
	if delta <= threshold {
		return model.QAIssue{}, false
	}

	extraLines := 1
	if unit.LineHeight > 0 {
		if n := int(math.Round(delta / unit.LineHeight)); n > 1 {
			extraLines = n
		}
	}
	msg := "New line"
	if extraLines > 1 {
		msg = fmt.Sprintf("+%d lines", extraLines)
	}
	return model.QAIssue{
		Severity: model.SeverityAmber,
		Category: model.IssueTextOverflow,
		EntryID:  unit.ID,
		Message:  msg,
	}, true
}

// checkContainerOverflow walks the handle's ancestors up to the page root
// and compares bounding boxes on each axis the ancestor enforces as fixed.
// The nearest offending ancestor wins and ends the walk.
func (e *Engine) checkContainerOverflow(unit model.TextUnit, handle canvas.TextNode) (model.QAIssue, bool) {
	bounds := handle.Bounds()

	for anc := handle.Parent(); anc != nil; anc = anc.Parent() {
		if anc.Type() == canvas.NodePage {
			break
		}
		frame, ok := anc.(canvas.FrameNode)
		if !ok || anc.Type() != canvas.NodeFrame {
			continue
		}

		checkX, checkY := fixedAxes(frame)
		ab := anc.Bounds()

		overX := checkX && (bounds.X < ab.X-containerTolerance || bounds.Right() > ab.Right()+containerTolerance)
		overY := checkY && (bounds.Y < ab.Y-containerTolerance || bounds.Bottom() > ab.Bottom()+containerTolerance)
		if overX || overY {
			return model.QAIssue{
				Severity: model.SeverityRed,
				Category: model.IssueContainerOverflow,
				EntryID:  unit.ID,
				Message:  fmt.Sprintf("Overflows container %q", anc.Name()),
			}, true
		}
	}
	return model.QAIssue{}, false
}

// fixedAxes reports which axes a container enforces as fixed-size.
// Non-auto-layout frames are fixed on both; auto-layout frames are fixed on
// an axis only when that axis's sizing mode is explicitly fixed, with the
// primary axis set by the layout direction.
func fixedAxes(frame canvas.FrameNode) (checkX, checkY bool) {
	switch frame.LayoutMode() {
	case canvas.LayoutHorizontal:
		return frame.PrimarySizing() == canvas.SizingFixed, frame.CounterSizing() == canvas.SizingFixed
	case canvas.LayoutVertical:
		return frame.CounterSizing() == canvas.SizingFixed, frame.PrimarySizing() == canvas.SizingFixed
	default:
		return true, true
	}
}
