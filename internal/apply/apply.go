// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apply writes translated strings into the clone's mapped text
// handles, loading fonts first (with optional ordered fallback) and setting
// paragraph direction and alignment for right-to-left targets.
package apply

import (
	"context"
	"log/slog"

	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/model"
)

// Result reports one apply pass. FontErrors feeds directly into QA as
// font-load issues.
type Result struct {
	Applied    int
	FontErrors []string
}

// Applier applies translation sets to clone records.
type Applier struct {
	fonts canvas.FontLoader
	log   *slog.Logger
}

// New creates an applier using the document's font loader.
func New(fonts canvas.FontLoader, log *slog.Logger) *Applier {
	if log == nil {
		log = slog.Default()
	}
	return &Applier{fonts: fonts, log: log}
}

// Apply writes each translated string into its mapped handle. A unit whose
// font (and every fallback) fails to load is skipped entirely: the original
// clone text remains, and the handle's name is recorded in FontErrors.
func (a *Applier) Apply(ctx context.Context, rec *model.CloneRecord, set model.TranslationSet, lang model.LanguageTarget, cfg model.RunConfig) Result {
	var res Result
	for id, handle := range rec.Handles {
		text, ok := set[id]
		if !ok {
			// Missing from the response: the unit stays untranslated.
			continue
		}

		if !a.loadFontFor(ctx, handle, cfg.FontFallback) {
			res.FontErrors = append(res.FontErrors, handle.Name())
			continue
		}

		handle.SetCharacters(text)

		if cfg.ApplyRTL && lang.IsRTL() {
			applyRTL(handle)
		}
		res.Applied++
	}
	return res
}

// loadFontFor loads the handle's current font, trying the ordered fallback
// list when enabled. On a fallback hit the handle is switched to that font.
func (a *Applier) loadFontFor(ctx context.Context, handle canvas.TextNode, fb model.FontFallback) bool {
	font := handle.Font()
	if err := a.fonts.LoadFont(ctx, font); err == nil {
		return true
	} else if !fb.Enabled {
		a.log.Warn("font load failed", "font", font.String(), "node", handle.Name(), "error", err)
		return false
	}

	for _, choice := range fb.Fonts {
		candidate := canvas.Font{Family: choice.Family, Style: choice.Style}
		if err := a.fonts.LoadFont(ctx, candidate); err == nil {
			handle.SetFont(candidate)
			return true
		}
	}
	a.log.Warn("font load failed after fallbacks", "font", font.String(), "node", handle.Name())
	return false
}

// applyRTL sets the paragraph base direction (best-effort; the capability
// may be absent) and forces right alignment, except for units that were
// already centered.
func applyRTL(handle canvas.TextNode) {
	if ds, ok := handle.(canvas.DirectionSetter); ok {
		_ = ds.SetParagraphDirection(canvas.DirectionRTL)
	}
	if handle.Alignment() != canvas.AlignCenter {
		handle.SetAlignment(canvas.AlignRight)
	}
}
