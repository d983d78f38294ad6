// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// LayoutModeRow and friends are the clone placement modes.
type PlacementMode string

const (
	PlacementRow    PlacementMode = "row"
	PlacementColumn PlacementMode = "column"
	PlacementWrap   PlacementMode = "wrap"
)

// LabelFormat selects how the optional clone label is composed.
type LabelFormat string

const (
	LabelCodeOnly    LabelFormat = "code"
	LabelCodeEnglish LabelFormat = "code-english"
	LabelCodeNative  LabelFormat = "code-native"
)

// Rules is the rule set echoed verbatim into every translation request.
// Field names match the wire protocol the completion endpoint expects.
type Rules struct {
	Tone                 string   `json:"tone,omitempty"`
	Formality            string   `json:"formality,omitempty"`
	KeepShort            bool     `json:"keepShort"`
	MaxExpansionRatio    float64  `json:"maxExpansionRatio,omitempty"`
	PreserveLineBreaks   bool     `json:"preserveLineBreaks"`
	PreservePlaceholders bool     `json:"preservePlaceholders"`
	PreserveTerms        []string `json:"preserveTerms,omitempty"`
	KeepWesternNumerals  bool     `json:"keepWesternNumerals"`
	KeepPunctuationStyle bool     `json:"keepPunctuationStyle"`
}

// DefaultRules returns the rule set used when the caller supplies none.
func DefaultRules() Rules {
	return Rules{
		Tone:                 "neutral",
		Formality:            "default",
		KeepShort:            true,
		MaxExpansionRatio:    1.3,
		PreserveLineBreaks:   true,
		PreservePlaceholders: true,
		KeepWesternNumerals:  true,
		KeepPunctuationStyle: true,
	}
}

// Layout configures clone placement on the canvas.
type Layout struct {
	Mode        PlacementMode `json:"mode"`
	Gap         float64       `json:"gap"`
	WrapColumns int           `json:"wrapColumns"`
	AddLabel    bool          `json:"addLabel"`
	LabelFormat LabelFormat   `json:"labelFormat"`
	MirrorRTL   bool          `json:"mirrorRtl"`
}

// DefaultLayout returns the placement defaults.
func DefaultLayout() Layout {
	return Layout{
		Mode:        PlacementRow,
		Gap:         80,
		WrapColumns: 3,
		AddLabel:    true,
		LabelFormat: LabelCodeEnglish,
		MirrorRTL:   false,
	}
}

// FontFallback configures the applier's font handling.
type FontFallback struct {
	Enabled bool          `json:"enabled"`
	Fonts   []FontChoice  `json:"fonts,omitempty"`
}

// FontChoice is one entry in the ordered fallback list.
type FontChoice struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

// RunConfig is the full per-run configuration: targets plus rule, layout and
// apply settings. Captured once at run start; read-only afterwards.
type RunConfig struct {
	Languages    []LanguageTarget `json:"languages"`
	Rules        Rules            `json:"rules"`
	Layout       Layout           `json:"layout"`
	FontFallback FontFallback     `json:"fontFallback"`
	ApplyRTL     bool             `json:"applyRtl"` // set direction/alignment for RTL targets
}
