// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Text directions.
const (
	DirectionLTR = "ltr"
	DirectionRTL = "rtl"
)

// LanguageTarget is one target language selected for a run. Immutable
// reference data: code plus display metadata and the writing direction.
type LanguageTarget struct {
	Code       string `json:"code"`        // BCP 47 / ISO 639-1: en, de, ar
	Name       string `json:"name"`        // English, German, Arabic
	NativeName string `json:"native_name"` // English, Deutsch, العربية
	Direction  string `json:"direction"`   // ltr, rtl
}

// IsRTL returns true if the language is written right-to-left.
func (l LanguageTarget) IsRTL() bool {
	return l.Direction == DirectionRTL
}

// Label formats the language for clone labels per the configured format.
func (l LanguageTarget) Label(format LabelFormat) string {
	code := l.Code
	switch format {
	case LabelCodeOnly:
		return code
	case LabelCodeNative:
		if l.NativeName != "" {
			return code + " · " + l.NativeName
		}
	default:
		if l.Name != "" {
			return code + " · " + l.Name
		}
	}
	return code
}
