// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package langmeta resolves language codes into LanguageTarget reference
// data: English and native display names and the writing direction.
package langmeta

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/glotframe/glotframe/internal/model"
)

// rtlLanguages lists the languages written right-to-left that the engine
// mirrors and right-aligns.
var rtlLanguages = map[string]bool{
	"ar":  true, // Arabic
	"he":  true, // Hebrew
	"fa":  true, // Persian
	"ur":  true, // Urdu
	"ps":  true, // Pashto
	"sd":  true, // Sindhi
	"ckb": true, // Central Kurdish
	"dv":  true, // Dhivehi
	"yi":  true, // Yiddish
}

// commonCodes drives the selection list the control surface exposes.
var commonCodes = []string{
	"en", "de", "fr", "es", "it", "pt", "nl", "pl", "uk", "ru",
	"zh", "ja", "ko", "ar", "he", "fa", "tr", "vi", "th", "hi",
}

// Resolve builds a LanguageTarget for a BCP 47 / ISO 639-1 code.
func Resolve(code string) (model.LanguageTarget, error) {
	code = strings.TrimSpace(code)
	tag, err := language.Parse(code)
	if err != nil {
		return model.LanguageTarget{}, fmt.Errorf("unknown language code %q: %w", code, err)
	}

	base, _ := tag.Base()
	direction := model.DirectionLTR
	if rtlLanguages[base.String()] {
		direction = model.DirectionRTL
	}

	name := display.English.Tags().Name(tag)
	native := display.Self.Name(tag)
	if name == "" {
		name = code
	}
	if native == "" {
		native = name
	}

	return model.LanguageTarget{
		Code:       code,
		Name:       name,
		NativeName: native,
		Direction:  direction,
	}, nil
}

// ResolveAll resolves a list of codes, failing on the first unknown one.
func ResolveAll(codes []string) ([]model.LanguageTarget, error) {
	out := make([]model.LanguageTarget, 0, len(codes))
	for _, code := range codes {
		lang, err := Resolve(code)
		if err != nil {
			return nil, err
		}
		out = append(out, lang)
	}
	return out, nil
}

// Common returns the curated selection list.
func Common() []model.LanguageTarget {
	out := make([]model.LanguageTarget, 0, len(commonCodes))
	for _, code := range commonCodes {
		if lang, err := Resolve(code); err == nil {
			out = append(out, lang)
		}
	}
	return out
}
