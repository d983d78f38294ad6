// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// TranslationSet maps text-unit id to translated string for one language.
// It may be partially populated: ids absent from the map simply failed to
// translate and keep the untranslated clone text.
type TranslationSet map[string]string

// Merge overlays other onto the set, overwriting only the ids other carries.
// This is the rewrite-shorter contract: previously successful entries are
// never dropped by a partial rewrite result.
func (s TranslationSet) Merge(other TranslationSet) TranslationSet {
	if s == nil {
		s = make(TranslationSet, len(other))
	}
	for id, text := range other {
		s[id] = text
	}
	return s
}

// Clone returns an independent copy of the set.
func (s TranslationSet) Clone() TranslationSet {
	out := make(TranslationSet, len(s))
	for id, text := range s {
		out[id] = text
	}
	return out
}
