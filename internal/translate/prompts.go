// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"encoding/json"
	"fmt"

	"github.com/glotframe/glotframe/internal/model"
)

// systemPrompt demands JSON-only output keyed by unit id.
const systemPrompt = `You are a professional translator specializing in UI and product localization for design documents.

You receive a JSON payload with a target language, a rule set and a "strings" object mapping ids to {text, context}. The context is the design layer name; use it to disambiguate short UI strings.

TRANSLATION PRINCIPLES:
- Translate for naturalness and fluency in the target language, not word-for-word
- Respect every rule in the "rules" object (tone, formality, keepShort, maxExpansionRatio, preserved terms)
- UI text must stay as compact as the original allows; never pad
- Keep brand names and preserved terms unchanged

OUTPUT REQUIREMENTS:
- Respond with a single JSON object mapping each input id to its translated string
- Preserve placeholders (e.g. {name}, %s, {{count}}) exactly when preservePlaceholders is set
- Preserve line breaks within strings when preserveLineBreaks is set
- Return ONLY the JSON object: no explanations, no markdown code fences`

// strictSuffix is appended after a malformed response before the immediate
// retry.
const strictSuffix = `STRICT MODE: Your previous output was not a valid JSON object. Respond with NOTHING but a raw JSON object of the form {"t0":"...","t1":"..."}. No prose, no code fences, no trailing text.`

// shortenSystemPrompt requests strictly shorter same-meaning rewrites.
const shortenSystemPrompt = `You are a professional UI copy editor. You receive strings that were translated but do not fit their layout. For each id you get the original source text and the current translation.

Rewrite each current translation so that it is STRICTLY SHORTER (fewer characters) while keeping the same meaning and language. Prefer tighter phrasing over abbreviation; abbreviate only as a last resort.

Respond with a single JSON object mapping each input id to its shortened string. Return ONLY the JSON object, no explanations or markdown.`

// requestString is one unit in the request payload.
type requestString struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// requestPayload is the user-message body of a translation request. Rules are
// echoed verbatim.
type requestPayload struct {
	SourceLanguage string                   `json:"sourceLanguage"`
	TargetLanguage string                   `json:"targetLanguage"`
	IsRTL          bool                     `json:"isRTL"`
	Rules          model.Rules              `json:"rules"`
	Strings        map[string]requestString `json:"strings"`
}

func buildUserPayload(lang model.LanguageTarget, units []model.TextUnit, rules model.Rules) (string, error) {
	payload := requestPayload{
		SourceLanguage: "auto",
		TargetLanguage: lang.Code,
		IsRTL:          lang.IsRTL(),
		Rules:          rules,
		Strings:        make(map[string]requestString, len(units)),
	}
	for _, u := range units {
		payload.Strings[u.ID] = requestString{Text: u.Characters, Context: u.LayerName}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	return string(data), nil
}

// shortenString is one unit in a rewrite-shorter request.
type shortenString struct {
	Original string `json:"original"`
	Current  string `json:"current"`
	Context  string `json:"context,omitempty"`
}

type shortenPayload struct {
	TargetLanguage string                   `json:"targetLanguage"`
	Strings        map[string]shortenString `json:"strings"`
}

func buildShortenPayload(lang model.LanguageTarget, items []ShortenItem) (string, error) {
	payload := shortenPayload{
		TargetLanguage: lang.Code,
		Strings:        make(map[string]shortenString, len(items)),
	}
	for _, it := range items {
		payload.Strings[it.ID] = shortenString{Original: it.Source, Current: it.Current, Context: it.Context}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal shorten request: %w", err)
	}
	return string(data), nil
}
