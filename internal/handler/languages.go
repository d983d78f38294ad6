// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/glotframe/glotframe/internal/langmeta"
)

// Languages handles GET /api/v1/languages: the curated target-language list.
// A ?codes=de,ar query resolves arbitrary codes instead.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	if codes := r.URL.Query()["codes"]; len(codes) > 0 {
		targets, err := langmeta.ResolveAll(splitCodes(codes))
		if err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
		WriteSuccess(w, targets)
		return
	}
	WriteSuccess(w, langmeta.Common())
}

// splitCodes flattens repeated and comma-separated codes query values.
func splitCodes(values []string) []string {
	var out []string
	for _, v := range values {
		for _, code := range strings.Split(v, ",") {
			if code = strings.TrimSpace(code); code != "" {
				out = append(out, code)
			}
		}
	}
	return out
}
