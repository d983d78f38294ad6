// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import "net/http"

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]string{"status": "ok"}
	if h.version != nil {
		resp["version"] = h.version.Version
		resp["commit"] = h.version.GitCommit
	}
	WriteJSON(w, http.StatusOK, resp)
}
