// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/glotframe/glotframe/internal/model"
	"github.com/glotframe/glotframe/internal/store"
)

// settingsKey is the settings-table row holding the saved run defaults.
const settingsKey = "run_defaults"

// storedSettings are the run defaults the plugin persists between sessions.
type storedSettings struct {
	Languages    []string            `json:"languages,omitempty"`
	Rules        *model.Rules        `json:"rules,omitempty"`
	Layout       *model.Layout       `json:"layout,omitempty"`
	FontFallback *model.FontFallback `json:"fontFallback,omitempty"`
	ApplyRTL     bool                `json:"applyRtl"`
}

// GetSettings handles GET /api/v1/settings. Absent settings return the
// built-in defaults so the client never special-cases first launch.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.queries.GetSetting(r.Context(), settingsKey)
	if err != nil {
		h.log.Error("get settings failed", "error", err)
		WriteInternalError(w, "failed to load settings")
		return
	}
	if raw == "" {
		rules := model.DefaultRules()
		layout := model.DefaultLayout()
		WriteSuccess(w, storedSettings{Rules: &rules, Layout: &layout})
		return
	}

	var s storedSettings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		h.log.Warn("stored settings unreadable, serving defaults", "error", err)
		rules := model.DefaultRules()
		layout := model.DefaultLayout()
		WriteSuccess(w, storedSettings{Rules: &rules, Layout: &layout})
		return
	}
	WriteSuccess(w, s)
}

// PutSettings handles PUT /api/v1/settings.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s storedSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		WriteBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		WriteInternalError(w, "failed to encode settings")
		return
	}
	if err := h.queries.SetSetting(r.Context(), settingsKey, string(raw)); err != nil {
		h.log.Error("save settings failed", "error", err)
		WriteInternalError(w, "failed to save settings")
		return
	}
	WriteSuccess(w, s)
}

// Events handles GET /api/v1/events: the persisted warning/error log.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.queries.ListEvents(r.Context(), limit)
	if err != nil {
		h.log.Error("list events failed", "error", err)
		WriteInternalError(w, "failed to list events")
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	WriteSuccess(w, events)
}
