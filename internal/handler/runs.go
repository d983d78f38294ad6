// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/langmeta"
	"github.com/glotframe/glotframe/internal/model"
	"github.com/glotframe/glotframe/internal/run"
	"github.com/glotframe/glotframe/internal/scan"
	"github.com/glotframe/glotframe/internal/store"
	"github.com/glotframe/glotframe/internal/translate"
)

// scanRequest carries a document snapshot plus the id of the frame to scan.
type scanRequest struct {
	Document canvas.DocumentJSON `json:"document"`
	RootID   string              `json:"rootId"`
}

// Scan handles POST /api/v1/scan: a dry run that reports what a generation
// over the selection would translate, without touching the canvas.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	doc, err := canvas.BuildDocument(req.Document)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	root := doc.NodeByID(req.RootID)
	if root == nil {
		WriteBadRequest(w, "selection not found in document")
		return
	}
	WriteSuccess(w, scan.Scan(root))
}

// startRunRequest is the full generation request: the document snapshot, the
// selection, the target languages and the optional per-run settings.
type startRunRequest struct {
	Document     canvas.DocumentJSON `json:"document"`
	RootID       string              `json:"rootId"`
	Languages    []string            `json:"languages"`
	Rules        *model.Rules        `json:"rules,omitempty"`
	Layout       *model.Layout       `json:"layout,omitempty"`
	FontFallback *model.FontFallback `json:"fontFallback,omitempty"`
	ApplyRTL     bool                `json:"applyRtl"`
}

type startRunResponse struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"createdAt"`
	Scan      *model.ScanResult `json:"scan"`
}

// StartRun handles POST /api/v1/runs.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	languages, err := langmeta.ResolveAll(req.Languages)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	cfg := model.RunConfig{
		Languages: languages,
		Rules:     model.DefaultRules(),
		Layout:    model.DefaultLayout(),
		ApplyRTL:  req.ApplyRTL,
	}
	if req.Rules != nil {
		cfg.Rules = *req.Rules
	}
	if req.Layout != nil {
		cfg.Layout = *req.Layout
	}
	if req.FontFallback != nil {
		cfg.FontFallback = *req.FontFallback
	}

	doc, err := canvas.BuildDocument(req.Document)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	rn, err := h.orchestrator.Start(doc, req.RootID, cfg)
	if err != nil {
		if errors.Is(err, run.ErrNoSelection) || errors.Is(err, run.ErrNoUnits) {
			WriteBadRequest(w, err.Error())
			return
		}
		h.log.Error("run start failed", "error", err)
		WriteInternalError(w, "failed to start run")
		return
	}

	h.log.Info("run started", "run", rn.ID, "languages", len(languages), "units", len(rn.Scan.Units))
	WriteCreated(w, startRunResponse{ID: rn.ID, CreatedAt: rn.CreatedAt, Scan: rn.Scan})
}

type runProgressResponse struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"createdAt"`
	Finished  bool                 `json:"finished"`
	Cancelled bool                 `json:"cancelled"`
	Languages []model.LangProgress `json:"languages"`
	Summary   *model.RunSummary    `json:"summary,omitempty"`
}

// RunProgress handles GET /api/v1/runs/{id}.
func (h *Handler) RunProgress(w http.ResponseWriter, r *http.Request) {
	rn, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	resp := runProgressResponse{
		ID:        rn.ID,
		CreatedAt: rn.CreatedAt,
		Finished:  rn.Finished(),
		Cancelled: rn.Cancelled(),
		Languages: rn.Snapshot(),
	}
	if resp.Finished && !resp.Cancelled {
		summary := rn.Summary()
		resp.Summary = &summary
	}
	WriteSuccess(w, resp)
}

// RunDocument handles GET /api/v1/runs/{id}/document: the canvas snapshot
// with the generated clones, for the plugin to apply back to the host file.
func (h *Handler) RunDocument(w http.ResponseWriter, r *http.Request) {
	rn, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	if !rn.Finished() {
		WriteConflict(w, "run still in progress")
		return
	}
	WriteSuccess(w, canvas.EncodeNode(rn.Document().Root()))
}

// CancelRun handles POST /api/v1/runs/{id}/cancel.
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	rn, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	rn.Cancel()
	WriteSuccess(w, map[string]string{"id": rn.ID, "status": "cancelling"})
}

// Shorten handles POST /api/v1/runs/{id}/languages/{code}/shorten: a single
// rewrite-shorter pass over the language's QA-flagged units.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	rn, ok := h.lookupRun(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	if err := rn.Shorten(r.Context(), code); err != nil {
		if translate.StatusOf(err) != 0 {
			WriteError(w, http.StatusBadGateway, "provider_error", err.Error())
			return
		}
		WriteConflict(w, err.Error())
		return
	}

	for _, p := range rn.Snapshot() {
		if p.Language.Code == code {
			WriteSuccess(w, p)
			return
		}
	}
	WriteSuccess(w, map[string]string{"language": code})
}

// RunHistory handles GET /api/v1/runs/history.
func (h *Handler) RunHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.queries.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.Error("list runs failed", "error", err)
		WriteInternalError(w, "failed to list runs")
		return
	}
	if records == nil {
		records = []store.RunRecord{}
	}
	WriteSuccess(w, records)
}

type runHistoryResponse struct {
	Run     *store.RunRecord         `json:"run"`
	Reports []store.LangReportRecord `json:"reports"`
}

// RunHistoryByID handles GET /api/v1/runs/history/{id}.
func (h *Handler) RunHistoryByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, reports, err := h.queries.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "run not found")
			return
		}
		h.log.Error("get run failed", "run", id, "error", err)
		WriteInternalError(w, "failed to load run")
		return
	}
	WriteSuccess(w, runHistoryResponse{Run: rec, Reports: reports})
}

// lookupRun resolves the {id} URL parameter to a live run, writing the error
// response itself when the run is unknown.
func (h *Handler) lookupRun(w http.ResponseWriter, r *http.Request) (*run.Run, bool) {
	id := chi.URLParam(r, "id")
	rn, err := h.orchestrator.Get(id)
	if err != nil {
		WriteNotFound(w, "run not found")
		return nil, false
	}
	return rn, true
}
