// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/glotframe/glotframe/internal/run"
	"github.com/glotframe/glotframe/internal/store"
	"github.com/glotframe/glotframe/internal/version"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	orchestrator *run.Orchestrator
	queries      *store.Queries
	version      *version.Info
	log          *slog.Logger
}

// New creates the API handler.
func New(orch *run.Orchestrator, queries *store.Queries, ver *version.Info, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{orchestrator: orch, queries: queries, version: ver, log: log}
}

// Routes mounts all API routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scan", h.Scan)
		r.Get("/languages", h.Languages)

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.StartRun)
			r.Get("/history", h.RunHistory)
			r.Get("/history/{id}", h.RunHistoryByID)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.RunProgress)
				r.Get("/document", h.RunDocument)
				r.Post("/cancel", h.CancelRun)
				r.Post("/languages/{code}/shorten", h.Shorten)
			})
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.PutSettings)
		r.Get("/events", h.Events)
	})
}
