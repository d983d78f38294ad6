// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/glotframe/glotframe/internal/model"
)

// RunRecorder persists run lifecycle milestones from the orchestrator.
// Persistence is best-effort: a failing database never fails a run.
type RunRecorder struct {
	queries *Queries
	log     *slog.Logger
}

// NewRunRecorder creates a recorder over the store.
func NewRunRecorder(q *Queries, log *slog.Logger) *RunRecorder {
	if log == nil {
		log = slog.Default()
	}
	return &RunRecorder{queries: q, log: log}
}

// RunStarted records a new run.
func (r *RunRecorder) RunStarted(ctx context.Context, id string, cfg model.RunConfig) {
	if err := r.queries.CreateRun(ctx, id, cfg, time.Now()); err != nil {
		r.log.Warn("run history insert failed", "run", id, "error", err)
	}
}

// RunFinished records the terminal state and per-language outcomes.
func (r *RunRecorder) RunFinished(ctx context.Context, id string, summary model.RunSummary, progress []model.LangProgress) {
	status := RunStatusComplete
	for _, p := range progress {
		if p.Status == model.StatusCancelled {
			status = RunStatusCancelled
			break
		}
	}
	if err := r.queries.FinishRun(ctx, id, status, summary.Class, progress, time.Now()); err != nil {
		r.log.Warn("run history update failed", "run", id, "error", err)
	}
}
