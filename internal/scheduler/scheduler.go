// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance: forgetting finished in-memory
// run state and pruning aged run history from the store.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/glotframe/glotframe/internal/run"
	"github.com/glotframe/glotframe/internal/store"
)

// memoryRetention is how long finished run state is kept in memory for the
// control surface to poll before it is forgotten.
const memoryRetention = time.Hour

// Scheduler owns the cron jobs.
type Scheduler struct {
	queries       *store.Queries
	orchestrator  *run.Orchestrator
	historyMaxAge time.Duration
	cron          *cron.Cron
	log           *slog.Logger
}

// New creates a scheduler. historyMaxAge bounds persisted run history.
func New(queries *store.Queries, orch *run.Orchestrator, historyMaxAge time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		queries:       queries,
		orchestrator:  orch,
		historyMaxAge: historyMaxAge,
		cron:          cron.New(),
		log:           log,
	}
}

// Start registers the maintenance jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// Forget finished in-memory runs every 10 minutes.
	if _, err := s.cron.AddFunc("*/10 * * * *", s.pruneMemory); err != nil {
		return err
	}
	// Prune persisted history daily.
	if _, err := s.cron.AddFunc("30 3 * * *", s.pruneHistory); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) pruneMemory() {
	if n := s.orchestrator.Prune(time.Now().Add(-memoryRetention)); n > 0 {
		s.log.Info("pruned finished runs from memory", "count", n)
	}
}

func (s *Scheduler) pruneHistory() {
	if s.historyMaxAge <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.historyMaxAge)
	n, err := s.queries.DeleteRunsBefore(context.Background(), cutoff)
	if err != nil {
		s.log.Error("run history prune failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("pruned run history", "count", n, "cutoff", cutoff)
	}
}
