// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package run drives one generation run across N languages through the
// duplicate → translate → apply → QA state machine. The orchestrator is the
// single owner of run state: workers report results back to it and it issues
// the next phase, which keeps the strict per-language ordering without
// locking discipline on the canvas itself.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/glotframe/glotframe/internal/apply"
	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/layoutqa"
	"github.com/glotframe/glotframe/internal/model"
	"github.com/glotframe/glotframe/internal/placement"
	"github.com/glotframe/glotframe/internal/scan"
	"github.com/glotframe/glotframe/internal/translate"
)

// Fatal-to-run conditions: the run never starts.
var (
	ErrNoSelection = errors.New("no valid selection")
	ErrNoUnits     = errors.New("selection contains no translatable text")
)

// ErrRunNotFound is returned for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

// DefaultConcurrency bounds simultaneously in-flight translation requests.
// LLM APIs rate-limit aggressively; duplication is cheap next to network
// latency, so two in-flight requests keep the pipe full without tripping
// limits.
const DefaultConcurrency = 2

// Recorder persists run lifecycle milestones. Optional; a nil recorder
// disables persistence.
type Recorder interface {
	RunStarted(ctx context.Context, id string, cfg model.RunConfig)
	RunFinished(ctx context.Context, id string, summary model.RunSummary, progress []model.LangProgress)
}

// Orchestrator starts, tracks and cancels runs.
type Orchestrator struct {
	translator  *translate.Client
	recorder    Recorder
	log         *slog.Logger
	concurrency int

	mu   sync.Mutex
	runs map[string]*Run
}

// Options configure an Orchestrator.
type Options struct {
	Translator  *translate.Client
	Recorder    Recorder
	Logger      *slog.Logger
	Concurrency int
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	conc := opts.Concurrency
	if conc <= 0 {
		conc = DefaultConcurrency
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		translator:  opts.Translator,
		recorder:    opts.Recorder,
		log:         log,
		concurrency: conc,
		runs:        make(map[string]*Run),
	}
}

// Run is the explicit per-run state object: settings, baseline, clone and
// translation maps, and the cancellation flag, instantiated at generation
// start and discarded at completion.
type Run struct {
	ID        string
	Config    model.RunConfig
	Scan      *model.ScanResult
	CreatedAt time.Time

	doc        canvas.Document
	original   canvas.Node
	placer     *placement.Engine
	applier    *apply.Applier
	qa         *layoutqa.Engine
	translator *translate.Client
	log        *slog.Logger

	cancelFn  context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}

	// shortenMu serializes rewrite-shorter requests so two of them can
	// never interleave on the same text handles.
	shortenMu sync.Mutex

	mu       sync.Mutex
	order    []string // language codes in selection order
	progress map[string]*model.LangProgress
	clones   map[string]*model.CloneRecord
	sets     map[string]model.TranslationSet
	summary  *model.RunSummary
}

// Start scans the selection, validates it and launches the run.
func (o *Orchestrator) Start(doc canvas.Document, rootID string, cfg model.RunConfig) (*Run, error) {
	if doc == nil || rootID == "" {
		return nil, ErrNoSelection
	}
	original := doc.NodeByID(rootID)
	if original == nil {
		return nil, ErrNoSelection
	}
	if len(cfg.Languages) == 0 {
		return nil, fmt.Errorf("%w: no target languages", ErrNoSelection)
	}

	scanRes := scan.Scan(original)
	if len(scanRes.Units) == 0 {
		return nil, ErrNoUnits
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &Run{
		ID:         uuid.NewString(),
		Config:     cfg,
		Scan:       scanRes,
		CreatedAt:  time.Now(),
		doc:        doc,
		original:   original,
		placer:     placement.New(doc, o.log),
		applier:    apply.New(doc.Fonts(), o.log),
		qa:         layoutqa.New(),
		translator: o.translator,
		log:        o.log,
		cancelFn:   cancel,
		done:       make(chan struct{}),
		progress:   make(map[string]*model.LangProgress, len(cfg.Languages)),
		clones:     make(map[string]*model.CloneRecord, len(cfg.Languages)),
		sets:       make(map[string]model.TranslationSet, len(cfg.Languages)),
	}
	for _, lang := range cfg.Languages {
		r.order = append(r.order, lang.Code)
		r.progress[lang.Code] = &model.LangProgress{Language: lang, Status: model.StatusPending}
	}

	o.mu.Lock()
	o.runs[r.ID] = r
	o.mu.Unlock()

	if o.recorder != nil {
		o.recorder.RunStarted(context.Background(), r.ID, cfg)
	}

	go func() {
		r.execute(runCtx, o.concurrency)
		if o.recorder != nil {
			o.recorder.RunFinished(context.Background(), r.ID, r.Summary(), r.Snapshot())
		}
	}()
	return r, nil
}

// Get returns a tracked run.
func (o *Orchestrator) Get(id string) (*Run, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if r, ok := o.runs[id]; ok {
		return r, nil
	}
	return nil, ErrRunNotFound
}

// Prune forgets finished runs older than cutoff and returns how many were
// dropped. The cloned nodes persist on the canvas; only run state is freed.
func (o *Orchestrator) Prune(cutoff time.Time) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for id, r := range o.runs {
		if r.Finished() && r.CreatedAt.Before(cutoff) {
			delete(o.runs, id)
			n++
		}
	}
	return n
}

// execute runs the full pipeline: duplicate everything first, then fan out
// translations under the concurrency cap, applying and QA-ing each language
// as its translation resolves.
func (r *Run) execute(ctx context.Context, concurrency int) {
	defer close(r.done)
	defer r.cancelFn()

	// Phase 1: duplicate+place for every language before any translation
	// request is issued, maximizing the time translations overlap with it.
	queued := make([]model.LanguageTarget, 0, len(r.Config.Languages))
	for i, lang := range r.Config.Languages {
		if r.cancelled.Load() {
			r.markCancelled(lang.Code)
			continue
		}
		r.setStatus(lang.Code, model.StatusDuplicating, "")

		rec, err := r.placer.Duplicate(r.original, i, lang, r.Config.Layout, r.Scan.Units)
		if err != nil {
			r.log.Error("duplication failed", "run", r.ID, "language", lang.Code, "error", err)
			r.setStatus(lang.Code, model.StatusError, fmt.Sprintf("duplication failed: %v", err))
			continue
		}
		r.mu.Lock()
		r.clones[lang.Code] = rec
		r.mu.Unlock()
		r.setStatus(lang.Code, model.StatusTranslating, "")
		queued = append(queued, lang)
	}

	// Phase 2: translation requests under the concurrency cap, FIFO. Each
	// worker finishes its language (apply + QA) as soon as the translation
	// resolves; languages complete independently.
	jobs := make(chan model.LanguageTarget)
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lang := range jobs {
				r.translateAndFinish(ctx, lang)
			}
		}()
	}
	for _, lang := range queued {
		if r.cancelled.Load() {
			r.markCancelled(lang.Code)
			continue
		}
		jobs <- lang
	}
	close(jobs)
	wg.Wait()

	// All languages terminal: aggregate once.
	summary := model.Summarize(r.Snapshot())
	r.mu.Lock()
	r.summary = &summary
	r.mu.Unlock()
	r.log.Info("run complete", "run", r.ID, "class", summary.Class, "errors", summary.Errors)
}

// translateAndFinish runs one language from translation through QA.
func (r *Run) translateAndFinish(ctx context.Context, lang model.LanguageTarget) {
	if r.cancelled.Load() {
		r.markCancelled(lang.Code)
		return
	}

	set, err := r.translator.Translate(ctx, lang, r.Scan.Units, r.Config.Rules)

	// A result resolving after cancellation is dropped, not applied.
	if r.cancelled.Load() {
		r.markCancelled(lang.Code)
		return
	}
	if err != nil {
		if errors.Is(err, translate.ErrCancelled) {
			r.markCancelled(lang.Code)
			return
		}
		r.log.Error("translation failed", "run", r.ID, "language", lang.Code, "error", err)
		r.setStatus(lang.Code, model.StatusError, err.Error())
		return
	}

	r.mu.Lock()
	r.sets[lang.Code] = set
	rec := r.clones[lang.Code]
	r.mu.Unlock()

	r.applyAndQA(ctx, lang, rec, set)
}

// applyAndQA performs the apply and QA phases and marks the language done.
// Shared by the main run and the rewrite-shorter path.
func (r *Run) applyAndQA(ctx context.Context, lang model.LanguageTarget, rec *model.CloneRecord, set model.TranslationSet) {
	r.setStatus(lang.Code, model.StatusApplying, "")
	res := r.applier.Apply(ctx, rec, set, lang, r.Config)

	r.setStatus(lang.Code, model.StatusQA, "")
	report := r.qa.Evaluate(rec, r.Scan.Units, lang, res.FontErrors)

	r.mu.Lock()
	if p := r.progress[lang.Code]; p != nil {
		p.Report = &report
	}
	r.mu.Unlock()
	r.setStatus(lang.Code, model.StatusDone, fmt.Sprintf("%d units applied", res.Applied))
}

// Shorten re-translates only the QA-flagged units of a finished language,
// merges the rewrites over the stored set and re-runs apply + QA. Single
// attempt; a failure surfaces to the caller and the language stays done.
func (r *Run) Shorten(ctx context.Context, langCode string) error {
	r.shortenMu.Lock()
	defer r.shortenMu.Unlock()

	r.mu.Lock()
	p, ok := r.progress[langCode]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("language %q not in run", langCode)
	}
	if p.Status != model.StatusDone {
		r.mu.Unlock()
		return fmt.Errorf("language %q is %s, not done", langCode, p.Status)
	}
	if p.Report == nil || len(p.Report.IssueEntryIDs) == 0 {
		r.mu.Unlock()
		return fmt.Errorf("language %q has no flagged units", langCode)
	}
	lang := p.Language
	flagged := append([]string(nil), p.Report.IssueEntryIDs...)
	stored := r.sets[langCode]
	rec := r.clones[langCode]
	r.mu.Unlock()

	items := make([]translate.ShortenItem, 0, len(flagged))
	for _, id := range flagged {
		unit := r.Scan.UnitByID(id)
		current, ok := stored[id]
		if unit == nil || !ok {
			// Units that never got a translation have nothing to shorten.
			continue
		}
		items = append(items, translate.ShortenItem{
			ID:      id,
			Source:  unit.Characters,
			Current: current,
			Context: unit.LayerName,
		})
	}
	if len(items) == 0 {
		return fmt.Errorf("language %q has no rewritable units", langCode)
	}

	rewrites, err := r.translator.Shorten(ctx, lang, items)
	if err != nil {
		return fmt.Errorf("shorten %s: %w", langCode, err)
	}

	r.mu.Lock()
	merged := r.sets[langCode].Merge(rewrites)
	r.sets[langCode] = merged
	r.mu.Unlock()

	r.applyAndQA(ctx, lang, rec, merged)
	return nil
}

// Cancel raises the cooperative cancellation flag and aborts in-flight
// network calls. Work already past its last checkpoint completes.
func (r *Run) Cancel() {
	if r.cancelled.CompareAndSwap(false, true) {
		r.cancelFn()
		r.log.Info("run cancelled", "run", r.ID)
	}
}

// Cancelled reports whether the run was cancelled.
func (r *Run) Cancelled() bool { return r.cancelled.Load() }

// Done is closed when every language has reached a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Finished reports whether the run has completed (or been fully cancelled).
func (r *Run) Finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Snapshot returns the per-language progress in selection order.
func (r *Run) Snapshot() []model.LangProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.LangProgress, 0, len(r.order))
	for _, code := range r.order {
		p := r.progress[code]
		cp := *p
		if p.Report != nil {
			rep := *p.Report
			cp.Report = &rep
		}
		out = append(out, cp)
	}
	return out
}

// Summary returns the aggregate report, or a zero summary while running.
func (r *Run) Summary() model.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary != nil {
		return *r.summary
	}
	return model.RunSummary{}
}

// Document returns the canvas the run operates on.
func (r *Run) Document() canvas.Document { return r.doc }

// CloneRecord exposes a language's clone record (nil when not duplicated).
func (r *Run) CloneRecord(langCode string) *model.CloneRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clones[langCode]
}

// setStatus applies a state transition, logging illegal ones instead of
// applying them. The state machine, not a lock, is what keeps two logical
// operations from touching the same text handle.
func (r *Run) setStatus(langCode string, next model.LangStatus, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.progress[langCode]
	if !ok {
		return
	}
	if !p.Status.CanTransition(next) {
		r.log.Warn("illegal state transition dropped",
			"run", r.ID, "language", langCode, "from", p.Status, "to", next)
		return
	}
	p.Status = next
	p.Detail = detail
}

func (r *Run) markCancelled(langCode string) {
	r.setStatus(langCode, model.StatusCancelled, "")
}
