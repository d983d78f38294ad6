// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package run

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/model"
	"github.com/glotframe/glotframe/internal/testutil"
	"github.com/glotframe/glotframe/internal/translate"
)

// scriptProvider answers translation and rewrite-shorter requests from fixed
// strings, telling them apart by the system prompt.
type scriptProvider struct {
	mu          sync.Mutex
	translation string
	shorten     string
	calls       int
	block       chan struct{} // when set, Complete waits for ctx or the channel
}

func (p *scriptProvider) Name() string { return "script" }

func (p *scriptProvider) Complete(ctx context.Context, system, _ string) (string, error) {
	p.mu.Lock()
	p.calls++
	block := p.block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-block:
		}
	}
	if strings.Contains(system, "copy editor") {
		return p.shorten, nil
	}
	return p.translation, nil
}

func (p *scriptProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func testDoc(t *testing.T) (*canvas.Doc, string) {
	t.Helper()
	page := canvas.NewFrame(canvas.FrameOptions{Name: "page", Type: canvas.NodePage, W: 5000, H: 5000})
	card := canvas.NewFrame(canvas.FrameOptions{Name: "card", X: 0, Y: 0, W: 200, H: 100})
	title := canvas.NewText(canvas.TextOptions{Name: "title", Characters: "Hello", FontSize: 10, W: 160, H: 12})
	body := canvas.NewText(canvas.TextOptions{Name: "body", Characters: "World", FontSize: 10, W: 160, H: 12})
	for _, err := range []error{card.AppendChild(title), card.AppendChild(body), page.AppendChild(card)} {
		require.NoError(t, err)
	}
	return canvas.NewDoc(page, nil), card.ID()
}

func newOrchestrator(p translate.Provider, rec Recorder) *Orchestrator {
	translator := translate.New(translate.Options{Provider: p, Logger: testutil.TestLoggerSilent()})
	return NewOrchestrator(Options{
		Translator: translator,
		Recorder:   rec,
		Logger:     testutil.TestLoggerSilent(),
	})
}

func waitDone(t *testing.T, r *Run) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}
}

func runConfig(codes ...string) model.RunConfig {
	cfg := model.RunConfig{
		Rules:  model.DefaultRules(),
		Layout: model.Layout{Mode: model.PlacementRow, Gap: 80},
	}
	for _, code := range codes {
		cfg.Languages = append(cfg.Languages, model.LanguageTarget{Code: code, Name: code})
	}
	return cfg
}

func TestRunCompletes(t *testing.T) {
	doc, rootID := testDoc(t)
	p := &scriptProvider{translation: `{"t0":"Hallo","t1":"Welt"}`}
	o := newOrchestrator(p, nil)

	r, err := o.Start(doc, rootID, runConfig("de", "fr"))
	require.NoError(t, err)
	waitDone(t, r)

	progress := r.Snapshot()
	require.Len(t, progress, 2)
	for _, pr := range progress {
		assert.Equal(t, model.StatusDone, pr.Status, "language %s", pr.Language.Code)
		require.NotNil(t, pr.Report, "language %s", pr.Language.Code)
		assert.Equal(t, "2 units applied", pr.Detail)
	}

	// One translation request per language.
	assert.Equal(t, 2, p.callCount())
	assert.Equal(t, model.SummaryAllGreen, r.Summary().Class)

	// Both clones were written.
	for _, code := range []string{"de", "fr"} {
		rec := r.CloneRecord(code)
		require.NotNil(t, rec)
		assert.Equal(t, "Hallo", rec.Handles["t0"].Characters())
	}
	// The original is untouched.
	orig := doc.NodeByID(rootID)
	assert.Equal(t, "Hello", canvas.CollectText(orig)[0].Characters())
}

func TestRunStartValidation(t *testing.T) {
	doc, rootID := testDoc(t)
	o := newOrchestrator(&scriptProvider{translation: `{}`}, nil)

	_, err := o.Start(nil, rootID, runConfig("de"))
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = o.Start(doc, "bogus", runConfig("de"))
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = o.Start(doc, rootID, runConfig())
	assert.ErrorIs(t, err, ErrNoSelection)

	// A selection with no translatable text never starts.
	empty := canvas.NewFrame(canvas.FrameOptions{Name: "empty", W: 10, H: 10})
	page := doc.Page()
	require.NoError(t, page.AppendChild(empty))
	_, err = o.Start(doc, empty.ID(), runConfig("de"))
	assert.ErrorIs(t, err, ErrNoUnits)
}

func TestRunCancellation(t *testing.T) {
	doc, rootID := testDoc(t)
	p := &scriptProvider{
		translation: `{"t0":"Hallo","t1":"Welt"}`,
		block:       make(chan struct{}),
	}
	o := newOrchestrator(p, nil)

	r, err := o.Start(doc, rootID, runConfig("de", "fr", "ja"))
	require.NoError(t, err)

	// Let the run reach the translation phase, then cancel mid-flight.
	time.Sleep(50 * time.Millisecond)
	r.Cancel()
	close(p.block)
	waitDone(t, r)

	assert.True(t, r.Cancelled())
	for _, pr := range r.Snapshot() {
		assert.Equal(t, model.StatusCancelled, pr.Status, "language %s", pr.Language.Code)
		assert.Nil(t, pr.Report, "late results must be dropped")
	}
}

func TestRunTranslationErrorIsPerLanguage(t *testing.T) {
	doc, rootID := testDoc(t)
	// Unparseable every time: the language errors out after retries.
	p := &scriptProvider{translation: `not json at all`}
	translator := translate.New(translate.Options{
		Provider:   p,
		MaxRetries: 0,
		Logger:     testutil.TestLoggerSilent(),
	})
	o := NewOrchestrator(Options{Translator: translator, Logger: testutil.TestLoggerSilent()})

	r, err := o.Start(doc, rootID, runConfig("de"))
	require.NoError(t, err)
	waitDone(t, r)

	progress := r.Snapshot()
	require.Len(t, progress, 1)
	assert.Equal(t, model.StatusError, progress[0].Status)
	assert.NotEmpty(t, progress[0].Detail)
	assert.Equal(t, model.SummaryHasFailures, r.Summary().Class)
	assert.Equal(t, 1, r.Summary().Errors)
}

func TestRunShorten(t *testing.T) {
	// One fixed-box unit whose translation overflows, then shortens to fit.
	page := canvas.NewFrame(canvas.FrameOptions{Name: "page", Type: canvas.NodePage, W: 5000, H: 5000})
	card := canvas.NewFrame(canvas.FrameOptions{Name: "card", W: 200, H: 100})
	box := canvas.NewText(canvas.TextOptions{
		Name: "box", Characters: "Hi", FontSize: 10,
		W: 60, H: 12, AutoResize: canvas.ResizeNone,
	})
	require.NoError(t, card.AppendChild(box))
	require.NoError(t, page.AppendChild(card))
	doc := canvas.NewDoc(page, nil)

	p := &scriptProvider{
		translation: `{"t0":"aaaa bbbb cccc"}`, // wraps to two lines in a 12px box
		shorten:     `{"t0":"kurz"}`,
	}
	o := newOrchestrator(p, nil)

	r, err := o.Start(doc, card.ID(), runConfig("de"))
	require.NoError(t, err)
	waitDone(t, r)

	progress := r.Snapshot()
	require.NotNil(t, progress[0].Report)
	require.Equal(t, model.SeverityRed, progress[0].Report.Status)
	require.Equal(t, []string{"t0"}, progress[0].Report.IssueEntryIDs)

	require.NoError(t, r.Shorten(context.Background(), "de"))

	progress = r.Snapshot()
	assert.Equal(t, model.StatusDone, progress[0].Status)
	assert.Equal(t, model.SeverityGreen, progress[0].Report.Status)
	assert.Equal(t, "kurz", r.CloneRecord("de").Handles["t0"].Characters())
}

func TestRunShortenGuards(t *testing.T) {
	doc, rootID := testDoc(t)
	p := &scriptProvider{translation: `{"t0":"Hallo","t1":"Welt"}`}
	o := newOrchestrator(p, nil)

	r, err := o.Start(doc, rootID, runConfig("de"))
	require.NoError(t, err)
	waitDone(t, r)

	// Unknown language.
	assert.Error(t, r.Shorten(context.Background(), "ja"))
	// Done but nothing flagged.
	assert.Error(t, r.Shorten(context.Background(), "de"))
}

// captureRecorder records lifecycle calls.
type captureRecorder struct {
	mu       sync.Mutex
	started  []string
	finished []string
	summary  model.RunSummary
}

func (c *captureRecorder) RunStarted(_ context.Context, id string, _ model.RunConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = append(c.started, id)
}

func (c *captureRecorder) RunFinished(_ context.Context, id string, summary model.RunSummary, _ []model.LangProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = append(c.finished, id)
	c.summary = summary
}

func TestRunRecorderLifecycle(t *testing.T) {
	doc, rootID := testDoc(t)
	rec := &captureRecorder{}
	o := newOrchestrator(&scriptProvider{translation: `{"t0":"a","t1":"b"}`}, rec)

	r, err := o.Start(doc, rootID, runConfig("de"))
	require.NoError(t, err)
	waitDone(t, r)

	// RunFinished fires after Done closes; give the goroutine a beat.
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.finished) == 1
	}, 5*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{r.ID}, rec.started)
	assert.Equal(t, []string{r.ID}, rec.finished)
	assert.Equal(t, model.SummaryAllGreen, rec.summary.Class)
}

func TestOrchestratorGetAndPrune(t *testing.T) {
	doc, rootID := testDoc(t)
	o := newOrchestrator(&scriptProvider{translation: `{"t0":"a","t1":"b"}`}, nil)

	r, err := o.Start(doc, rootID, runConfig("de"))
	require.NoError(t, err)

	got, err := o.Get(r.ID)
	require.NoError(t, err)
	assert.Same(t, r, got)

	_, err = o.Get("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	waitDone(t, r)
	assert.Equal(t, 1, o.Prune(time.Now().Add(time.Second)))
	_, err = o.Get(r.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunClonePlacement(t *testing.T) {
	doc, rootID := testDoc(t)
	o := newOrchestrator(&scriptProvider{translation: `{"t0":"a","t1":"b"}`}, nil)

	r, err := o.Start(doc, rootID, runConfig("de", "fr"))
	require.NoError(t, err)
	waitDone(t, r)

	// Row placement: clone i sits at x + (i+1) × (200 + 80).
	de, fr := r.CloneRecord("de"), r.CloneRecord("fr")
	require.NotNil(t, de)
	require.NotNil(t, fr)
	dx, _ := de.Root.Position()
	fx, _ := fr.Root.Position()
	assert.Equal(t, 280.0, dx)
	assert.Equal(t, 560.0, fx)
}
