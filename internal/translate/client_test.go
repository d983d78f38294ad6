// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glotframe/glotframe/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeProvider replays a scripted sequence of responses.
type fakeProvider struct {
	responses []fakeResponse
	calls     int
	systems   []string
}

type fakeResponse struct {
	raw string
	err error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(_ context.Context, system, _ string) (string, error) {
	p.systems = append(p.systems, system)
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	r := p.responses[i]
	return r.raw, r.err
}

func newTestClient(p Provider, maxRetries int) (*Client, *[]time.Duration) {
	c := New(Options{Provider: p, MaxRetries: maxRetries, Logger: testLogger()})
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func testUnits() []model.TextUnit {
	return []model.TextUnit{
		{ID: "t0", Characters: "Hello", LayerName: "title"},
		{ID: "t1", Characters: "World", LayerName: "body"},
	}
}

var deLang = model.LanguageTarget{Code: "de", Name: "German", Direction: model.DirectionLTR}

func TestTranslateSuccess(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{{raw: `{"t0":"Hallo","t1":"Welt"}`}}}
	c, slept := newTestClient(p, 2)

	set, err := c.Translate(context.Background(), deLang, testUnits(), model.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, model.TranslationSet{"t0": "Hallo", "t1": "Welt"}, set)
	assert.Equal(t, 1, p.calls)
	assert.Empty(t, *slept)
}

func TestTranslatePartialResponseIsSuccess(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{{raw: `{"t0":"Hallo"}`}}}
	c, _ := newTestClient(p, 2)

	set, err := c.Translate(context.Background(), deLang, testUnits(), model.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, "Hallo", set["t0"])
	_, ok := set["t1"]
	assert.False(t, ok, "missing id must stay untranslated")
}

func TestTranslateUnauthorizedFailsImmediately(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: &StatusError{StatusCode: http.StatusUnauthorized, Message: "bad key"}},
	}}
	c, slept := newTestClient(p, 2)

	_, err := c.Translate(context.Background(), deLang, testUnits(), model.DefaultRules())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API key")
	assert.Equal(t, 1, p.calls, "401 must not retry")
	assert.Empty(t, *slept)
}

func TestTranslateRateLimitBacksOff(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: &StatusError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}},
		{err: &StatusError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}},
		{raw: `{"t0":"Hallo","t1":"Welt"}`},
	}}
	c, slept := newTestClient(p, 2)

	set, err := c.Translate(context.Background(), deLang, testUnits(), model.DefaultRules())
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Equal(t, 3, p.calls)
	// Escalating backoff: 2000ms × (attempt+1).
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestTranslateRateLimitExhausted(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: &StatusError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}},
	}}
	c, slept := newTestClient(p, 1)

	_, err := c.Translate(context.Background(), deLang, testUnits(), model.DefaultRules())
	require.Error(t, err)
	assert.Equal(t, 2, p.calls)
	// No backoff after the final attempt.
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
}

func TestTranslateMalformedRetriesStrictWithoutWait(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{raw: `Sure! Here are your translations: Hallo, Welt`},
		{raw: `{"t0":"Hallo","t1":"Welt"}`},
	}}
	c, slept := newTestClient(p, 2)

	set, err := c.Translate(context.Background(), deLang, testUnits(), model.DefaultRules())
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Empty(t, *slept, "malformed responses retry immediately")

	require.Len(t, p.systems, 2)
	assert.NotContains(t, p.systems[0], "STRICT MODE")
	assert.Contains(t, p.systems[1], "STRICT MODE", "retry must escalate the system prompt")
}

func TestTranslateCodeFencesTolerated(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{raw: "```json\n{\"t0\":\"Hallo\",\"t1\":\"Welt\"}\n```"},
	}}
	c, _ := newTestClient(p, 0)

	set, err := c.Translate(context.Background(), deLang, testUnits(), model.DefaultRules())
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestTranslateCancelledBeforeCall(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{{raw: `{}`}}}
	c, _ := newTestClient(p, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Translate(ctx, deLang, testUnits(), model.DefaultRules())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, p.calls)
}

func TestTranslateOtherErrorsRetryThenFail(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("connection reset")},
	}}
	c, slept := newTestClient(p, 2)

	_, err := c.Translate(context.Background(), deLang, testUnits(), model.DefaultRules())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, p.calls)
	assert.Empty(t, *slept, "transient errors retry without backoff")
}

// mapMemory is a trivial in-process Memory for tests.
type mapMemory struct {
	data   map[string]string
	stores int
}

func (m *mapMemory) key(lang, rulesHash, source string) string {
	return lang + "|" + rulesHash + "|" + source
}

func (m *mapMemory) Lookup(_ context.Context, lang, rulesHash, source string) (string, bool) {
	v, ok := m.data[m.key(lang, rulesHash, source)]
	return v, ok
}

func (m *mapMemory) Store(_ context.Context, lang, rulesHash, source, translated string) {
	m.stores++
	m.data[m.key(lang, rulesHash, source)] = translated
}

func TestTranslateMemoryPrefillAndStore(t *testing.T) {
	mem := &mapMemory{data: map[string]string{}}
	rules := model.DefaultRules()
	mem.data[mem.key("de", hashRules(rules), "Hello")] = "Hallo (cached)"

	p := &fakeProvider{responses: []fakeResponse{{raw: `{"t1":"Welt"}`}}}
	c := New(Options{Provider: p, Memory: mem, Logger: testLogger()})

	set, err := c.Translate(context.Background(), deLang, testUnits(), rules)
	require.NoError(t, err)
	assert.Equal(t, "Hallo (cached)", set["t0"])
	assert.Equal(t, "Welt", set["t1"])
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 1, mem.stores, "only the fresh translation is stored")
}

func TestTranslateAllMemoryHitsSkipsProvider(t *testing.T) {
	mem := &mapMemory{data: map[string]string{}}
	rules := model.DefaultRules()
	mem.data[mem.key("de", hashRules(rules), "Hello")] = "Hallo"
	mem.data[mem.key("de", hashRules(rules), "World")] = "Welt"

	p := &fakeProvider{responses: []fakeResponse{{raw: `{}`}}}
	c := New(Options{Provider: p, Memory: mem, Logger: testLogger()})

	set, err := c.Translate(context.Background(), deLang, testUnits(), rules)
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Equal(t, 0, p.calls)
}

func TestShortenSingleAttempt(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: errors.New("boom")},
		{raw: `{"t0":"kurz"}`},
	}}
	c, _ := newTestClient(p, 2)

	_, err := c.Shorten(context.Background(), deLang, []ShortenItem{
		{ID: "t0", Source: "Hello", Current: "Hallo zusammen"},
	})
	require.Error(t, err, "shorten must not retry")
	assert.Equal(t, 1, p.calls)
}

func TestShortenSuccessAndMergeLaw(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{{raw: `{"t0":"kurz"}`}}}
	c, _ := newTestClient(p, 0)

	rewrites, err := c.Shorten(context.Background(), deLang, []ShortenItem{
		{ID: "t0", Source: "Hello", Current: "Hallo zusammen"},
		{ID: "t1", Source: "World", Current: "Welt"},
	})
	require.NoError(t, err)

	// A partial rewrite merged into the stored set never drops entries.
	stored := model.TranslationSet{"t0": "Hallo zusammen", "t1": "Welt"}
	merged := stored.Merge(rewrites)
	assert.Equal(t, "kurz", merged["t0"])
	assert.Equal(t, "Welt", merged["t1"])
}

func TestShortenEmptyItems(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{{raw: `{}`}}}
	c, _ := newTestClient(p, 0)

	set, err := c.Shorten(context.Background(), deLang, nil)
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.Equal(t, 0, p.calls)
}

func TestParseIDMap(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		ids     []string
		want    model.TranslationSet
		wantErr bool
	}{
		{"plain", `{"t0":"a"}`, []string{"t0"}, model.TranslationSet{"t0": "a"}, false},
		{"extra ids ignored", `{"t0":"a","zz":"b"}`, []string{"t0"}, model.TranslationSet{"t0": "a"}, false},
		{"non-string skipped", `{"t0":5,"t1":"b"}`, []string{"t0", "t1"}, model.TranslationSet{"t1": "b"}, false},
		{"not json", `hello`, []string{"t0"}, nil, true},
		{"array", `["t0"]`, []string{"t0"}, nil, true},
		{"no requested ids", `{"zz":"b"}`, []string{"t0"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDMap(tt.raw, tt.ids)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashRulesDistinguishesRuleSets(t *testing.T) {
	a := model.DefaultRules()
	b := model.DefaultRules()
	b.Tone = "playful"
	assert.NotEqual(t, hashRules(a), hashRules(b))
	assert.Equal(t, hashRules(a), hashRules(model.DefaultRules()))
}

func TestBuildUserPayloadShape(t *testing.T) {
	user, err := buildUserPayload(model.LanguageTarget{Code: "ar", Direction: model.DirectionRTL}, testUnits(), model.DefaultRules())
	require.NoError(t, err)
	assert.Contains(t, user, `"targetLanguage":"ar"`)
	assert.Contains(t, user, `"isRTL":true`)
	assert.Contains(t, user, `"t0"`)
	assert.True(t, strings.Contains(user, `"context":"title"`))
}
