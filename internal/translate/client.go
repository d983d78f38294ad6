// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/glotframe/glotframe/internal/model"
)

// ErrCancelled is returned when the run was cancelled before or during a
// translation request. Cancellation is not an error state for the language.
var ErrCancelled = errors.New("cancelled")

// DefaultMaxRetries is the number of additional attempts after the first.
const DefaultMaxRetries = 2

// rateLimitBackoff computes the wait before retrying a 429'd attempt.
func rateLimitBackoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * 2 * time.Second
}

// Memory is an optional translation-memory lookaside. Identical
// (language, rules, source text) triples skip the LLM round-trip entirely.
// Both operations are best-effort: a failing backend must never fail a run.
type Memory interface {
	Lookup(ctx context.Context, lang, rulesHash, source string) (string, bool)
	Store(ctx context.Context, lang, rulesHash, source, translated string)
}

// Client drives translation and rewrite-shorter requests for a run.
type Client struct {
	provider   Provider
	maxRetries int
	memory     Memory
	log        *slog.Logger

	// sleep is swappable in tests to keep backoff assertions fast.
	sleep func(ctx context.Context, d time.Duration) error
}

// Options configure a Client.
type Options struct {
	Provider   Provider
	MaxRetries int // defaults to DefaultMaxRetries when negative
	Memory     Memory
	Logger     *slog.Logger
}

// New creates a translation client.
func New(opts Options) *Client {
	retries := opts.MaxRetries
	if retries < 0 {
		retries = DefaultMaxRetries
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		provider:   opts.Provider,
		maxRetries: retries,
		memory:     opts.Memory,
		log:        log,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Translate requests translations for all units in one batched call,
// retrying per policy: 401 fails immediately, 429 waits 2000ms×(attempt+1),
// malformed JSON retries immediately with a stricter system prompt. A
// partially populated set is a success; missing ids stay untranslated.
func (c *Client) Translate(ctx context.Context, lang model.LanguageTarget, units []model.TextUnit, rules model.Rules) (model.TranslationSet, error) {
	result := model.TranslationSet{}
	rulesHash := hashRules(rules)

	pending := units
	if c.memory != nil {
		pending = pending[:0:0]
		for _, u := range units {
			if text, ok := c.memory.Lookup(ctx, lang.Code, rulesHash, u.Characters); ok {
				result[u.ID] = text
				continue
			}
			pending = append(pending, u)
		}
		if hits := len(units) - len(pending); hits > 0 {
			c.log.Debug("translation memory hits", "language", lang.Code, "hits", hits)
		}
		if len(pending) == 0 {
			return result, nil
		}
	}

	user, err := buildUserPayload(lang, pending, rules)
	if err != nil {
		return nil, err
	}

	system := systemPrompt
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Cancellation is checked at the top of every retry iteration.
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		raw, err := c.provider.Complete(ctx, system, user)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrCancelled
			}
			switch StatusOf(err) {
			case http.StatusUnauthorized:
				// Fatal for the whole language, no retry.
				return nil, fmt.Errorf("invalid API key: %w", err)
			case http.StatusTooManyRequests:
				lastErr = err
				if attempt < c.maxRetries {
					c.log.Warn("rate limited, backing off",
						"language", lang.Code, "attempt", attempt, "wait", rateLimitBackoff(attempt))
					if serr := c.sleep(ctx, rateLimitBackoff(attempt)); serr != nil {
						return nil, ErrCancelled
					}
				}
				continue
			default:
				lastErr = err
				continue
			}
		}

		set, perr := parseResponse(raw, pending)
		if perr != nil {
			c.log.Warn("unparseable translation response, retrying strict",
				"language", lang.Code, "attempt", attempt, "error", perr)
			lastErr = perr
			system = systemPrompt + "\n\n" + strictSuffix
			continue
		}

		if c.memory != nil {
			for _, u := range pending {
				if text, ok := set[u.ID]; ok {
					c.memory.Store(ctx, lang.Code, rulesHash, u.Characters, text)
				}
			}
		}
		return result.Merge(set), nil
	}

	return nil, fmt.Errorf("translation failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// ShortenItem is one QA-flagged unit submitted for rewriting.
type ShortenItem struct {
	ID      string
	Source  string // original untranslated text
	Current string // currently applied translation
	Context string
}

// Shorten requests strictly shorter rewrites for the flagged units. Single
// attempt by design: a failed shorten surfaces immediately instead of
// retrying. Missing ids in the response leave their existing translation
// unchanged when the caller merges the result.
func (c *Client) Shorten(ctx context.Context, lang model.LanguageTarget, items []ShortenItem) (model.TranslationSet, error) {
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}
	if len(items) == 0 {
		return model.TranslationSet{}, nil
	}

	user, err := buildShortenPayload(lang, items)
	if err != nil {
		return nil, err
	}

	raw, err := c.provider.Complete(ctx, shortenSystemPrompt, user)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("shorten request: %w", err)
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	set, err := parseIDMap(raw, ids)
	if err != nil {
		return nil, fmt.Errorf("shorten response: %w", err)
	}
	return set, nil
}

// parseResponse validates a translation response: it must parse as a JSON
// object and map at least one requested id to a string.
func parseResponse(raw string, units []model.TextUnit) (model.TranslationSet, error) {
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return parseIDMap(raw, ids)
}

func parseIDMap(raw string, ids []string) (model.TranslationSet, error) {
	cleaned := stripFences(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	set := model.TranslationSet{}
	for _, id := range ids {
		rawVal, ok := obj[id]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(rawVal, &s); err != nil {
			// Non-string value for this id; leave it untranslated.
			continue
		}
		set[id] = s
	}
	if len(set) == 0 {
		return nil, errors.New("no valid ids in response")
	}
	return set, nil
}

// stripFences removes a single markdown code fence wrapper if present.
// Models add them despite instructions often enough to be worth tolerating.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// hashRules fingerprints the rule set for translation-memory keys: the same
// source text under different rules must not share cache entries.
func hashRules(rules model.Rules) string {
	data, err := json.Marshal(rules)
	if err != nil {
		return "norules"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
