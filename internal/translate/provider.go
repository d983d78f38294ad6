// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translate sends batched text units to an LLM completion endpoint
// and parses the id-keyed JSON object it returns. It owns the retry policy
// (fatal 401, backed-off 429, immediate retry on malformed JSON) and the
// single-shot rewrite-shorter request.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const httpTimeout = 120 * time.Second

// Provider performs one completion call. Implementations surface HTTP status
// codes through StatusError so the client can apply the retry policy.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// StatusError is a completion failure with a known HTTP status code.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// StatusOf extracts the HTTP status from err, or 0 when unknown.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// CompatProvider talks to any OpenAI-compatible chat completion endpoint
// (custom gateways, Groq-style services, local runtimes). A client-side rate
// limiter keeps request bursts polite; the orchestrator's concurrency gate
// is still the primary admission control.
type CompatProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// CompatOptions configure a CompatProvider.
type CompatOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	// RequestsPerMinute caps the client-side request rate; 0 disables it.
	RequestsPerMinute int
}

// NewCompatProvider creates a provider for an OpenAI-compatible endpoint.
func NewCompatProvider(opts CompatOptions) *CompatProvider {
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), 1)
	}
	return &CompatProvider{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		model:   opts.Model,
		client:  &http.Client{Timeout: httpTimeout},
		limiter: limiter,
	}
}

func (p *CompatProvider) Name() string { return "compat" }

// Complete implements Provider.
func (p *CompatProvider) Complete(ctx context.Context, system, user string) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	body := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.2,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Message: truncate(string(respBody), 512)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
