// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider backs Provider with the official OpenAI SDK. SDK-internal
// retries are disabled: the translation client owns the retry policy so that
// 401/429 handling stays in one place.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// OpenAIOptions configure an OpenAIProvider.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string // optional override
}

// NewOpenAIProvider creates an SDK-backed provider.
func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Complete implements Provider. SDK errors carrying an HTTP status are
// re-wrapped as StatusError for the retry policy.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", &StatusError{StatusCode: apierr.StatusCode, Message: apierr.Message}
		}
		return "", fmt.Errorf("openai call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
