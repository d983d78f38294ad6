// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GLOTFRAME_LLM_API_KEY", "sk-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./data/glotframe.db", cfg.DBPath)
	assert.Equal(t, "localhost:8090", cfg.ServerAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 30, cfg.HistoryMaxAgeDays)
	assert.False(t, cfg.UseRedisCache())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GLOTFRAME_SERVER_HOST", "0.0.0.0")
	t.Setenv("GLOTFRAME_SERVER_PORT", "9000")
	t.Setenv("GLOTFRAME_ENV", "production")
	t.Setenv("GLOTFRAME_CONCURRENCY", "4")
	t.Setenv("GLOTFRAME_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GLOTFRAME_CORS_ORIGINS", "https://plugin.example.com,https://other.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddr())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.UseRedisCache())
	assert.Equal(t, []string{"https://plugin.example.com", "https://other.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadOpenAIRequiresKey(t *testing.T) {
	t.Setenv("GLOTFRAME_LLM_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GLOTFRAME_LLM_API_KEY")
}

func TestLoadCompatRequiresBaseURL(t *testing.T) {
	t.Setenv("GLOTFRAME_LLM_PROVIDER", "compat")
	t.Setenv("GLOTFRAME_LLM_BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GLOTFRAME_LLM_BASE_URL")

	t.Setenv("GLOTFRAME_LLM_BASE_URL", "http://localhost:11434/v1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderCompat, cfg.LLMProvider)
}

func TestLoadUnknownProvider(t *testing.T) {
	t.Setenv("GLOTFRAME_LLM_PROVIDER", "bedrock")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GLOTFRAME_LLM_PROVIDER")
}

func TestLoadBounds(t *testing.T) {
	setRequired(t)

	t.Setenv("GLOTFRAME_CONCURRENCY", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("GLOTFRAME_CONCURRENCY", "17")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("GLOTFRAME_CONCURRENCY", "16")
	t.Setenv("GLOTFRAME_MAX_RETRIES", "-1")
	_, err = Load()
	assert.Error(t, err)
}
