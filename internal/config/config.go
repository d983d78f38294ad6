// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Providers supported for translation completion calls.
const (
	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"GLOTFRAME_DB_PATH" envDefault:"./data/glotframe.db"`
	ServerHost string `env:"GLOTFRAME_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"GLOTFRAME_SERVER_PORT" envDefault:"8090"`
	Env        string `env:"GLOTFRAME_ENV" envDefault:"development"`
	LogLevel   string `env:"GLOTFRAME_LOG_LEVEL" envDefault:"info"`

	// LLM provider configuration
	LLMProvider string `env:"GLOTFRAME_LLM_PROVIDER" envDefault:"openai"` // openai or compat
	LLMAPIKey   string `env:"GLOTFRAME_LLM_API_KEY"`
	LLMModel    string `env:"GLOTFRAME_LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMBaseURL  string `env:"GLOTFRAME_LLM_BASE_URL"` // required for compat, optional override for openai

	// Translation pipeline tuning
	MaxRetries        int `env:"GLOTFRAME_MAX_RETRIES" envDefault:"2"`       // additional attempts after the first
	Concurrency       int `env:"GLOTFRAME_CONCURRENCY" envDefault:"2"`       // in-flight translation requests
	RequestsPerMinute int `env:"GLOTFRAME_REQUESTS_PER_MINUTE" envDefault:"30"`

	// Translation memory cache
	RedisURL     string `env:"GLOTFRAME_REDIS_URL"`                          // optional Redis backend
	CachePrefix  string `env:"GLOTFRAME_CACHE_PREFIX" envDefault:"glotframe:"`
	CacheTTL     int    `env:"GLOTFRAME_CACHE_TTL" envDefault:"86400"`       // seconds
	CacheMaxSize int    `env:"GLOTFRAME_CACHE_MAX_SIZE" envDefault:"10000"`

	// Run history retention
	HistoryMaxAgeDays int `env:"GLOTFRAME_HISTORY_MAX_AGE_DAYS" envDefault:"30"`

	// CORS for the plugin UI origin
	CORSAllowedOrigins []string `env:"GLOTFRAME_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// IsDevelopment returns true in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the host:port address the server listens on.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis translation memory is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load parses environment variables and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.LLMProvider {
	case ProviderOpenAI:
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("GLOTFRAME_LLM_API_KEY is required for the openai provider")
		}
	case ProviderCompat:
		if cfg.LLMBaseURL == "" {
			return nil, fmt.Errorf("GLOTFRAME_LLM_BASE_URL is required for the compat provider")
		}
	default:
		return nil, fmt.Errorf("unknown GLOTFRAME_LLM_PROVIDER %q (want openai or compat)", cfg.LLMProvider)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("GLOTFRAME_MAX_RETRIES must be >= 0, got %d", cfg.MaxRetries)
	}
	if cfg.Concurrency < 1 || cfg.Concurrency > 16 {
		return nil, fmt.Errorf("GLOTFRAME_CONCURRENCY must be between 1 and 16, got %d", cfg.Concurrency)
	}
	return cfg, nil
}
