// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/glotframe/glotframe/internal/cache"
	"github.com/glotframe/glotframe/internal/config"
	"github.com/glotframe/glotframe/internal/handler"
	"github.com/glotframe/glotframe/internal/logging"
	"github.com/glotframe/glotframe/internal/middleware"
	"github.com/glotframe/glotframe/internal/run"
	"github.com/glotframe/glotframe/internal/scheduler"
	"github.com/glotframe/glotframe/internal/store"
	"github.com/glotframe/glotframe/internal/translate"
	"github.com/glotframe/glotframe/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "glotframe - design document localization engine\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GLOTFRAME_LLM_API_KEY     LLM API key (required for the openai provider)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GLOTFRAME_LLM_PROVIDER    openai|compat (default: openai)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GLOTFRAME_LLM_MODEL       Model name (default: gpt-4o-mini)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GLOTFRAME_LLM_BASE_URL    Endpoint URL (required for compat)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GLOTFRAME_DB_PATH         SQLite database path (default: ./data/glotframe.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GLOTFRAME_SERVER_PORT     Server port (default: 8090)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GLOTFRAME_REDIS_URL       Redis URL for shared translation memory (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("glotframe %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := runApp(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func runApp() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	queries := store.New(db)

	// Upgrade logger to also write WARN and ERROR logs to the event log table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, queries))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Translation memory cache: in-memory by default, Redis when configured
	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisURL = cfg.RedisURL
	cacheCfg.Prefix = cfg.CachePrefix
	cacheCfg.DefaultTTL = time.Duration(cfg.CacheTTL) * time.Second
	cacheCfg.MaxSize = cfg.CacheMaxSize
	memCache, err := cache.New(cacheCfg)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := memCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if cfg.UseRedisCache() {
		slog.Info("translation memory initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("translation memory initialized", "backend", "memory")
	}

	// Translation provider
	var provider translate.Provider
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		provider = translate.NewOpenAIProvider(translate.OpenAIOptions{
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.LLMBaseURL,
		})
	case config.ProviderCompat:
		provider = translate.NewCompatProvider(translate.CompatOptions{
			BaseURL:           cfg.LLMBaseURL,
			APIKey:            cfg.LLMAPIKey,
			Model:             cfg.LLMModel,
			RequestsPerMinute: cfg.RequestsPerMinute,
		})
	}
	slog.Info("translation provider configured", "provider", provider.Name(), "model", cfg.LLMModel)

	translator := translate.New(translate.Options{
		Provider:   provider,
		MaxRetries: cfg.MaxRetries,
		Memory:     cache.NewTranslationMemory(memCache, logger),
		Logger:     logger,
	})

	orchestrator := run.NewOrchestrator(run.Options{
		Translator:  translator,
		Recorder:    store.NewRunRecorder(queries, logger),
		Logger:      logger,
		Concurrency: cfg.Concurrency,
	})

	sched := scheduler.New(queries, orchestrator,
		time.Duration(cfg.HistoryMaxAgeDays)*24*time.Hour, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Timeout(5 * time.Minute)) // runs are started async; shorten is not
	r.Use(middleware.RateLimit(10, 20))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handler.New(orchestrator, queries, versionInfo, logger)
	h.Routes(r)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      6 * time.Minute, // must outlive the request timeout
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
