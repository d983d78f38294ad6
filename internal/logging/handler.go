// Package logging provides a custom slog handler that mirrors WARN level and
// above into the SQLite event log, so layout-QA warnings and run failures
// stay auditable after the process exits.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/glotframe/glotframe/internal/store"
)

// Event levels stored in the event log.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// EventLogHandler wraps another slog.Handler and also writes records at or
// above its threshold to the event log.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewEventLogHandler wraps inner; records at WARN and above are persisted.
func NewEventLogHandler(inner slog.Handler, queries *store.Queries) *EventLogHandler {
	return &EventLogHandler{inner: inner, queries: queries, level: slog.LevelWarn}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.persist(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// persist writes one record to the event log. A background context is used
// so the event survives request-context cancellation.
func (h *EventLogHandler) persist(r slog.Record) {
	category := ""
	meta := make(map[string]string)
	collect := func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return true
		}
		meta[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	metadata := ""
	if len(meta) > 0 {
		if data, err := json.Marshal(meta); err == nil {
			metadata = string(data)
		}
	}

	_ = h.queries.CreateEvent(context.Background(), levelName(r.Level), category, r.Message, metadata, r.Time)
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarning
	default:
		return LevelInfo
	}
}
