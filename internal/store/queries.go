// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glotframe/glotframe/internal/model"
)

// Queries wraps the database with typed accessors.
type Queries struct {
	db *sql.DB
}

// New creates a Queries over db.
func New(db *sql.DB) *Queries { return &Queries{db: db} }

// Run statuses in the history table.
const (
	RunStatusRunning   = "running"
	RunStatusComplete  = "complete"
	RunStatusCancelled = "cancelled"
)

// RunRecord is one row of run history.
type RunRecord struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	SummaryClass string          `json:"summaryClass,omitempty"`
	Config       model.RunConfig `json:"config"`
	CreatedAt    time.Time       `json:"createdAt"`
	FinishedAt   *time.Time      `json:"finishedAt,omitempty"`
}

// LangReportRecord is one language's persisted outcome.
type LangReportRecord struct {
	Language string           `json:"language"`
	Status   model.LangStatus `json:"status"`
	Detail   string           `json:"detail,omitempty"`
	Report   *model.QAReport  `json:"report,omitempty"`
}

// CreateRun inserts a new running run.
func (q *Queries) CreateRun(ctx context.Context, id string, cfg model.RunConfig, createdAt time.Time) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, config, created_at) VALUES (?, ?, ?, ?)`,
		id, RunStatusRunning, string(cfgJSON), createdAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun marks a run terminal and stores its per-language outcomes.
func (q *Queries) FinishRun(ctx context.Context, id, status, summaryClass string, progress []model.LangProgress, finishedAt time.Time) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary_class = ?, finished_at = ? WHERE id = ?`,
		status, summaryClass, finishedAt, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	for _, p := range progress {
		var reportJSON sql.NullString
		if p.Report != nil {
			data, err := json.Marshal(p.Report)
			if err != nil {
				return fmt.Errorf("marshal report: %w", err)
			}
			reportJSON = sql.NullString{String: string(data), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_reports (run_id, language, status, detail, report)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (run_id, language) DO UPDATE
			 SET status = excluded.status, detail = excluded.detail, report = excluded.report`,
			id, p.Language.Code, string(p.Status), p.Detail, reportJSON)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
	}
	return tx.Commit()
}

// GetRun fetches one run with its per-language outcomes.
func (q *Queries) GetRun(ctx context.Context, id string) (*RunRecord, []LangReportRecord, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, status, summary_class, config, created_at, finished_at FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if err != nil {
		return nil, nil, err
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT language, status, detail, report FROM run_reports WHERE run_id = ? ORDER BY language`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []LangReportRecord
	for rows.Next() {
		var lr LangReportRecord
		var status string
		var reportJSON sql.NullString
		if err := rows.Scan(&lr.Language, &status, &lr.Detail, &reportJSON); err != nil {
			return nil, nil, fmt.Errorf("scan report: %w", err)
		}
		lr.Status = model.LangStatus(status)
		if reportJSON.Valid {
			var rep model.QAReport
			if err := json.Unmarshal([]byte(reportJSON.String), &rep); err == nil {
				lr.Report = &rep
			}
		}
		reports = append(reports, lr)
	}
	return rec, reports, rows.Err()
}

// ListRuns returns run history newest-first.
func (q *Queries) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, status, summary_class, config, created_at, finished_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// DeleteRunsBefore prunes finished runs older than cutoff.
func (q *Queries) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM runs WHERE created_at < ? AND status != ?`, cutoff, RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var cfgJSON string
	var finished sql.NullTime
	if err := row.Scan(&rec.ID, &rec.Status, &rec.SummaryClass, &cfgJSON, &rec.CreatedAt, &finished); err != nil {
		return nil, err
	}
	if finished.Valid {
		rec.FinishedAt = &finished.Time
	}
	if err := json.Unmarshal([]byte(cfgJSON), &rec.Config); err != nil {
		return nil, fmt.Errorf("unmarshal run config: %w", err)
	}
	return &rec, nil
}

// CreateEvent appends one event-log row.
func (q *Queries) CreateEvent(ctx context.Context, level, category, message, metadata string, createdAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		level, category, message, metadata, createdAt)
	return err
}

// Event is one event-log row.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListEvents returns the newest events.
func (q *Queries) ListEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, metadata, created_at
		 FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetSetting returns a settings value, or "" when absent.
func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts a settings value.
func (q *Queries) SetSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now())
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
