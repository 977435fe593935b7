package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ChartFeed/internal/domain/models"
)

// SQLiteAuditSink persists events to a local SQLite file.
type SQLiteAuditSink struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteAuditSink opens (or creates) the database at path. Call Init to migrate.
func NewSQLiteAuditSink(path string) (*SQLiteAuditSink, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)
	return &SQLiteAuditSink{db: db}, nil
}

func (s *SQLiteAuditSink) Init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS acquisitions (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			range_token TEXT NOT NULL,
			source      TEXT NOT NULL,
			bars        INTEGER NOT NULL,
			attempts    TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_acquisitions_ts ON acquisitions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_acquisitions_symbol ON acquisitions(symbol, timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (s *SQLiteAuditSink) Record(ctx context.Context, ev *models.AcquisitionEvent) error {
	if ev == nil {
		return nil
	}
	rec := toAuditRecord(ev)
	attempts, err := rec.attemptsJSON()
	if err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO acquisitions (id, timestamp, symbol, range_token, source, bars, attempts, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UnixMilli(), rec.Symbol, rec.Range, rec.Source, rec.Bars, attempts, rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert acquisition: %w", err)
	}
	return nil
}

// AcquisitionSummary is one stored row, without per-attempt detail.
type AcquisitionSummary struct {
	ID        string
	Timestamp time.Time
	Symbol    string
	Range     models.RangeToken
	Source    models.Source
	Bars      int
}

// Recent returns the newest events for symbol, newest first.
func (s *SQLiteAuditSink) Recent(ctx context.Context, symbol string, limit int) ([]AcquisitionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, symbol, range_token, source, bars
		 FROM acquisitions WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?`,
		models.NormalizeSymbol(symbol), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query acquisitions: %w", err)
	}
	defer rows.Close()

	var out []AcquisitionSummary
	for rows.Next() {
		var (
			a  AcquisitionSummary
			ms int64
		)
		if err := rows.Scan(&a.ID, &ms, &a.Symbol, &a.Range, &a.Source, &a.Bars); err != nil {
			return nil, fmt.Errorf("scan acquisition: %w", err)
		}
		a.Timestamp = time.UnixMilli(ms).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteAuditSink) Close() error { return s.db.Close() }
