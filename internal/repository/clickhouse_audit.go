package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ChartFeed/internal/domain/models"
	pkgch "ChartFeed/pkg/clickhouse"
	applogger "ChartFeed/pkg/logger"
)

// CHAuditSink stores events in a MergeTree table ordered by (symbol, ts).
type CHAuditSink struct {
	client   *pkgch.Client
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHAuditSink(ch *pkgch.Client, database string, l *applogger.Logger) *CHAuditSink {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHAuditSink{client: ch, db: ch.DB(), database: database, l: l}
}

func (s *CHAuditSink) table() string { return s.database + ".acquisitions" }

func (s *CHAuditSink) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, s.database),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ts          DateTime64(3, 'UTC'),
            event_id    String,
            symbol      LowCardinality(String),
            range       LowCardinality(String),
            source      LowCardinality(String),
            bars        UInt32,
            attempts    String,
            duration_ms UInt32
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, ts)
        TTL toDateTime(ts) + INTERVAL 90 DAY
    `, s.table()),
	})
}

func (s *CHAuditSink) Record(ctx context.Context, ev *models.AcquisitionEvent) error {
	if ev == nil {
		return nil
	}
	start := time.Now()
	rec := toAuditRecord(ev)
	attempts, err := rec.attemptsJSON()
	if err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}

	q := fmt.Sprintf("INSERT INTO %s (ts, event_id, symbol, range, source, bars, attempts, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table())
	_, err = s.db.ExecContext(ctx, q,
		rec.Timestamp,
		rec.ID,
		rec.Symbol,
		rec.Range,
		rec.Source,
		uint32(rec.Bars),
		attempts,
		uint32(rec.DurationMS),
	)
	if err != nil {
		s.l.Error("clickhouse audit insert error",
			applogger.String("table", s.table()),
			applogger.String("symbol", rec.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("insert acquisition: %w", err)
	}
	s.l.Debug("clickhouse audit insert ok",
		applogger.String("symbol", rec.Symbol),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHAuditSink) Close() error { return s.client.Close() }
