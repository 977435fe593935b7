package repository

import (
	"context"
	"time"

	"ChartFeed/internal/domain/models"
)

// TableFetcher returns the raw HTML of a page that lists daily bars in a table.
type TableFetcher interface {
	FetchTable(ctx context.Context, symbol string) ([]byte, error)
}

// JSONFetcher returns the raw body of a chart endpoint that lists daily bars as JSON.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, symbol string) ([]byte, error)
}

// AuditSink stores acquisition provenance records.
type AuditSink interface {
	Init(ctx context.Context) error // ensure tables/topics, health checks
	Record(ctx context.Context, ev *models.AcquisitionEvent) error
	Close() error
}

// Counter is a shared integer counter with expiry, used for upstream throttling.
type Counter interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type Metrics interface {
	RecordAcquisition(source string)
	RecordStrategyFailure(strategy, reason string)
	RecordRowsDropped(strategy string, n int)
	RecordLatency(op string, seconds float64)
	SetSourceUp(source string, up bool)
}
