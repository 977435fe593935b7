package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ChartFeed/internal/domain/models"
	drepo "ChartFeed/internal/domain/repository"
	"ChartFeed/internal/services/synthetic"
	"ChartFeed/pkg/logger"
	pkgmetrics "ChartFeed/pkg/metrics"
)

// Strategy is one way of obtaining bars for a symbol. dropped reports upstream rows that
// were skipped during coercion, whether or not the strategy succeeded.
type Strategy interface {
	Source() models.Source
	Acquire(ctx context.Context, symbol string, days int) (bars []models.Bar, dropped int, err error)
}

// BarAcquirer runs strategies in order and returns the first acceptable sequence.
// It never fails: when every strategy falls through it generates synthetic bars.
type BarAcquirer struct {
	strategies   []Strategy
	gen          *synthetic.Generator
	timeout      time.Duration
	auditTimeout time.Duration
	metrics      drepo.Metrics
	audit        drepo.AuditSink
	l            *logger.Logger
	now          func() time.Time
}

type AcquirerOption func(*BarAcquirer)

// WithStrategyTimeout bounds each strategy attempt.
func WithStrategyTimeout(d time.Duration) AcquirerOption {
	return func(a *BarAcquirer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithAcquirerMetrics(m drepo.Metrics) AcquirerOption {
	return func(a *BarAcquirer) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithAuditSink records an AcquisitionEvent per call, bounded by timeout.
func WithAuditSink(s drepo.AuditSink, timeout time.Duration) AcquirerOption {
	return func(a *BarAcquirer) {
		a.audit = s
		if timeout > 0 {
			a.auditTimeout = timeout
		}
	}
}

func WithAcquirerLogger(l *logger.Logger) AcquirerOption {
	return func(a *BarAcquirer) {
		if l != nil {
			a.l = l
		}
	}
}

func WithAcquirerClock(now func() time.Time) AcquirerOption {
	return func(a *BarAcquirer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewBarAcquirer builds the chain. gen backs the guaranteed final fallback and is also
// expected to appear as the last strategy.
func NewBarAcquirer(gen *synthetic.Generator, strategies []Strategy, opts ...AcquirerOption) *BarAcquirer {
	a := &BarAcquirer{
		strategies:   strategies,
		gen:          gen,
		timeout:      8 * time.Second,
		auditTimeout: 2 * time.Second,
		metrics:      pkgmetrics.Noop{},
		l:            logger.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.gen == nil {
		a.gen = synthetic.New()
	}
	return a
}

// Acquire returns bars for symbol over rng. Unknown ranges fall back to the default range.
func (a *BarAcquirer) Acquire(ctx context.Context, symbol, rng string) models.AcquisitionResult {
	start := a.now()
	symbol = models.NormalizeSymbol(symbol)
	token := models.NormalizeRange(rng)
	days := token.Days()

	result := models.AcquisitionResult{Symbol: symbol, Range: token}
	attempts := make([]models.StrategyAttempt, 0, len(a.strategies))

	for _, s := range a.strategies {
		attemptStart := a.now()
		bars, dropped, err := a.run(ctx, s, symbol, days)
		attempt := models.StrategyAttempt{Strategy: s.Source(), Bars: len(bars), Duration: a.now().Sub(attemptStart)}

		a.metrics.RecordRowsDropped(string(s.Source()), dropped)
		if err == nil && len(bars) == 0 {
			err = fmt.Errorf("%w: no bars", models.ErrInsufficientData)
		}
		if err != nil {
			attempt.Err = err.Error()
			attempts = append(attempts, attempt)
			a.metrics.RecordStrategyFailure(string(s.Source()), failureReason(err))
			a.l.Debug("acquisition strategy fell through",
				logger.String("symbol", symbol),
				logger.String("range", string(token)),
				logger.String("strategy", string(s.Source())),
				logger.Int("dropped_rows", dropped),
				logger.Duration("took_ms", attempt.Duration),
				logger.Error(err),
			)
			continue
		}

		attempts = append(attempts, attempt)
		result.Source = s.Source()
		result.Bars = bars
		break
	}

	if result.Bars == nil {
		a.l.Warn("all acquisition strategies failed, generating bars",
			logger.String("symbol", symbol),
			logger.String("range", string(token)),
		)
		result.Source = models.SourceSynthetic
		result.Bars = a.gen.Generate(symbol, days)
	}

	took := a.now().Sub(start)
	a.metrics.RecordAcquisition(string(result.Source))
	a.metrics.RecordLatency("acquire", took.Seconds())
	a.l.Info("bars acquired",
		logger.String("symbol", symbol),
		logger.String("range", string(token)),
		logger.String("source", string(result.Source)),
		logger.Int("bars", len(result.Bars)),
		logger.Duration("took_ms", took),
	)

	a.record(ctx, &models.AcquisitionEvent{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Range:     token,
		Source:    result.Source,
		Bars:      len(result.Bars),
		Attempts:  attempts,
		Duration:  took,
		Timestamp: start.UTC(),
	})
	return result
}

// run executes one strategy under its own deadline and converts panics into errors.
func (a *BarAcquirer) run(ctx context.Context, s Strategy, symbol string, days int) (bars []models.Bar, dropped int, err error) {
	sctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			bars, err = nil, fmt.Errorf("%w: strategy panicked: %v", models.ErrSourceUnavailable, r)
		}
	}()

	bars, dropped, err = s.Acquire(sctx, symbol, days)
	if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return bars, dropped, err
}

func (a *BarAcquirer) record(ctx context.Context, ev *models.AcquisitionEvent) {
	if a.audit == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.auditTimeout)
	defer cancel()
	if err := a.audit.Record(actx, ev); err != nil {
		a.metrics.RecordStrategyFailure("audit", "write_failed")
		a.l.Warn("audit record failed",
			logger.String("event_id", ev.ID),
			logger.Error(err),
		)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, models.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, models.ErrMalformedRow):
		return "malformed"
	case errors.Is(err, models.ErrSourceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
