package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"ChartFeed/internal/domain/models"
	drepo "ChartFeed/internal/domain/repository"
	"ChartFeed/pkg/logger"
)

// SourceProber periodically runs the live strategies against a canary symbol and
// publishes whether each one still yields an acceptable sequence.
type SourceProber struct {
	cron       *cron.Cron
	strategies []Strategy
	symbol     string
	timeout    time.Duration
	metrics    drepo.Metrics
	l          *logger.Logger
}

func NewSourceProber(strategies []Strategy, symbol string, timeout time.Duration, metrics drepo.Metrics, l *logger.Logger) *SourceProber {
	if l == nil {
		l = logger.NewNop()
	}
	return &SourceProber{
		cron:       cron.New(cron.WithSeconds()),
		strategies: strategies,
		symbol:     models.NormalizeSymbol(symbol),
		timeout:    timeout,
		metrics:    metrics,
		l:          l,
	}
}

// Register schedules the probe with a six-field (seconds) cron spec.
func (p *SourceProber) Register(spec string) error {
	if _, err := p.cron.AddFunc(spec, func() { p.ProbeNow(context.Background()) }); err != nil {
		return fmt.Errorf("register source probe: %w", err)
	}
	return nil
}

func (p *SourceProber) Start() {
	p.cron.Start()
	p.l.Info("source prober started", logger.String("canary", p.symbol))
}

// Stop waits for a running probe to finish or ctx to expire.
func (p *SourceProber) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	p.l.Info("source prober stopped")
}

// ProbeNow runs every live strategy once and returns source -> up.
func (p *SourceProber) ProbeNow(ctx context.Context) map[models.Source]bool {
	out := make(map[models.Source]bool, len(p.strategies))
	for _, s := range p.strategies {
		if s.Source() == models.SourceSynthetic {
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, p.timeout)
		bars, _, err := s.Acquire(sctx, p.symbol, models.Range1M.Days())
		cancel()

		up := err == nil && len(bars) > 0
		out[s.Source()] = up
		if p.metrics != nil {
			p.metrics.SetSourceUp(string(s.Source()), up)
		}
		if !up {
			p.l.Warn("source probe failed",
				logger.String("source", string(s.Source())),
				logger.String("symbol", p.symbol),
				logger.Error(err),
			)
		}
	}
	return out
}
