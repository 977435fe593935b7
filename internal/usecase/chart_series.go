package usecase

import (
	"context"
	"time"

	"ChartFeed/internal/domain/models"
	"ChartFeed/internal/services/indicators"
	"ChartFeed/internal/services/patterns"
)

// Acquirer is the acquisition entry point the chart use case depends on.
type Acquirer interface {
	Acquire(ctx context.Context, symbol, rng string) models.AcquisitionResult
}

// ChartSeriesUseCase derives indicators and pattern tallies from one acquisition.
type ChartSeriesUseCase struct {
	acq Acquirer
	now func() time.Time
}

func NewChartSeriesUseCase(acq Acquirer) *ChartSeriesUseCase {
	return &ChartSeriesUseCase{acq: acq, now: time.Now}
}

// Bars returns the raw acquisition.
func (uc *ChartSeriesUseCase) Bars(ctx context.Context, symbol, rng string) models.AcquisitionResult {
	return uc.acq.Acquire(ctx, symbol, rng)
}

// Indicators returns the acquisition together with its indicator points.
func (uc *ChartSeriesUseCase) Indicators(ctx context.Context, symbol, rng string) (models.AcquisitionResult, []models.IndicatorPoint) {
	res := uc.acq.Acquire(ctx, symbol, rng)
	return res, indicators.Compute(res.Bars)
}

// Patterns returns the acquisition together with its pattern tallies.
func (uc *ChartSeriesUseCase) Patterns(ctx context.Context, symbol, rng string) (models.AcquisitionResult, models.PatternTallies) {
	res := uc.acq.Acquire(ctx, symbol, rng)
	return res, patterns.Tally(res.Bars)
}

// Series runs acquisition once and derives everything a chart needs from the same bars.
func (uc *ChartSeriesUseCase) Series(ctx context.Context, symbol, rng string) models.ChartSeries {
	res := uc.acq.Acquire(ctx, symbol, rng)
	matches := patterns.Scan(res.Bars)
	return models.ChartSeries{
		AcquisitionResult: res,
		Indicators:        indicators.Compute(res.Bars),
		Patterns:          patterns.TallyMatches(matches),
		Matches:           matches,
		GeneratedAt:       uc.now().UTC(),
	}
}
