package models

import "time"

// ChartSeries bundles one acquisition with everything derived from it.
// Note: no transport (json/http) concerns here.
type ChartSeries struct {
	AcquisitionResult
	Indicators  []IndicatorPoint
	Patterns    PatternTallies
	Matches     []PatternMatch
	GeneratedAt time.Time
}
