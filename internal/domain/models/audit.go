package models

import "time"

// StrategyAttempt is one strategy run inside an acquisition.
type StrategyAttempt struct {
	Strategy Source
	Bars     int
	Err      string
	Duration time.Duration
}

// AcquisitionEvent is the provenance record emitted for every acquisition.
type AcquisitionEvent struct {
	ID        string
	Symbol    string
	Range     RangeToken
	Source    Source
	Bars      int
	Attempts  []StrategyAttempt
	Duration  time.Duration
	Timestamp time.Time
}
