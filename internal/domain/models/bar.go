package models

import "time"

// Bar is one daily OHLCV record. Date is the calendar day at UTC midnight.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Valid reports whether low <= open, close <= high and volume is non-negative.
func (b Bar) Valid() bool {
	if b.Low > b.Open || b.Low > b.Close {
		return false
	}
	if b.High < b.Open || b.High < b.Close {
		return false
	}
	return b.Volume >= 0
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Source tags which acquisition strategy produced a bar sequence.
type Source string

const (
	SourceTable     Source = "live-table"
	SourceJSON      Source = "live-json"
	SourceSynthetic Source = "synthetic"
)

// AcquisitionResult is the outcome of running the acquisition chain for one request.
// Bars are ascending by date with unique dates and are never mutated after creation.
type AcquisitionResult struct {
	Symbol string
	Range  RangeToken
	Source Source
	Bars   []Bar
}
