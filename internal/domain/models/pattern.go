package models

import "time"

// Polarity is the directional bias of a candlestick pattern.
type Polarity string

const (
	Bullish Polarity = "bullish"
	Bearish Polarity = "bearish"
)

// PatternTally counts how many bars of a sequence matched a pattern.
type PatternTally struct {
	Name     string
	Polarity Polarity
	Count    int
}

// PatternTallies groups tallies by polarity, in detection-table order.
// Zero counts are always present.
type PatternTallies struct {
	Bullish []PatternTally
	Bearish []PatternTally
}

// Count returns the tally for (name, polarity), or -1 if no such pattern exists.
func (t PatternTallies) Count(name string, p Polarity) int {
	list := t.Bullish
	if p == Bearish {
		list = t.Bearish
	}
	for _, pt := range list {
		if pt.Name == name {
			return pt.Count
		}
	}
	return -1
}

// PatternMatch records one bar at which a pattern predicate held.
type PatternMatch struct {
	Index    int
	Date     time.Time
	Name     string
	Polarity Polarity
}
