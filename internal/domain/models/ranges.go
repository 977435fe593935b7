package models

import "strings"

// RangeToken selects how many calendar days of bars a request covers.
type RangeToken string

const (
	Range1M  RangeToken = "1M"
	Range3M  RangeToken = "3M"
	Range6M  RangeToken = "6M"
	Range1Y  RangeToken = "1Y"
	RangeMax RangeToken = "MAX"
)

var rangeDays = map[RangeToken]int{
	Range1M:  30,
	Range3M:  90,
	Range6M:  180,
	Range1Y:  365,
	RangeMax: 720,
}

// IsValidRange returns true if r is a supported range token.
func IsValidRange(r RangeToken) bool {
	_, ok := rangeDays[r]
	return ok
}

// DefaultRange returns the range used when a caller omits or garbles one.
func DefaultRange() RangeToken { return Range3M }

// NormalizeRange converts a raw token to a supported range (or the default).
func NormalizeRange(s string) RangeToken {
	r := RangeToken(strings.ToUpper(strings.TrimSpace(s)))
	if IsValidRange(r) {
		return r
	}
	return DefaultRange()
}

// Days returns the calendar-day count for r, falling back to the default range.
func (r RangeToken) Days() int {
	if d, ok := rangeDays[r]; ok {
		return d
	}
	return rangeDays[DefaultRange()]
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
