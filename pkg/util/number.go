package util

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var numberCleaner = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\t", "")

// ParseNumber parses a finite number that may carry thousands separators.
func ParseNumber(s string) (float64, bool) {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFinite(v) {
		return 0, false
	}
	return v, true
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Volume floors v into a share count. Negative values and values that do not fit
// in an int64 are rejected.
func Volume(v float64) (int64, bool) {
	if !IsFinite(v) || v < 0 || v >= math.MaxInt64 {
		return 0, false
	}
	return int64(math.Floor(v)), true
}

// Round2 rounds v to two decimals, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
