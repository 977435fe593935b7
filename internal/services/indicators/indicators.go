package indicators

import (
	"math"

	"ChartFeed/internal/domain/models"
	"ChartFeed/pkg/util"
)

const (
	ShortWindow = 20
	LongWindow  = 50
	RSIPeriod   = 14
)

// Compute derives one IndicatorPoint per bar, index aligned with bars.
// Callers are expected to pass a non-empty sequence; an empty one yields nil.
func Compute(bars []models.Bar) []models.IndicatorPoint {
	if len(bars) == 0 {
		return nil
	}
	closes := Closes(bars)
	maShort := MovingAverage(closes, ShortWindow)
	maLong := MovingAverage(closes, LongWindow)
	rsi := RSI(closes)

	out := make([]models.IndicatorPoint, len(bars))
	for i, b := range bars {
		out[i] = models.IndicatorPoint{
			Date:    b.Date,
			Close:   b.Close,
			MAShort: maShort[i],
			MALong:  maLong[i],
			Volume:  b.Volume,
			RSI:     rsi[i],
		}
	}
	return out
}

// Closes extracts the close column.
func Closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// MovingAverage computes ma_i = mean(close[max(0,i-window+1)..i]) rounded to 2 decimals.
// The window shrinks at the head of the series instead of leaving gaps.
func MovingAverage(closes []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(closes))
	for i := range closes {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for _, c := range closes[start : i+1] {
			sum += c
		}
		out[i] = util.Round2(sum / float64(i+1-start))
	}
	return out
}

// RSI computes the relative strength index with a 14-bar simple average of gains and losses.
// Bars 0..13 use the single-bar gain/loss as their "average", so the head of the series
// swings between 0 and 99.01 instead of being smoothed. rs is pinned to 100 when the
// window holds no loss at all.
func RSI(closes []float64) []float64 {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		gains[i] = math.Max(0, d)
		losses[i] = math.Max(0, -d)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		avgGain, avgLoss := gains[i], losses[i]
		if i > RSIPeriod-1 {
			avgGain, avgLoss = 0, 0
			for j := i - RSIPeriod + 1; j <= i; j++ {
				avgGain += gains[j]
				avgLoss += losses[j]
			}
			avgGain /= RSIPeriod
			avgLoss /= RSIPeriod
		}

		rs := 100.0
		if avgLoss != 0 {
			rs = avgGain / math.Max(avgLoss, 1e-6)
		}
		out[i] = util.Round2(100 - 100/(1+rs))
	}
	return out
}
