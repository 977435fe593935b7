package patterns

import (
	"math"

	"ChartFeed/internal/domain/models"
)

// candle carries the shape terms every predicate reads. Ratio tests are written as
// products against rng so a zero-range bar never divides.
type candle struct {
	open, high, low, close float64
	body                   float64
	rng                    float64
}

func newCandle(b models.Bar) candle {
	return candle{
		open:  b.Open,
		high:  b.High,
		low:   b.Low,
		close: b.Close,
		body:  math.Abs(b.Close - b.Open),
		rng:   b.High - b.Low,
	}
}

func (c candle) bull() bool { return c.close > c.open }
func (c candle) bear() bool { return c.close < c.open }

func (c candle) smallBody() bool { return c.body <= 0.1*c.rng }

// bodyAtMost reports body <= frac*range.
func (c candle) bodyAtMost(frac float64) bool { return c.body <= frac*c.rng }

func (c candle) longLower() bool {
	return math.Min(c.open, c.close)-c.low >= 0.5*c.rng
}

func (c candle) longUpper() bool {
	return c.high-math.Max(c.open, c.close) >= 0.5*c.rng
}
