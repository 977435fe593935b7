package patterns

import "ChartFeed/internal/domain/models"

// window holds the bar under test and up to two predecessors. prev and prev2 are only
// meaningful when the pattern span covers them.
type window struct {
	prev2, prev, c candle
}

// Pattern is one row of the detection table.
type Pattern struct {
	Name     string
	Polarity models.Polarity
	Span     int // bars the predicate looks at, ending at the current one
	match    func(w window) bool
}

var table = []Pattern{
	// bullish
	{"Doji", models.Bullish, 1, func(w window) bool {
		return w.c.smallBody()
	}},
	{"Bullish Engulfing", models.Bullish, 2, func(w window) bool {
		return w.prev.bear() && w.c.bull() && w.c.close > w.prev.open && w.c.open < w.prev.close
	}},
	{"Piercing Pattern", models.Bullish, 2, func(w window) bool {
		return w.prev.bear() && w.c.bull() && w.c.close >= (w.prev.open+w.prev.close)/2
	}},
	{"Tweezer Bottom", models.Bullish, 2, func(w window) bool {
		d := w.prev.low - w.c.low
		if d < 0 {
			d = -d
		}
		return d < 0.02*w.c.rng
	}},
	{"Rising Window", models.Bullish, 2, func(w window) bool {
		return w.c.low > w.prev.high
	}},
	{"Hammer", models.Bullish, 1, func(w window) bool {
		return w.c.longLower() && w.c.bodyAtMost(0.3)
	}},
	{"Bullish Harami", models.Bullish, 2, func(w window) bool {
		return w.prev.bear() && w.c.bull() && w.c.open > w.prev.close && w.c.close < w.prev.open
	}},
	{"Inverted Hammer", models.Bullish, 1, func(w window) bool {
		return w.c.longUpper() && w.c.bodyAtMost(0.3) && w.c.bull()
	}},
	{"Morning Star", models.Bullish, 3, func(w window) bool {
		return w.prev2.bear() && w.prev.bodyAtMost(0.3) && w.c.bull() && w.c.close > w.prev2.open
	}},
	{"Bullish Marubozu", models.Bullish, 1, func(w window) bool {
		return w.c.body >= 0.8*w.c.rng && w.c.bull()
	}},
	{"Abandoned Baby", models.Bullish, 3, func(w window) bool {
		return w.prev2.bear() && w.prev.smallBody() && w.c.bull()
	}},
	{"Three White Soldiers", models.Bullish, 3, func(w window) bool {
		return w.prev2.bull() && w.prev.bull() && w.c.bull() &&
			w.prev2.close < w.prev.close && w.prev.close < w.c.close
	}},

	// bearish
	{"Bearish Engulfing", models.Bearish, 2, func(w window) bool {
		return w.prev.bull() && w.c.bear() && w.c.close < w.prev.open && w.c.open > w.prev.close
	}},
	{"Falling Window", models.Bearish, 2, func(w window) bool {
		return w.c.high < w.prev.low
	}},
	{"Hanging Man", models.Bearish, 1, func(w window) bool {
		return w.c.longLower() && w.c.bodyAtMost(0.3) && w.c.bear()
	}},
	{"Gravestone Doji", models.Bearish, 1, func(w window) bool {
		return w.c.smallBody() && w.c.longUpper()
	}},
	{"Shooting Star", models.Bearish, 1, func(w window) bool {
		return w.c.longUpper() && w.c.bodyAtMost(0.3) && w.c.bear()
	}},
	{"Evening Star", models.Bearish, 3, func(w window) bool {
		return w.prev2.bull() && w.prev.bodyAtMost(0.3) && w.c.bear() && w.c.close < w.prev2.open
	}},
	{"Bearish Harami", models.Bearish, 2, func(w window) bool {
		return w.prev.bull() && w.c.bear() && w.c.open < w.prev.close && w.c.close > w.prev.open
	}},
	{"Bearish Marubozu", models.Bearish, 1, func(w window) bool {
		return w.c.body >= 0.8*w.c.rng && w.c.bear()
	}},
	{"Abandoned Baby", models.Bearish, 3, func(w window) bool {
		return w.prev2.bull() && w.prev.smallBody() && w.c.bear()
	}},
	{"Three Black Crows", models.Bearish, 3, func(w window) bool {
		return w.prev2.bear() && w.prev.bear() && w.c.bear() &&
			w.prev2.close > w.prev.close && w.prev.close > w.c.close
	}},
}

// Table returns a copy of the detection table in reporting order.
func Table() []Pattern {
	out := make([]Pattern, len(table))
	copy(out, table)
	return out
}
