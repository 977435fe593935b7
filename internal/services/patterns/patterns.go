// Package patterns counts candlestick formations over a daily bar sequence.
//
// Each pattern is a predicate over the current bar and up to two predecessors. Bars are
// evaluated independently; no look-ahead is used and a pattern is never "consumed" by a
// neighbouring match.
package patterns

import "ChartFeed/internal/domain/models"

// Scan returns every (bar, pattern) pair whose predicate holds, ordered by bar index and
// then by table order.
func Scan(bars []models.Bar) []models.PatternMatch {
	if len(bars) == 0 {
		return nil
	}
	candles := make([]candle, len(bars))
	for i, b := range bars {
		candles[i] = newCandle(b)
	}

	var out []models.PatternMatch
	for i := range candles {
		w := window{c: candles[i]}
		if i >= 1 {
			w.prev = candles[i-1]
		}
		if i >= 2 {
			w.prev2 = candles[i-2]
		}
		for _, p := range table {
			if i < p.Span-1 || !p.match(w) {
				continue
			}
			out = append(out, models.PatternMatch{
				Index:    i,
				Date:     bars[i].Date,
				Name:     p.Name,
				Polarity: p.Polarity,
			})
		}
	}
	return out
}

// Tally counts matches per pattern. Every table entry is reported, including zeros.
func Tally(bars []models.Bar) models.PatternTallies {
	return TallyMatches(Scan(bars))
}

// TallyMatches folds matches produced by Scan into per-pattern counts.
func TallyMatches(matches []models.PatternMatch) models.PatternTallies {
	type key struct {
		name string
		pol  models.Polarity
	}
	counts := make(map[key]int, len(table))
	for _, m := range matches {
		counts[key{m.Name, m.Polarity}]++
	}

	var out models.PatternTallies
	for _, p := range table {
		t := models.PatternTally{Name: p.Name, Polarity: p.Polarity, Count: counts[key{p.Name, p.Polarity}]}
		if p.Polarity == models.Bullish {
			out.Bullish = append(out.Bullish, t)
		} else {
			out.Bearish = append(out.Bearish, t)
		}
	}
	return out
}
