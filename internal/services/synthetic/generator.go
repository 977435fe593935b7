// Package synthetic produces deterministic OHLCV bars for a symbol when no live
// source answers. The same symbol and day count always yield the same prices; the
// dates follow the generator clock.
package synthetic

import (
	"math"
	"time"
	"unicode/utf16"

	"ChartFeed/internal/domain/models"
	"ChartFeed/pkg/util"
)

// DefaultSeed replaces a symbol fold of zero, which would lock xorshift at zero.
const DefaultSeed uint32 = 2463534242

type Generator struct {
	now func() time.Time
}

type Option func(*Generator)

// WithClock overrides the clock used to decide which day is "today".
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns exactly days bars covering the days calendar days ending today (UTC).
// days <= 0 yields nil.
func (g *Generator) Generate(symbol string, days int) []models.Bar {
	if days <= 0 {
		return nil
	}

	rng := newXorshift(Seed(symbol))
	today := models.Day(g.now())
	start := today.AddDate(0, 0, -(days - 1))

	bars := make([]models.Bar, 0, days)
	price := 500 + rng.next()*1000
	for i := 0; i < days; i++ {
		drift := (rng.next() - 0.5) * 6
		volatility := 8 + rng.next()*12
		open := math.Max(50, price+(rng.next()-0.5)*4)
		high := math.Max(open, open+rng.next()*volatility)
		low := math.Max(5, math.Min(open, open-rng.next()*volatility))
		cl := clamp(open+drift, low, high)
		volume := int64(math.Floor(100000 + rng.next()*900000))

		bars = append(bars, models.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   util.Round2(open),
			High:   util.Round2(high),
			Low:    util.Round2(low),
			Close:  util.Round2(cl),
			Volume: volume,
		})
		price = cl
	}
	return bars
}

// Seed folds the UTF-16 code units of symbol into a 32-bit seed (seed*31 + unit).
func Seed(symbol string) uint32 {
	var seed uint32
	for _, u := range utf16.Encode([]rune(symbol)) {
		seed = seed*31 + uint32(u)
	}
	return seed
}

// xorshift is Marsaglia's 32-bit xorshift with shifts 13/17/5.
type xorshift struct {
	s uint32
}

func newXorshift(seed uint32) *xorshift {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &xorshift{s: seed}
}

// next returns a value in [0, 1).
func (x *xorshift) next() float64 {
	x.s ^= x.s << 13
	x.s ^= x.s >> 17
	x.s ^= x.s << 5
	return float64(x.s) / 4294967296.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
