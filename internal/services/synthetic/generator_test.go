package synthetic

import (
	"reflect"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSeedFold(t *testing.T) {
	cases := map[string]uint32{
		"":   0,
		"A":  65,
		"AB": 65*31 + 66,
	}
	for in, want := range cases {
		if got := Seed(in); got != want {
			t.Fatalf("Seed(%q) = %d, want %d", in, got, want)
		}
	}
	// wraps modulo 2^32 instead of overflowing
	long := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var want uint32
	for _, c := range long {
		want = want*31 + uint32(c)
	}
	if got := Seed(long); got != want {
		t.Fatalf("Seed(long) = %d, want %d", got, want)
	}
}

func TestXorshiftZeroSeedUsesDefault(t *testing.T) {
	a := newXorshift(0)
	b := newXorshift(DefaultSeed)
	for i := 0; i < 10; i++ {
		va, vb := a.next(), b.next()
		if va != vb {
			t.Fatalf("step %d: %v != %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("value out of [0,1): %v", va)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	now := time.Date(2026, 10, 17, 13, 45, 0, 0, time.UTC)
	g := New(WithClock(fixedClock(now)))

	first := g.Generate("NEPSE", 5)
	second := g.Generate("NEPSE", 5)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical sequences")
	}

	// later the same day: still identical
	later := New(WithClock(fixedClock(now.Add(9 * time.Hour)))).Generate("NEPSE", 5)
	if !reflect.DeepEqual(first, later) {
		t.Fatalf("expected identical sequences within the same day")
	}

	other := g.Generate("NABIL", 5)
	if reflect.DeepEqual(first, other) {
		t.Fatalf("expected different sequences for different symbols")
	}
}

func TestGenerateDates(t *testing.T) {
	now := time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC)
	bars := New(WithClock(fixedClock(now))).Generate("NEPSE", 5)
	if len(bars) != 5 {
		t.Fatalf("expected 5 bars, got %d", len(bars))
	}
	start := time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)
	for i, b := range bars {
		want := start.AddDate(0, 0, i)
		if !b.Date.Equal(want) {
			t.Fatalf("bar %d date %v, want %v", i, b.Date, want)
		}
	}
}

func TestGenerateInvariants(t *testing.T) {
	g := New(WithClock(fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))
	for _, sym := range []string{"NEPSE", "NABIL", "A", "", "ÄÖÜ", "日本"} {
		bars := g.Generate(sym, 720)
		if len(bars) != 720 {
			t.Fatalf("%q: expected 720 bars, got %d", sym, len(bars))
		}
		for i, b := range bars {
			if !b.Valid() {
				t.Fatalf("%q bar %d violates OHLC invariant: %+v", sym, i, b)
			}
			if b.Open < 50 || b.Low < 5 {
				t.Fatalf("%q bar %d below floors: %+v", sym, i, b)
			}
			if b.Volume < 100000 || b.Volume >= 1000000 {
				t.Fatalf("%q bar %d volume out of range: %d", sym, i, b.Volume)
			}
			if i > 0 && !b.Date.After(bars[i-1].Date) {
				t.Fatalf("%q dates not ascending at %d", sym, i)
			}
		}
	}
}

func TestGenerateNonPositive(t *testing.T) {
	g := New()
	if bars := g.Generate("NEPSE", 0); bars != nil {
		t.Fatalf("expected nil for zero days")
	}
	if bars := g.Generate("NEPSE", -3); bars != nil {
		t.Fatalf("expected nil for negative days")
	}
}
