package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"ChartFeed/pkg/cache"
)

func TestLimiterRefill(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	if !l.Allow("ip", 2, 1) || !l.Allow("ip", 2, 1) {
		t.Fatalf("expected initial burst to pass")
	}
	if l.Allow("ip", 2, 1) {
		t.Fatalf("expected empty bucket to reject")
	}
	if !l.Allow("other", 2, 1) {
		t.Fatalf("keys must not share buckets")
	}
	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("ip", 2, 1) {
		t.Fatalf("expected refill after 1.5s")
	}
}

func TestWindowLimitsPerMinute(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 0, 5, 0, time.UTC)
	clock := func() time.Time { return now }
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0), cache.WithMemoryClock(clock))
	defer mc.Close()
	w := NewWindow(mc, 2, WithWindowClock(clock))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := w.Allow(ctx, "live-json"); err != nil {
			t.Fatalf("call %d: unexpected error %v", i, err)
		}
	}
	if err := w.Allow(ctx, "live-json"); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited, got %v", err)
	}
	if err := w.Allow(ctx, "live-table"); err != nil {
		t.Fatalf("other key must have its own window: %v", err)
	}

	now = now.Add(time.Minute)
	if err := w.Allow(ctx, "live-json"); err != nil {
		t.Fatalf("expected new window to allow, got %v", err)
	}
}

func TestWindowDisabled(t *testing.T) {
	var w *Window
	if err := w.Allow(context.Background(), "x"); err != nil {
		t.Fatalf("nil window must allow")
	}
	if err := NewWindow(nil, 5).Allow(context.Background(), "x"); err != nil {
		t.Fatalf("window without counter must allow")
	}
}
