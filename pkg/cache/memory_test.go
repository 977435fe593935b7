package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheCounterExpiry(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryCleanup(0), WithMemoryClock(func() time.Time { return now }))
	defer mc.Close()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := mc.Increment(ctx, "k")
		if err != nil || got != want {
			t.Fatalf("Increment = %d, %v; want %d", got, err, want)
		}
	}
	if err := mc.Expire(ctx, "k", time.Minute); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if n, err := mc.Count(ctx, "k"); err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := mc.Count(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
	if got, _ := mc.Increment(ctx, "k"); got != 1 {
		t.Fatalf("expected counter to restart at 1, got %d", got)
	}
}

func TestMemoryCacheEvictsWhenFull(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryCleanup(0), WithMemoryMaxKeys(2), WithMemoryClock(func() time.Time { return now }))
	defer mc.Close()
	ctx := context.Background()

	_, _ = mc.Increment(ctx, "a")
	_ = mc.Expire(ctx, "a", time.Second)
	_, _ = mc.Increment(ctx, "b")
	_ = mc.Expire(ctx, "b", time.Hour)
	_, _ = mc.Increment(ctx, "c")

	if _, err := mc.Count(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected soonest-expiring key to be evicted")
	}
	if n, _ := mc.Count(ctx, "c"); n != 1 {
		t.Fatalf("expected new key to be stored")
	}
}

func TestGenerateKey(t *testing.T) {
	if got := GenerateKey("chartfeed", "x"); got != "chartfeed:x" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := GenerateKey("", "x"); got != "x" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := GenerateKeyWithParams("upstream", "live-json", 42); got != "upstream:live-json:42" {
		t.Fatalf("unexpected key %s", got)
	}
}
