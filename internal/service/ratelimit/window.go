package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ChartFeed/internal/domain/repository"
	"ChartFeed/pkg/cache"
)

var ErrLimited = errors.New("rate limit exceeded")

// Window is a fixed one-minute window counter shared through a repository.Counter,
// so several replicas throttle the same upstream together when the counter lives in Redis.
type Window struct {
	counter   repository.Counter
	perMinute int64
	prefix    string
	now       func() time.Time
}

type WindowOption func(*Window)

// WithWindowPrefix namespaces the counter keys.
func WithWindowPrefix(prefix string) WindowOption {
	return func(w *Window) { w.prefix = prefix }
}

// WithWindowClock overrides the clock used to pick the current window.
func WithWindowClock(now func() time.Time) WindowOption {
	return func(w *Window) { w.now = now }
}

// NewWindow returns a limiter allowing perMinute calls per key. perMinute <= 0 disables it.
func NewWindow(counter repository.Counter, perMinute int, opts ...WindowOption) *Window {
	w := &Window{counter: counter, perMinute: int64(perMinute), prefix: "upstream", now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Allow consumes one slot for key in the current minute.
func (w *Window) Allow(ctx context.Context, key string) error {
	if w == nil || w.counter == nil || w.perMinute <= 0 {
		return nil
	}
	slot := w.now().Unix() / 60
	k := cache.GenerateKeyWithParams(w.prefix, key, slot)

	n, err := w.counter.Increment(ctx, k)
	if err != nil {
		return fmt.Errorf("rate counter: %w", err)
	}
	if n == 1 {
		if err := w.counter.Expire(ctx, k, 2*time.Minute); err != nil {
			return fmt.Errorf("rate counter expire: %w", err)
		}
	}
	if n > w.perMinute {
		return fmt.Errorf("%w: %s over %d/min", ErrLimited, key, w.perMinute)
	}
	return nil
}
