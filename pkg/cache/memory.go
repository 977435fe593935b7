package cache

import (
	"context"
	"sync"
	"time"
)

// counterItem stores a counter with expiration. A zero ExpireAt never expires.
type counterItem struct {
	Value    int64
	ExpireAt time.Time
}

func (m *counterItem) expired(now time.Time) bool {
	return !m.ExpireAt.IsZero() && now.After(m.ExpireAt)
}

// MemoryCache implements Service in process.
type MemoryCache struct {
	data    map[string]*counterItem
	mutex   sync.Mutex
	maxKeys int
	now     func() time.Time
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxKeys:         10000,
		CleanupInterval: time.Minute,
		Now:             time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:    make(map[string]*counterItem),
		maxKeys: cfg.MaxKeys,
		now:     cfg.Now,
		done:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		mc.ticker = time.NewTicker(cfg.CleanupInterval)
		go mc.cleanupExpired()
	}
	return mc
}

func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, exists := mc.data[key]
	if !exists || item.expired(now) {
		if !exists && mc.maxKeys > 0 && len(mc.data) >= mc.maxKeys {
			mc.evict(now)
		}
		item = &counterItem{}
		mc.data[key] = item
	}
	item.Value++
	return item.Value, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if item, ok := mc.data[key]; ok {
		item.ExpireAt = mc.now().Add(expiration)
	}
	return nil
}

func (mc *MemoryCache) Count(_ context.Context, key string) (int64, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	item, ok := mc.data[key]
	if !ok || item.expired(mc.now()) {
		return 0, ErrCacheMiss
	}
	return item.Value, nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

func (mc *MemoryCache) Ping(context.Context) error { return nil }

// evict drops expired counters, then the one expiring soonest if still full.
func (mc *MemoryCache) evict(now time.Time) {
	var victim string
	var soonest time.Time
	for key, item := range mc.data {
		if item.expired(now) {
			delete(mc.data, key)
			continue
		}
		if !item.ExpireAt.IsZero() && (soonest.IsZero() || item.ExpireAt.Before(soonest)) {
			soonest, victim = item.ExpireAt, key
		}
	}
	if len(mc.data) >= mc.maxKeys && victim != "" {
		delete(mc.data, victim)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.ticker.C:
			mc.mutex.Lock()
			now := mc.now()
			for key, item := range mc.data {
				if item.expired(now) {
					delete(mc.data, key)
				}
			}
			mc.mutex.Unlock()
		case <-mc.done:
			return
		}
	}
}

// Close stops the cleanup goroutine.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() {
		close(mc.done)
		if mc.ticker != nil {
			mc.ticker.Stop()
		}
	})
	return nil
}
