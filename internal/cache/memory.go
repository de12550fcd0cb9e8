// Package cache holds short lived values in memory.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrNotFound = errors.New("cache entry not found")

type entry[V any] struct {
	expiresAt time.Time
	v         V
}

func (e entry[V]) isExpired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Memory is a key value store whose entries expire after a TTL. Expired
// entries are evicted on read and by a background loop.
type Memory[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemory returns a cache evicting expired entries every second until ctx
// is done.
func NewMemory[V any](ctx context.Context, defaultTTL time.Duration) *Memory[V] {
	cache := &Memory[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}

	go cache.expirer(ctx, time.Second)

	return cache
}

// Set stores v under k. The optional ttl overrides the cache default.
func (m *Memory[V]) Set(k string, v V, ttl ...time.Duration) {
	expiresIn := m.defaultTTL
	if len(ttl) > 0 {
		expiresIn = ttl[0]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[k] = entry[V]{
		expiresAt: m.now().Add(expiresIn),
		v:         v,
	}
	slog.Debug("new cache entry", "key", k, "ttl", expiresIn)
}

func (m *Memory[V]) Get(k string) (v V, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, found := m.entries[k]
	if !found {
		return v, ErrNotFound
	}

	if e.isExpired(m.now()) {
		slog.Debug("cache expired", "key", k)
		delete(m.entries, k)
		return v, ErrNotFound
	}

	return e.v, nil
}

// GetOrSet returns the value stored under key, computing and storing it with
// valueFunc when missing or expired.
func (m *Memory[V]) GetOrSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (V, error), ttl ...time.Duration) (v V, err error) {
	v, err = m.Get(key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return v, err
	}

	v, err = valueFunc(ctx)
	if err != nil {
		return v, err
	}

	m.Set(key, v, ttl...)
	return v, nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory[V]) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if e.isExpired(now) {
			slog.Debug("cache expired", "key", k)
			delete(m.entries, k)
		}
	}
}

func (m *Memory[V]) expirer(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}
