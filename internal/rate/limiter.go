// Package rate provides a fixed-window request limiter, used to
// throttle login attempts per client IP.
package rate

import (
	"sync"
	"time"
)

type Limiter interface {
	// Allow reports whether one more event is permitted for key within
	// the window, and how long until the window resets.
	Allow(key string, limit int, window time.Duration) (bool, time.Duration)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps per-key fixed windows in process memory. Expired
// windows are pruned lazily on the next Allow call for any key, so the
// map stays bounded by the set of recently active keys.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	lastPrune time.Time
}

func NewMemory() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window)}
}

func (m *MemoryLimiter) Allow(key string, limit int, dur time.Duration) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.prune(now)

	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(dur)}
		m.windows[key] = w
	}

	if w.count >= limit {
		return false, time.Until(w.resetAt)
	}
	w.count++
	return true, time.Until(w.resetAt)
}

func (m *MemoryLimiter) prune(now time.Time) {
	if now.Sub(m.lastPrune) < time.Minute {
		return
	}
	m.lastPrune = now
	for key, w := range m.windows {
		if now.After(w.resetAt) {
			delete(m.windows, key)
		}
	}
}
