// Package ratelimiter implements a per-client fixed-window request limiter.
package ratelimiter

import (
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

type FixedWindowRateLimiter struct {
	windows map[string]*window
	limit   int
	size    time.Duration
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func NewFixedWindowRateLimiter(limit int, size time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		size:    size,
		done:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether the client identified by key may proceed, and if not,
// how long until its window resets.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		rl.windows[key] = &window{count: 1, resetAt: now.Add(rl.size)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, time.Until(w.resetAt)
	}

	w.count++
	return true, 0
}

func (rl *FixedWindowRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.size)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

func (rl *FixedWindowRateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}
