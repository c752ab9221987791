package application

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitEntry is the counter of one identifier inside its window.
type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

// RateLimiter is a fixed-window limiter keyed by identifier (client IP,
// session id).
type RateLimiter struct {
	limits map[string]*RateLimitEntry
	mu     sync.RWMutex
	window time.Duration
	limit  int
	now    func() time.Time
}

// NewRateLimiter allows limit requests per identifier in every window.
// Expired entries are swept lazily on Allow.
func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		limits: make(map[string]*RateLimitEntry),
		window: window,
		limit:  limit,
		now:    time.Now,
	}
}

// Allow counts one request for identifier and reports whether it fits in the
// current window.
func (rl *RateLimiter) Allow(identifier string) (bool, error) {
	if identifier == "" {
		identifier = "anonymous"
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.limits[identifier]

	if !exists || now.After(entry.ResetTime) {
		if len(rl.limits) > 1024 {
			rl.sweep(now)
		}
		rl.limits[identifier] = &RateLimitEntry{
			Count:     1,
			ResetTime: now.Add(rl.window),
		}
		return true, nil
	}

	if entry.Count >= rl.limit {
		timeUntilReset := entry.ResetTime.Sub(now)
		return false, fmt.Errorf("rate limit exceeded, retry in %v", timeUntilReset.Round(time.Second))
	}

	entry.Count++
	return true, nil
}

// GetRemaining returns how many requests identifier has left in its window.
func (rl *RateLimiter) GetRemaining(identifier string) int {
	if identifier == "" {
		identifier = "anonymous"
	}

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	entry, exists := rl.limits[identifier]
	if !exists || rl.now().After(entry.ResetTime) {
		return rl.limit
	}

	remaining := rl.limit - entry.Count
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (rl *RateLimiter) sweep(now time.Time) {
	for key, entry := range rl.limits {
		if now.After(entry.ResetTime) {
			delete(rl.limits, key)
		}
	}
}

func (rl *RateLimiter) Size() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	return len(rl.limits)
}
