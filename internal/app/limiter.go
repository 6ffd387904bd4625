package app

import (
	"sync"
	"time"
)

// DefaultSubmitInterval is the minimum gap between accepted answer
// submissions from a single connection
const DefaultSubmitInterval = time.Second

// SubmitLimiter is a soft per-connection throttle. Actions arriving inside
// the interval are silently dropped, never surfaced as errors.
type SubmitLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// NewSubmitLimiter creates a limiter with the given interval
func NewSubmitLimiter(interval time.Duration) *SubmitLimiter {
	if interval <= 0 {
		interval = DefaultSubmitInterval
	}
	return &SubmitLimiter{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether the action may proceed, recording the acceptance
// time when it does
func (l *SubmitLimiter) Allow(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if prev, ok := l.last[id]; ok && now.Sub(prev) < l.interval {
		return false
	}

	l.last[id] = now
	return true
}

// Forget drops the tracked timestamp for a departed connection
func (l *SubmitLimiter) Forget(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.last, id)
}
