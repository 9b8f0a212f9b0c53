package ratelimit

import (
	"sync"
	"time"
)

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type record struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window in-memory rate limiter with lazy expiry.
// Expired records are evicted on next access to their key; Prune sweeps the
// rest and only bounds memory, it is not correctness-critical. The limiter
// is process-local: a distributed deployment multiplies the effective limit
// by the instance count.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	records map[string]*record

	now func() time.Time
}

// NewLimiter builds a limiter allowing maxRequests per window per identifier.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		max:     maxRequests,
		window:  window,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Allow performs an atomic check-and-increment for the identifier. Once a
// window is exhausted, further calls within it are rejected without
// incrementing, so repeated calls during a blocked window do not corrupt
// state.
func (l *Limiter) Allow(identifier string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.records[identifier]
	if !ok || now.After(rec.resetAt) {
		rec = &record{count: 1, resetAt: now.Add(l.window)}
		l.records[identifier] = rec
		return Result{Allowed: true, Remaining: l.max - 1, ResetAt: rec.resetAt}
	}

	if rec.count < l.max {
		rec.count++
		return Result{Allowed: true, Remaining: l.max - rec.count, ResetAt: rec.resetAt}
	}

	return Result{Allowed: false, Remaining: 0, ResetAt: rec.resetAt}
}

// Prune removes all records whose window has elapsed and reports how many
// were dropped. The hosting application schedules this; the limiter starts
// no timers of its own.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, rec := range l.records {
		if now.After(rec.resetAt) {
			delete(l.records, key)
			removed++
		}
	}
	return removed
}

// Size reports the number of tracked identifiers.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
