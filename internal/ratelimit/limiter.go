// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit implements the token bucket that paces each adapter's
// upstream calls.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket holding up to RequestsPerMinute tokens. Tokens
// refill lazily before every read or consume: floor(minutesElapsed *
// requestsPerMinute) tokens are added, capped at the per-minute budget. The
// count never goes negative and Consume never blocks.
type Limiter struct {
	mu         sync.Mutex
	perMinute  int
	tokens     int
	lastRefill time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// New returns a full bucket with the given per-minute capacity. A
// non-positive capacity is treated as 1.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	l := &Limiter{
		perMinute: requestsPerMinute,
		tokens:    requestsPerMinute,
		now:       time.Now,
	}
	l.lastRefill = l.now()
	return l
}

// refill adds tokens for the whole minutes elapsed since the last refill.
// Caller holds the lock.
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill)
	add := int(int64(elapsed) * int64(l.perMinute) / int64(time.Minute))
	if add <= 0 {
		return
	}
	l.tokens += add
	if l.tokens > l.perMinute {
		l.tokens = l.perMinute
	}
	l.lastRefill = now
}

// CanExecute reports whether at least one token is available.
func (l *Limiter) CanExecute() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens > 0
}

// Consume spends one token if any remain. It never blocks and never drives
// the count negative; consuming an empty bucket is a no-op.
func (l *Limiter) Consume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	if l.tokens > 0 {
		l.tokens--
	}
}

// Remaining refills and returns the current token count.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}

// PerMinute returns the bucket capacity.
func (l *Limiter) PerMinute() int {
	return l.perMinute
}
