// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perMinute int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	l := New(perMinute)
	l.now = clock.now
	l.lastRefill = clock.t
	return l, clock
}

func TestConsumeNeverNegative(t *testing.T) {
	l, _ := newTestLimiter(3)

	for i := 0; i < 10; i++ {
		l.Consume()
	}

	assert.Equal(t, 0, l.Remaining())
	assert.False(t, l.CanExecute())
}

func TestRemainingNeverExceedsCap(t *testing.T) {
	l, clock := newTestLimiter(5)

	// A full bucket left idle must not overflow.
	clock.advance(10 * time.Minute)
	assert.Equal(t, 5, l.Remaining())

	l.Consume()
	clock.advance(30 * time.Minute)
	assert.Equal(t, 5, l.Remaining())
}

func TestLazyRefillWholeMinutes(t *testing.T) {
	l, clock := newTestLimiter(10)

	for i := 0; i < 10; i++ {
		l.Consume()
	}
	assert.Equal(t, 0, l.Remaining())

	// Under 1/10 of a minute: no whole token earned yet.
	clock.advance(5 * time.Second)
	assert.Equal(t, 0, l.Remaining())
	assert.False(t, l.CanExecute())

	// 30s at 10/min = 5 tokens.
	clock.advance(25 * time.Second)
	assert.Equal(t, 5, l.Remaining())
	assert.True(t, l.CanExecute())
}

func TestRefillProportionalToElapsed(t *testing.T) {
	l, clock := newTestLimiter(60)

	for i := 0; i < 60; i++ {
		l.Consume()
	}

	clock.advance(7 * time.Second)
	assert.Equal(t, 7, l.Remaining())

	l.Consume()
	l.Consume()
	assert.Equal(t, 5, l.Remaining())
}

func TestNonPositiveCapacity(t *testing.T) {
	l := New(0)
	assert.Equal(t, 1, l.PerMinute())
	assert.True(t, l.CanExecute())
}
