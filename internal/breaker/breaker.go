// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package breaker implements the circuit breaker that isolates a failing
// upstream from the parallel fan-out. Each adapter owns one breaker.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// State is the breaker's position in the closed/open/half-open cycle.
type State int

const (
	// Closed lets calls through; consecutive failures are counted.
	Closed State = iota
	// Open fails calls fast until the reset timeout elapses.
	Open
	// HalfOpen lets a bounded number of probe calls decide recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without invoking the upstream while the circuit is
// open or all half-open probe slots are taken.
var ErrOpen = errors.New("circuit breaker open")

// Stats counts outcomes observed by the breaker.
type Stats struct {
	Failures  int
	Successes int
}

// Breaker transitions closed → open after failureThreshold consecutive
// failures, open → half-open after resetTimeout, and half-open → closed or
// back to open depending on the probe outcome. At most halfOpenAttempts
// probes run while half-open.
type Breaker struct {
	mu               sync.Mutex
	failureThreshold int
	resetTimeout     time.Duration
	halfOpenAttempts int

	state    State
	failures int
	openedAt time.Time
	probes   int
	stats    Stats

	// now is replaceable in tests.
	now func() time.Time
}

// New returns a closed breaker. Non-positive arguments fall back to a
// threshold of 5, a 30s reset timeout, and 1 half-open probe.
func New(failureThreshold int, resetTimeout time.Duration, halfOpenAttempts int) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	if halfOpenAttempts <= 0 {
		halfOpenAttempts = 1
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		halfOpenAttempts: halfOpenAttempts,
		state:            Closed,
		now:              time.Now,
	}
}

// Execute runs fn under breaker control. While open it returns ErrOpen
// without calling fn; once the reset timeout has elapsed it admits fn as a
// half-open probe. fn's error is returned as-is so callers can wrap it.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.record(err == nil)
	return err
}

// admit decides whether a call may proceed, moving open → half-open when
// the reset timeout has elapsed.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return ErrOpen
		}
		b.state = HalfOpen
		b.probes = 0
		fallthrough
	case HalfOpen:
		if b.probes >= b.halfOpenAttempts {
			return ErrOpen
		}
		b.probes++
	}
	return nil
}

// record applies a call outcome to the state machine.
func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.stats.Successes++
		b.failures = 0
		if b.state == HalfOpen {
			b.state = Closed
		}
		return
	}

	b.stats.Failures++
	b.failures++
	if b.state == HalfOpen || b.failures >= b.failureThreshold {
		b.state = Open
		b.openedAt = b.now()
	}
}

// IsOperational reports whether a call would currently be admitted.
func (b *Breaker) IsOperational() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open && b.now().Sub(b.openedAt) >= b.resetTimeout {
		return true
	}
	return b.state != Open
}

// GetState returns the current state, accounting for an elapsed reset
// timeout.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open && b.now().Sub(b.openedAt) >= b.resetTimeout {
		return HalfOpen
	}
	return b.state
}

// GetStats returns cumulative success and failure counts.
func (b *Breaker) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
