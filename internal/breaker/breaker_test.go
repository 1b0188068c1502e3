// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream boom")

func newTestBreaker(threshold int, reset time.Duration, probes int) (*Breaker, *time.Time) {
	b := New(threshold, reset, probes)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func fail() error    { return errUpstream }
func succeed() error { return nil }

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second, 1)

	for i := 0; i < 3; i++ {
		assert.True(t, b.IsOperational())
		err := b.Execute(fail)
		assert.ErrorIs(t, err, errUpstream)
	}

	assert.False(t, b.IsOperational())
	assert.Equal(t, Open, b.GetState())

	// Calls now fail fast without reaching the upstream.
	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second, 1)

	require.Error(t, b.Execute(fail))
	require.Error(t, b.Execute(fail))
	require.NoError(t, b.Execute(succeed))
	require.Error(t, b.Execute(fail))
	require.Error(t, b.Execute(fail))

	// Never three in a row, so still closed.
	assert.Equal(t, Closed, b.GetState())
}

func TestHalfOpenProbeCloses(t *testing.T) {
	b, now := newTestBreaker(2, 30*time.Second, 1)

	require.Error(t, b.Execute(fail))
	require.Error(t, b.Execute(fail))
	require.Equal(t, Open, b.GetState())

	// After the reset timeout a probe is attempted instead of failing fast.
	*now = now.Add(31 * time.Second)
	assert.True(t, b.IsOperational())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, Closed, b.GetState())
}

func TestHalfOpenProbeReopens(t *testing.T) {
	b, now := newTestBreaker(2, 30*time.Second, 1)

	require.Error(t, b.Execute(fail))
	require.Error(t, b.Execute(fail))

	*now = now.Add(31 * time.Second)
	require.ErrorIs(t, b.Execute(fail), errUpstream)
	assert.Equal(t, Open, b.GetState())

	// The reopen restarts the reset clock.
	*now = now.Add(10 * time.Second)
	assert.ErrorIs(t, b.Execute(succeed), ErrOpen)
}

func TestHalfOpenProbeBudget(t *testing.T) {
	b, now := newTestBreaker(1, 30*time.Second, 2)

	require.Error(t, b.Execute(fail))
	*now = now.Add(31 * time.Second)

	// The probe budget admits two slow probes; a third is rejected.
	// Exercise admit/record directly to model in-flight probes.
	require.NoError(t, b.admit())
	require.NoError(t, b.admit())
	assert.ErrorIs(t, b.admit(), ErrOpen)

	b.record(true)
	assert.Equal(t, Closed, b.GetState())
}

func TestStats(t *testing.T) {
	b, _ := newTestBreaker(5, 30*time.Second, 1)

	require.NoError(t, b.Execute(succeed))
	require.NoError(t, b.Execute(succeed))
	require.Error(t, b.Execute(fail))

	stats := b.GetStats()
	assert.Equal(t, 2, stats.Successes)
	assert.Equal(t, 1, stats.Failures)
}
