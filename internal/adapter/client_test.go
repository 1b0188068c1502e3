// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func newTestClient(t *testing.T, cfg types.AdapterConfig, brk types.BreakerConfig) *Client {
	t.Helper()
	def := Defaults{RequestsPerMinute: 30, CacheTTL: time.Hour}
	httpCfg := types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "discovery-engine/test"}
	if brk.FailureThreshold == 0 {
		brk = types.BreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second, HalfOpenAttempts: 1}
	}
	return NewClient("testsource", def, cfg, httpCfg, brk)
}

func TestSearchOpCachesSuccesses(t *testing.T) {
	c := newTestClient(t, types.AdapterConfig{}, types.BreakerConfig{})

	calls := 0
	fetch := func(ctx context.Context) (types.SearchResult, error) {
		calls++
		return types.SearchResult{Total: 1, From: "testsource"}, nil
	}

	filters := types.SearchFilters{Limit: 5}
	res1, err := c.SearchOp(context.Background(), "perovskite", filters, fetch)
	require.NoError(t, err)
	res2, err := c.SearchOp(context.Background(), "perovskite", filters, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second identical call must be served from cache")
	assert.Equal(t, res1.Total, res2.Total)

	// A different query is a different cache key.
	_, err = c.SearchOp(context.Background(), "electrolysis", filters, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSearchOpFailuresAreNotCached(t *testing.T) {
	c := newTestClient(t, types.AdapterConfig{}, types.BreakerConfig{})

	calls := 0
	fetch := func(ctx context.Context) (types.SearchResult, error) {
		calls++
		if calls == 1 {
			return types.SearchResult{}, errors.New("flaky upstream")
		}
		return types.SearchResult{Total: 3}, nil
	}

	_, err := c.SearchOp(context.Background(), "q", types.SearchFilters{}, fetch)
	var dsErr *DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, "testsource", dsErr.Source)

	res, err := c.SearchOp(context.Background(), "q", types.SearchFilters{}, fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, calls)
}

func TestSearchOpRateLimit(t *testing.T) {
	c := newTestClient(t, types.AdapterConfig{RequestsPerMinute: 1}, types.BreakerConfig{})

	ok := func(ctx context.Context) (types.SearchResult, error) {
		return types.SearchResult{Total: 1}, nil
	}

	_, err := c.SearchOp(context.Background(), "first", types.SearchFilters{}, ok)
	require.NoError(t, err)

	_, err = c.SearchOp(context.Background(), "second", types.SearchFilters{}, ok)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 0, rlErr.Remaining)
	assert.Equal(t, 1, rlErr.PerMinute)

	// The cached first query still answers without a token.
	_, err = c.SearchOp(context.Background(), "first", types.SearchFilters{}, ok)
	assert.NoError(t, err)
}

func TestSearchOpFailuresDoNotConsumeTokens(t *testing.T) {
	c := newTestClient(t, types.AdapterConfig{RequestsPerMinute: 1}, types.BreakerConfig{})

	_, err := c.SearchOp(context.Background(), "q", types.SearchFilters{},
		func(ctx context.Context) (types.SearchResult, error) {
			return types.SearchResult{}, errors.New("boom")
		})
	require.Error(t, err)
	assert.Equal(t, 1, c.RateLimit().Remaining)
}

func TestSearchOpCircuitOpens(t *testing.T) {
	brk := types.BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute, HalfOpenAttempts: 1}
	c := newTestClient(t, types.AdapterConfig{}, brk)

	failing := func(ctx context.Context) (types.SearchResult, error) {
		return types.SearchResult{}, errors.New("down")
	}

	for i := 0; i < 2; i++ {
		_, err := c.SearchOp(context.Background(), "q", types.SearchFilters{}, failing)
		var dsErr *DataSourceError
		require.ErrorAs(t, err, &dsErr)
	}

	called := false
	_, err := c.SearchOp(context.Background(), "q", types.SearchFilters{},
		func(ctx context.Context) (types.SearchResult, error) {
			called = true
			return types.SearchResult{}, nil
		})
	var coErr *CircuitOpenError
	require.ErrorAs(t, err, &coErr)
	assert.False(t, called, "open circuit must fail fast")
	assert.Equal(t, "open", c.BreakerState())
}

func TestSearchOpTimeout(t *testing.T) {
	c := newTestClient(t, types.AdapterConfig{Timeout: 10 * time.Millisecond}, types.BreakerConfig{})

	_, err := c.SearchOp(context.Background(), "q", types.SearchFilters{},
		func(ctx context.Context) (types.SearchResult, error) {
			<-ctx.Done()
			return types.SearchResult{}, ctx.Err()
		})

	var toErr *TimeoutError
	require.ErrorAs(t, err, &toErr)
	assert.Contains(t, toErr.Error(), "timed out after 10ms")
}

func TestDetailsOpCachesMisses(t *testing.T) {
	c := newTestClient(t, types.AdapterConfig{}, types.BreakerConfig{})

	calls := 0
	fetch := func(ctx context.Context) (*types.Source, error) {
		calls++
		return nil, nil
	}

	src, err := c.DetailsOp(context.Background(), "testsource:missing", fetch)
	require.NoError(t, err)
	assert.Nil(t, src)

	// The negative answer is cached too.
	_, err = c.DetailsOp(context.Background(), "testsource:missing", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCacheStatsAndClear(t *testing.T) {
	c := newTestClient(t, types.AdapterConfig{}, types.BreakerConfig{})

	_, err := c.SearchOp(context.Background(), "q", types.SearchFilters{},
		func(ctx context.Context) (types.SearchResult, error) {
			return types.SearchResult{Total: 1}, nil
		})
	require.NoError(t, err)

	assert.Equal(t, 1, c.CacheStats().Size)
	c.ClearCache()
	assert.Equal(t, 0, c.CacheStats().Size)
}
