// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pdiddy/discovery-engine/internal/breaker"
	"github.com/pdiddy/discovery-engine/internal/cache"
	"github.com/pdiddy/discovery-engine/internal/httputil"
	"github.com/pdiddy/discovery-engine/internal/ratelimit"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Defaults are a provider's built-in pacing characteristics. Config values
// override them per adapter.
type Defaults struct {
	RequestsPerMinute int
	CacheTTL          time.Duration
	Timeout           time.Duration
}

// Client bundles the per-adapter resilience state: an HTTP client, a token
// bucket, a circuit breaker, and a response cache per operation. Concrete
// adapters embed it and supply only the provider protocol.
type Client struct {
	source     string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	cacheTTL   time.Duration

	limiter  *ratelimit.Limiter
	breaker  *breaker.Breaker
	searches *cache.Cache[types.SearchResult]
	details  *cache.Cache[*types.Source]
}

// NewClient builds the resilience wrapper for one provider, applying config
// overrides on top of the adapter's defaults.
func NewClient(source string, def Defaults, cfg types.AdapterConfig, httpCfg types.HTTPConfig, brkCfg types.BreakerConfig) *Client {
	perMinute := def.RequestsPerMinute
	if cfg.RequestsPerMinute > 0 {
		perMinute = cfg.RequestsPerMinute
	}
	ttl := def.CacheTTL
	if cfg.CacheTTL > 0 {
		ttl = cfg.CacheTTL
	}
	timeout := httpCfg.Timeout
	if def.Timeout > 0 {
		timeout = def.Timeout
	}
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		source:     source,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  httpCfg.UserAgent,
		timeout:    timeout,
		cacheTTL:   ttl,
		limiter:    ratelimit.New(perMinute),
		breaker:    breaker.New(brkCfg.FailureThreshold, brkCfg.ResetTimeout, brkCfg.HalfOpenAttempts),
		searches:   cache.New[types.SearchResult](),
		details:    cache.New[*types.Source](),
	}
}

// Source returns the provider name the client was built for.
func (c *Client) Source() string { return c.source }

// RateLimit exposes the token bucket for status reporting.
func (c *Client) RateLimit() types.RateLimitInfo {
	return types.RateLimitInfo{
		RequestsPerMinute: c.limiter.PerMinute(),
		Remaining:         c.limiter.Remaining(),
	}
}

// BreakerState returns the circuit breaker's current state string.
func (c *Client) BreakerState() string { return c.breaker.GetState().String() }

// CacheStats merges the search and details cache statistics.
func (c *Client) CacheStats() cache.Stats {
	s := c.searches.GetStats()
	d := c.details.GetStats()
	return cache.Stats{
		Size:      s.Size + d.Size,
		TotalHits: s.TotalHits + d.TotalHits,
		Keys:      append(s.Keys, d.Keys...),
	}
}

// ClearCache drops all cached responses.
func (c *Client) ClearCache() {
	c.searches.Clear()
	c.details.Clear()
}

// CleanupCache sweeps expired entries from both caches and returns the
// number removed.
func (c *Client) CleanupCache() int {
	return c.searches.Cleanup() + c.details.Cleanup()
}

// Get issues a GET with the shared User-Agent and 429 backoff. Extra
// headers, when non-nil, are applied after the defaults. The caller owns
// the response body.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return httputil.DoWithRetry(ctx, c.httpClient, req, 0)
}

type searchParams struct {
	Query   string              `json:"query"`
	Filters types.SearchFilters `json:"filters"`
}

// SearchOp runs fetch through the full resilience pipeline and caches the
// result keyed by query and filters. Attribution and timing are filled in
// here so adapters only produce sources.
func (c *Client) SearchOp(ctx context.Context, query string, filters types.SearchFilters,
	fetch func(ctx context.Context) (types.SearchResult, error)) (types.SearchResult, error) {
	start := time.Now()
	res, err := run(ctx, c, c.searches, "search", searchParams{Query: query, Filters: filters}, fetch)
	if err != nil {
		return types.SearchResult{}, err
	}
	res.Query = query
	res.Filters = filters
	res.From = c.source
	res.SearchTime = time.Since(start)
	return res, nil
}

// DetailsOp is SearchOp's counterpart for single-record lookups. A cached
// nil means the provider previously reported the record missing.
func (c *Client) DetailsOp(ctx context.Context, id string,
	fetch func(ctx context.Context) (*types.Source, error)) (*types.Source, error) {
	return run(ctx, c, c.details, "details", id, fetch)
}

// run is the shared call pipeline: cache lookup, rate-limit admission,
// breaker-guarded timeout-bounded fetch, then token consumption and cache
// fill on success. Failures come back as the package's typed errors.
func run[T any](ctx context.Context, c *Client, cch *cache.Cache[T], op string, params any,
	fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	key := cache.Key(c.source+"."+op, params)
	if v, ok := cch.Get(key); ok {
		return v, nil
	}

	if !c.limiter.CanExecute() {
		return zero, &RateLimitError{
			Source:    c.source,
			Remaining: c.limiter.Remaining(),
			PerMinute: c.limiter.PerMinute(),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result T
	err := c.breaker.Execute(func() error {
		v, fetchErr := fetch(callCtx)
		if fetchErr != nil {
			return fetchErr
		}
		result = v
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, breaker.ErrOpen):
			return zero, &CircuitOpenError{Source: c.source}
		case errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded:
			return zero, &TimeoutError{Source: c.source, Timeout: c.timeout}
		default:
			return zero, &DataSourceError{Source: c.source, Op: op, Err: err}
		}
	}

	c.limiter.Consume()
	cch.Set(key, result, c.cacheTTL)
	return result, nil
}
