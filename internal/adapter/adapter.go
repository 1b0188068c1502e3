// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adapter defines the contract every data-source integration
// satisfies and the base client that wraps provider calls with caching,
// rate limiting, circuit breaking, and timeouts.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Adapter is the common capability interface over one external provider.
// Implementations are polymorphic producers of normalized Source records;
// the registry never needs to know which provider is behind the interface.
type Adapter interface {
	// Name is the stable unique identifier for the provider.
	Name() string

	// Domains lists the topical tags this provider is relevant to.
	Domains() []string

	// Search returns normalized results for a query. Zero results is a
	// valid success, distinct from an error.
	Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error)

	// Details fetches one record by provider-specific ID. A missing
	// record returns (nil, nil), not an error.
	Details(ctx context.Context, id string) (*types.Source, error)

	// RateLimit exposes the current request budget.
	RateLimit() types.RateLimitInfo

	// Available is a cheap check (usually key presence) used to decide
	// whether to include the adapter in a fan-out at all.
	Available(ctx context.Context) bool
}

// DataSourceError wraps an unrecoverable provider failure with the adapter
// name and the underlying cause.
type DataSourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *DataSourceError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// RateLimitError reports an exhausted token bucket. The call was not made;
// the caller must back off and retry later.
type RateLimitError struct {
	Source    string
	Remaining int
	PerMinute int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded (%d of %d requests remaining this minute)",
		e.Source, e.Remaining, e.PerMinute)
}

// CircuitOpenError reports that the provider is currently isolated after
// repeated failures. Calls fail fast until the breaker's reset timeout.
type CircuitOpenError struct {
	Source string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("%s: circuit open, upstream temporarily isolated", e.Source)
}

// TimeoutError distinguishes "took too long" from other transport failures.
type TimeoutError struct {
	Source  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: request timed out after %dms", e.Source, e.Timeout.Milliseconds())
}
