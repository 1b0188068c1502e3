// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SearchFilters refines a search call. Immutable per call; the zero value
// means "no refinement".
type SearchFilters struct {
	// Limit caps the number of results returned (default 20).
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`

	// YearFrom and YearTo bound the publication year, inclusive.
	YearFrom int `json:"year_from,omitempty" yaml:"year_from,omitempty"`
	YearTo   int `json:"year_to,omitempty" yaml:"year_to,omitempty"`

	// Domains narrows the adapter set to providers registered for these
	// topical tags (e.g. "solar-energy").
	Domains []string `json:"domains,omitempty" yaml:"domains,omitempty"`

	// Sources is an explicit adapter allow-list by name.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// MinCitations drops results below this citation count.
	MinCitations int `json:"min_citations,omitempty" yaml:"min_citations,omitempty"`

	// OpenAccessOnly drops subscription-access results.
	OpenAccessOnly bool `json:"open_access_only,omitempty" yaml:"open_access_only,omitempty"`

	// SessionID is an opaque context passthrough for activity logging.
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
}

// SearchResult is a single adapter's search output.
type SearchResult struct {
	Sources    []Source      `json:"sources" yaml:"sources"`
	Total      int           `json:"total" yaml:"total"`
	SearchTime time.Duration `json:"search_time" yaml:"search_time"`
	Query      string        `json:"query" yaml:"query"`
	Filters    SearchFilters `json:"filters" yaml:"filters"`

	// From names the adapter that produced this result.
	From string `json:"from" yaml:"from"`
}

// SourceOutcome is the per-adapter breakdown inside an aggregated result.
// A failed adapter has Success false, a non-empty Err, and Count zero.
type SourceOutcome struct {
	Success    bool          `json:"success" yaml:"success"`
	Count      int           `json:"count" yaml:"count"`
	SearchTime time.Duration `json:"search_time" yaml:"search_time"`
	Err        string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// AggregatedResult is the registry's merged search output. It is always
// well-formed: partial adapter failures are recorded in BySource and never
// surface as an error from the aggregate call.
type AggregatedResult struct {
	Sources    []Source      `json:"sources" yaml:"sources"`
	Total      int           `json:"total" yaml:"total"`
	SearchTime time.Duration `json:"search_time" yaml:"search_time"`
	Query      string        `json:"query" yaml:"query"`
	Filters    SearchFilters `json:"filters" yaml:"filters"`

	BySource map[string]SourceOutcome `json:"by_source" yaml:"by_source"`

	// DeduplicatedCount is how many merged results were dropped as
	// duplicates of a higher-quality record.
	DeduplicatedCount int `json:"deduplicated_count" yaml:"deduplicated_count"`

	// ExpandedQueries reports the query variants the planner computed.
	// Whether they were dispatched depends on the registry's expansion
	// setting.
	ExpandedQueries []string `json:"expanded_queries,omitempty" yaml:"expanded_queries,omitempty"`
}

// RateLimitInfo exposes an adapter's current request budget.
type RateLimitInfo struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
	Remaining         int `json:"remaining" yaml:"remaining"`
}
