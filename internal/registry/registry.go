// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry aggregates the provider adapters: it routes queries to
// registered adapters, fans searches out in parallel, merges and
// deduplicates the results, and never lets one failing provider break an
// aggregate search.
package registry

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/discovery-engine/internal/adapter"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Registry holds the adapter set. Registration order is preserved so
// aggregate output is deterministic.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]adapter.Adapter
	order    []string

	maxResults       int
	primaryThreshold int
	expandQueries    bool
	warn             io.Writer
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxResults sets the default result cap for searches without an
// explicit limit.
func WithMaxResults(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithPrimaryThreshold sets the result count below which a smart search
// escalates to its secondary tier. Zero means "the effective limit".
func WithPrimaryThreshold(n int) Option {
	return func(r *Registry) { r.primaryThreshold = n }
}

// WithQueryExpansion dispatches expanded query variants to adapters
// instead of only reporting them.
func WithQueryExpansion(enabled bool) Option {
	return func(r *Registry) { r.expandQueries = enabled }
}

// WithWarnings directs adapter failure warnings to w.
func WithWarnings(w io.Writer) Option {
	return func(r *Registry) { r.warn = w }
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		adapters:   make(map[string]adapter.Adapter),
		maxResults: 20,
		warn:       io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an adapter under its own name. Re-registering a name
// replaces the adapter but keeps its position in the iteration order.
func (r *Registry) Register(a adapter.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := a.Name()
	if _, exists := r.adapters[name]; !exists {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

// Unregister removes an adapter and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[name]; !ok {
		return false
	}
	delete(r.adapters, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (adapter.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names lists registered adapters in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// ByDomain returns the adapters registered for a topical tag, in
// registration order.
func (r *Registry) ByDomain(domain string) []adapter.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []adapter.Adapter
	for _, name := range r.order {
		a := r.adapters[name]
		for _, d := range a.Domains() {
			if d == domain {
				matched = append(matched, a)
				break
			}
		}
	}
	return matched
}

// Details routes a provider-namespaced ID ("arxiv:2301.07041") to the
// owning adapter.
func (r *Registry) Details(ctx context.Context, id string) (*types.Source, error) {
	name, ok := splitSourceID(id)
	if !ok {
		return nil, fmt.Errorf("malformed source ID %q: want \"source:identifier\"", id)
	}
	a, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("no adapter registered for source %q", name)
	}
	return a.Details(ctx, id)
}

// SearchAll fans the query out to every eligible adapter in parallel and
// merges the results. Individual adapter failures are recorded in BySource;
// the aggregate result itself is always well-formed.
func (r *Registry) SearchAll(ctx context.Context, query string, filters types.SearchFilters) types.AggregatedResult {
	start := time.Now()

	expanded := expandQuery(query, matchDomains(query, filters.Domains))
	variants := []string(nil)
	if r.expandQueries {
		variants = expanded
	}

	sources, bySource := r.fanOut(ctx, r.selectAdapters(ctx, filters), query, filters, variants)

	result := r.finalize(query, filters, sources, bySource)
	result.ExpandedQueries = expanded
	result.SearchTime = time.Since(start)
	return result
}

// selectAdapters resolves the adapter set for a search: an explicit source
// allow-list wins, then domain routing, then every registered adapter.
// Adapters reporting themselves unavailable are skipped.
func (r *Registry) selectAdapters(ctx context.Context, filters types.SearchFilters) []adapter.Adapter {
	var candidates []adapter.Adapter

	switch {
	case len(filters.Sources) > 0:
		for _, name := range filters.Sources {
			a, ok := r.Get(name)
			if !ok {
				fmt.Fprintf(r.warn, "warning: unknown source %q requested\n", name)
				continue
			}
			candidates = append(candidates, a)
		}
	case len(filters.Domains) > 0:
		seen := make(map[string]bool)
		for _, domain := range filters.Domains {
			for _, a := range r.ByDomain(domain) {
				if !seen[a.Name()] {
					seen[a.Name()] = true
					candidates = append(candidates, a)
				}
			}
		}
	default:
		for _, name := range r.Names() {
			if a, ok := r.Get(name); ok {
				candidates = append(candidates, a)
			}
		}
	}

	eligible := candidates[:0]
	for _, a := range candidates {
		if a.Available(ctx) {
			eligible = append(eligible, a)
		}
	}
	return eligible
}

// fanOut runs the query (and any expanded variants) against each adapter
// concurrently, settling every call before returning. Variant failures are
// tolerated as long as the original query succeeded.
func (r *Registry) fanOut(ctx context.Context, adapters []adapter.Adapter, query string,
	filters types.SearchFilters, variants []string) ([]types.Source, map[string]types.SourceOutcome) {

	type outcome struct {
		name    string
		sources []types.Source
		elapsed time.Duration
		err     error
	}

	ch := make(chan outcome, len(adapters))
	var wg sync.WaitGroup

	for _, a := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			res, err := a.Search(ctx, query, filters)
			if err != nil {
				ch <- outcome{name: a.Name(), err: err}
				return
			}

			sources := res.Sources
			elapsed := res.SearchTime
			// Variant failures are tolerated once the original query
			// succeeded; the adapter already counts as answered.
			for _, variant := range variants {
				vres, verr := a.Search(ctx, variant, filters)
				if verr != nil {
					continue
				}
				sources = append(sources, vres.Sources...)
				elapsed += vres.SearchTime
			}
			ch <- outcome{name: a.Name(), sources: sources, elapsed: elapsed}
		}(a)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.Source
	bySource := make(map[string]types.SourceOutcome)
	for out := range ch {
		if out.err != nil {
			fmt.Fprintf(r.warn, "warning: source %s failed: %v\n", out.name, out.err)
			bySource[out.name] = types.SourceOutcome{Err: out.err.Error()}
			continue
		}
		bySource[out.name] = types.SourceOutcome{
			Success:    true,
			Count:      len(out.sources),
			SearchTime: out.elapsed,
		}
		all = append(all, out.sources...)
	}
	return all, bySource
}

// finalize applies record-level filters, deduplicates, ranks, and caps the
// merged source list.
func (r *Registry) finalize(query string, filters types.SearchFilters,
	sources []types.Source, bySource map[string]types.SourceOutcome) types.AggregatedResult {

	filtered := sources[:0]
	for _, s := range sources {
		if filters.MinCitations > 0 && s.Metadata.CitationCount < filters.MinCitations {
			continue
		}
		if filters.OpenAccessOnly && s.Metadata.Access != types.AccessOpen {
			continue
		}
		filtered = append(filtered, s)
	}

	deduped, removed := dedupe(filtered)
	sortByRelevance(deduped)
	if deduped == nil {
		deduped = []types.Source{}
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = r.maxResults
	}
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}

	return types.AggregatedResult{
		Sources:           deduped,
		Total:             len(deduped),
		Query:             query,
		Filters:           filters,
		BySource:          bySource,
		DeduplicatedCount: removed,
	}
}

// sortByRelevance orders sources by relevance, breaking ties by quality and
// then ID so output is deterministic.
func sortByRelevance(sources []types.Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].RelevanceScore != sources[j].RelevanceScore {
			return sources[i].RelevanceScore > sources[j].RelevanceScore
		}
		qi, qj := qualityScore(sources[i]), qualityScore(sources[j])
		if qi != qj {
			return qi > qj
		}
		return sources[i].ID < sources[j].ID
	})
}

// CheckAvailability probes every registered adapter concurrently. A
// panicking probe counts as unavailable rather than crashing the engine.
func (r *Registry) CheckAvailability(ctx context.Context) map[string]bool {
	names := r.Names()

	results := make(map[string]bool, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range names {
		a, ok := r.Get(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(name string, a adapter.Adapter) {
			defer wg.Done()
			available := probe(ctx, a)
			mu.Lock()
			results[name] = available
			mu.Unlock()
		}(name, a)
	}
	wg.Wait()
	return results
}

func probe(ctx context.Context, a adapter.Adapter) (available bool) {
	defer func() {
		if recover() != nil {
			available = false
		}
	}()
	return a.Available(ctx)
}

// AdapterStatus is one row of the registry's status report.
type AdapterStatus struct {
	Name      string              `json:"name" yaml:"name"`
	Domains   []string            `json:"domains" yaml:"domains"`
	Available bool                `json:"available" yaml:"available"`
	RateLimit types.RateLimitInfo `json:"rate_limit" yaml:"rate_limit"`
}

// Status reports every adapter's availability and request budget, in
// registration order.
func (r *Registry) Status(ctx context.Context) []AdapterStatus {
	availability := r.CheckAvailability(ctx)

	var statuses []AdapterStatus
	for _, name := range r.Names() {
		a, ok := r.Get(name)
		if !ok {
			continue
		}
		statuses = append(statuses, AdapterStatus{
			Name:      name,
			Domains:   a.Domains(),
			Available: availability[name],
			RateLimit: a.RateLimit(),
		})
	}
	return statuses
}

// Stats summarizes the registered adapter set.
type Stats struct {
	Adapters int            `json:"adapters" yaml:"adapters"`
	ByDomain map[string]int `json:"by_domain" yaml:"by_domain"`
	Names    []string       `json:"names" yaml:"names"`
}

// GetStats reports adapter and per-domain counts.
func (r *Registry) GetStats() Stats {
	names := r.Names()

	byDomain := make(map[string]int)
	for _, name := range names {
		a, ok := r.Get(name)
		if !ok {
			continue
		}
		for _, d := range a.Domains() {
			byDomain[d]++
		}
	}

	return Stats{
		Adapters: len(names),
		ByDomain: byDomain,
		Names:    names,
	}
}

// splitSourceID separates "arxiv:2301.07041" into its adapter name.
func splitSourceID(id string) (string, bool) {
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			if i == 0 || i == len(id)-1 {
				return "", false
			}
			return id[:i], true
		}
	}
	return "", false
}
