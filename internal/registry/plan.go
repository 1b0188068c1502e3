// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"strings"
	"time"

	"github.com/pdiddy/discovery-engine/internal/adapter"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// domainPriority orders providers by usefulness per research domain. The
// first two entries of each matched domain form a smart search's primary
// tier; the rest fall to the secondary tier.
var domainPriority = map[string][]string{
	"solar-energy":      {"nrel", "materials_project", "semantic_scholar", "openalex", "pubchem"},
	"battery-storage":   {"materials_project", "pubchem", "semantic_scholar", "openalex"},
	"hydrogen":          {"pubchem", "materials_project", "semantic_scholar", "osti"},
	"wind-energy":       {"nrel", "semantic_scholar", "openalex", "osti"},
	"carbon-capture":    {"pubchem", "semantic_scholar", "openalex", "osti"},
	"grid-storage":      {"nrel", "semantic_scholar", "osti"},
	"materials-science": {"materials_project", "pubchem", "semantic_scholar", "openalex"},
	"geothermal":        {"osti", "semantic_scholar", "openalex"},
}

// fallbackSources always join the secondary tier: preprints and patents
// are relevant to every domain but rarely the best first answer.
var fallbackSources = []string{"arxiv", "patentsview"}

// domainTerms supplies query-expansion vocabulary per domain.
var domainTerms = map[string][]string{
	"solar-energy":      {"photovoltaic", "solar cell"},
	"battery-storage":   {"lithium-ion", "electrochemical storage"},
	"hydrogen":          {"electrolysis", "fuel cell"},
	"wind-energy":       {"wind turbine", "offshore wind"},
	"carbon-capture":    {"CO2 capture", "direct air capture"},
	"grid-storage":      {"grid-scale storage", "energy arbitrage"},
	"materials-science": {"crystal structure", "band gap"},
	"geothermal":        {"enhanced geothermal", "geothermal heat"},
}

// domainKeywords infers domains from query text when the caller supplies
// none.
var domainKeywords = map[string][]string{
	"solar-energy":      {"solar", "photovoltaic", "perovskite", "irradiance"},
	"battery-storage":   {"battery", "batteries", "cathode", "anode", "lithium"},
	"hydrogen":          {"hydrogen", "electrolyzer", "electrolysis", "fuel cell"},
	"wind-energy":       {"wind", "turbine", "offshore"},
	"carbon-capture":    {"carbon capture", "co2", "direct air", "sequestration"},
	"grid-storage":      {"grid", "transmission", "arbitrage"},
	"materials-science": {"material", "crystal", "band gap", "alloy", "semiconductor"},
	"geothermal":        {"geothermal"},
}

// searchPlan is a two-tier routing decision: primaries are queried first;
// secondaries only when the primary tier comes up short.
type searchPlan struct {
	domains     []string
	primaries   []adapter.Adapter
	secondaries []adapter.Adapter
}

// matchDomains returns the explicit domains when given, otherwise the
// domains whose keywords appear in the query. Order follows the routing
// table so plans are deterministic.
func matchDomains(query string, explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}

	lower := strings.ToLower(query)
	var matched []string
	for _, domain := range domainOrder {
		for _, kw := range domainKeywords[domain] {
			if strings.Contains(lower, kw) {
				matched = append(matched, domain)
				break
			}
		}
	}
	return matched
}

// domainOrder fixes iteration order over the routing tables.
var domainOrder = []string{
	"solar-energy", "battery-storage", "hydrogen", "wind-energy",
	"carbon-capture", "grid-storage", "materials-science", "geothermal",
}

// createPlan routes a query: the top two providers of each matched domain
// are primary; everything else named for those domains, plus the fallback
// sources, is secondary. Unregistered and unavailable providers drop out.
func (r *Registry) createPlan(ctx context.Context, query string, filters types.SearchFilters) searchPlan {
	domains := matchDomains(query, filters.Domains)

	var primaryNames, secondaryNames []string
	seen := make(map[string]bool)

	for _, domain := range domains {
		for rank, name := range domainPriority[domain] {
			if seen[name] {
				continue
			}
			seen[name] = true
			if rank < 2 {
				primaryNames = append(primaryNames, name)
			} else {
				secondaryNames = append(secondaryNames, name)
			}
		}
	}

	// A query matching no domain has no routing signal: every registered
	// adapter is primary.
	if len(domains) == 0 {
		primaryNames = r.Names()
	} else {
		for _, name := range fallbackSources {
			if !seen[name] {
				seen[name] = true
				secondaryNames = append(secondaryNames, name)
			}
		}
	}

	return searchPlan{
		domains:     domains,
		primaries:   r.resolve(ctx, primaryNames),
		secondaries: r.resolve(ctx, secondaryNames),
	}
}

// resolve maps names to registered, available adapters.
func (r *Registry) resolve(ctx context.Context, names []string) []adapter.Adapter {
	var adapters []adapter.Adapter
	for _, name := range names {
		a, ok := r.Get(name)
		if !ok || !a.Available(ctx) {
			continue
		}
		adapters = append(adapters, a)
	}
	return adapters
}

// expandQuery derives query variants from domain vocabulary: each term is
// appended to the original query unless already present. At most two
// variants per matched domain.
func expandQuery(query string, domains []string) []string {
	lower := strings.ToLower(query)
	var variants []string

	for _, domain := range domains {
		added := 0
		for _, term := range domainTerms[domain] {
			if added >= 2 {
				break
			}
			if strings.Contains(lower, strings.ToLower(term)) {
				continue
			}
			variants = append(variants, query+" "+term)
			added++
		}
	}
	return variants
}

// SmartSearch runs a two-tier search: the primary tier first, then, when
// the deduplicated primary results fall short of the escalation threshold,
// the secondary tier as well. Like SearchAll it always returns a
// well-formed result.
func (r *Registry) SmartSearch(ctx context.Context, query string, filters types.SearchFilters) types.AggregatedResult {
	// An explicit source allow-list overrides routing entirely.
	if len(filters.Sources) > 0 {
		return r.SearchAll(ctx, query, filters)
	}

	start := time.Now()

	plan := r.createPlan(ctx, query, filters)
	expanded := expandQuery(query, plan.domains)
	variants := []string(nil)
	if r.expandQueries {
		variants = expanded
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = r.maxResults
	}
	threshold := r.primaryThreshold
	if threshold <= 0 || threshold > limit {
		threshold = limit
	}

	primarySources, bySource := r.fanOut(ctx, plan.primaries, query, filters, variants)
	primaryDeduped, primaryRemoved := dedupe(primarySources)
	removed := primaryRemoved

	merged := primaryDeduped
	if len(primaryDeduped) < threshold && len(plan.secondaries) > 0 {
		secondarySources, secondaryBySource := r.fanOut(ctx, plan.secondaries, query, filters, variants)
		for name, out := range secondaryBySource {
			bySource[name] = out
		}

		secondaryDeduped, secondaryRemoved := dedupe(secondarySources)
		crossDeduped, crossRemoved := dedupe(append(merged, secondaryDeduped...))
		merged = crossDeduped
		removed += secondaryRemoved + crossRemoved
	}

	result := r.finalize(query, filters, merged, bySource)
	result.DeduplicatedCount = removed + result.DeduplicatedCount
	result.ExpandedQueries = expanded
	result.SearchTime = time.Since(start)
	return result
}
