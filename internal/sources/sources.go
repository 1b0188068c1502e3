// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the provider adapters: arXiv, Semantic
// Scholar, OpenAlex, PatentsView, Materials Project, PubChem, NREL, and
// OSTI. Each adapter normalizes its provider's records into types.Source
// and inherits caching, rate limiting, and circuit breaking from the
// adapter base client.
package sources

import (
	"strconv"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Topical tags the planner routes on. Adapters register for the subset
// they can answer.
const (
	DomainSolar     = "solar-energy"
	DomainBattery   = "battery-storage"
	DomainHydrogen  = "hydrogen"
	DomainWind      = "wind-energy"
	DomainCarbon    = "carbon-capture"
	DomainGrid      = "grid-storage"
	DomainMaterials = "materials-science"
	DomainGeo       = "geothermal"
)

// AllDomains lists every topical tag in routing-priority order.
var AllDomains = []string{
	DomainSolar, DomainBattery, DomainHydrogen, DomainWind,
	DomainCarbon, DomainGrid, DomainMaterials, DomainGeo,
}

// effectiveLimit resolves the per-source result cap: the filter's limit
// when set, otherwise 20, clamped to the provider's maximum page size.
func effectiveLimit(filters types.SearchFilters, providerMax int) int {
	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	if providerMax > 0 && limit > providerMax {
		limit = providerMax
	}
	return limit
}

// yearOf parses the leading year of an ISO-style date, or 0.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// withinYears applies the publication-year bounds to a date string. Records
// without a parseable date pass; providers that filter server-side never
// reach the rejection branches.
func withinYears(date string, filters types.SearchFilters) bool {
	year := yearOf(date)
	if year == 0 {
		return true
	}
	if filters.YearFrom > 0 && year < filters.YearFrom {
		return false
	}
	if filters.YearTo > 0 && year > filters.YearTo {
		return false
	}
	return true
}
