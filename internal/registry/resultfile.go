// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// ResultFile is the on-disk representation of an aggregated search. A
// researcher can save a search and reload it later without re-querying
// providers.
type ResultFile struct {
	Query   string              `yaml:"query"`
	Filters types.SearchFilters `yaml:"filters"`
	Results []types.Source      `yaml:"results"`
	Summary ResultSummary       `yaml:"summary"`
}

// ResultSummary stores aggregate statistics and a timestamp.
type ResultSummary struct {
	Total             int                             `yaml:"total"`
	DeduplicatedCount int                             `yaml:"deduplicated_count"`
	ExpandedQueries   []string                        `yaml:"expanded_queries,omitempty"`
	BySource          map[string]types.SourceOutcome  `yaml:"by_source,omitempty"`
	SearchTime        time.Duration                   `yaml:"search_time"`
	Timestamp         time.Time                       `yaml:"timestamp"`
}

// WriteResultFile saves an aggregated result to a YAML file.
func WriteResultFile(path string, result types.AggregatedResult) error {
	rf := ResultFile{
		Query:   result.Query,
		Filters: result.Filters,
		Results: result.Sources,
		Summary: ResultSummary{
			Total:             result.Total,
			DeduplicatedCount: result.DeduplicatedCount,
			ExpandedQueries:   result.ExpandedQueries,
			BySource:          result.BySource,
			SearchTime:        result.SearchTime,
			Timestamp:         time.Now(),
		},
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}
