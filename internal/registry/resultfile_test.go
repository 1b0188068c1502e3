// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func TestResultFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")

	result := types.AggregatedResult{
		Query:   "perovskite stability",
		Filters: types.SearchFilters{Limit: 10, Domains: []string{"solar-energy"}},
		Sources: []types.Source{
			src("arxiv:2301.07041", "Perovskite Stability Under Illumination", 85),
		},
		Total:             1,
		SearchTime:        250 * time.Millisecond,
		DeduplicatedCount: 2,
		ExpandedQueries:   []string{"perovskite stability photovoltaic"},
		BySource: map[string]types.SourceOutcome{
			"arxiv": {Success: true, Count: 3, SearchTime: 250 * time.Millisecond},
			"nrel":  {Err: "circuit open"},
		},
	}

	require.NoError(t, WriteResultFile(path, result))

	loaded, err := ReadResultFile(path)
	require.NoError(t, err)

	assert.Equal(t, result.Query, loaded.Query)
	assert.Equal(t, result.Filters, loaded.Filters)
	require.Len(t, loaded.Results, 1)
	assert.Equal(t, "arxiv:2301.07041", loaded.Results[0].ID)
	assert.Equal(t, 2, loaded.Summary.DeduplicatedCount)
	assert.Equal(t, result.ExpandedQueries, loaded.Summary.ExpandedQueries)
	assert.False(t, loaded.Summary.BySource["nrel"].Success)
	assert.False(t, loaded.Summary.Timestamp.IsZero())
}

func TestReadResultFileMissing(t *testing.T) {
	_, err := ReadResultFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
