// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func TestRelevanceFavorsTitleMatches(t *testing.T) {
	exact := &types.Source{Title: "Perovskite solar cell degradation"}
	partial := &types.Source{Title: "Degradation of thin films", Abstract: "perovskite solar cells degrade"}
	unrelated := &types.Source{Title: "Wind turbine blade fatigue"}

	q := "perovskite solar degradation"
	assert.Greater(t, Relevance(q, exact), Relevance(q, partial))
	assert.Greater(t, Relevance(q, partial), Relevance(q, unrelated))
	assert.Equal(t, float64(0), Relevance(q, unrelated))
}

func TestRelevanceRecencyAndCitations(t *testing.T) {
	recent := &types.Source{
		Title:    "Perovskite stability",
		Metadata: types.SourceMetadata{PublishedDate: "2026-01-10"},
	}
	old := &types.Source{
		Title:    "Perovskite stability",
		Metadata: types.SourceMetadata{PublishedDate: "1999-01-10"},
	}
	cited := &types.Source{
		Title:    "Perovskite stability",
		Metadata: types.SourceMetadata{PublishedDate: "1999-01-10", CitationCount: 5000, HasCitations: true},
	}

	q := "perovskite stability"
	assert.Greater(t, Relevance(q, recent), Relevance(q, old))
	assert.Greater(t, Relevance(q, cited), Relevance(q, old))
	assert.LessOrEqual(t, Relevance(q, cited), float64(100))
}

func TestRelevanceEmptyQuery(t *testing.T) {
	s := &types.Source{Title: "Anything"}
	assert.Equal(t, float64(50), Relevance("", s))
	assert.Equal(t, float64(50), Relevance("of to", s), "short fragments are dropped")
}

func TestPositionScore(t *testing.T) {
	assert.Equal(t, float64(100), PositionScore(0, 1))
	assert.Equal(t, float64(100), PositionScore(0, 3))
	assert.Equal(t, float64(55), PositionScore(1, 3))
	assert.Equal(t, float64(10), PositionScore(2, 3))
}
