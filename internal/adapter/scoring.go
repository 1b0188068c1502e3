// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adapter

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Relevance scores how well a source matches the query on a 0-100 scale.
// Title term overlap dominates, abstract overlap and recency refine, and
// citation counts add a logarithmic nudge so a heavily cited classic can
// edge out an uncited exact match of similar fit.
func Relevance(query string, s *types.Source) float64 {
	terms := tokenize(query)
	if len(terms) == 0 {
		return 50
	}

	title := strings.ToLower(s.Title)
	abstract := strings.ToLower(s.Abstract)

	var titleHits, abstractHits int
	for _, t := range terms {
		if strings.Contains(title, t) {
			titleHits++
		}
		if strings.Contains(abstract, t) {
			abstractHits++
		}
	}

	score := 50 * float64(titleHits) / float64(len(terms))
	score += 20 * float64(abstractHits) / float64(len(terms))

	if age, ok := yearsSince(s.Metadata.PublishedDate); ok {
		switch {
		case age <= 2:
			score += 15
		case age <= 5:
			score += 10
		case age <= 10:
			score += 5
		}
	}

	if s.Metadata.HasCitations && s.Metadata.CitationCount > 0 {
		score += math.Min(15, math.Log10(float64(s.Metadata.CitationCount)+1)*5)
	}

	if score > 100 {
		score = 100
	}
	return score
}

// PositionScore converts a provider's own relevance ordering into a 0-100
// score: 100 for the first result, decaying linearly to 10 for the last.
// Used for providers that rank but do not expose a numeric score.
func PositionScore(index, total int) float64 {
	if total <= 1 {
		return 100
	}
	return 100 - float64(index)/float64(total-1)*90
}

// tokenize lowercases the query and splits on non-alphanumeric runs,
// dropping one- and two-letter fragments.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// yearsSince parses the leading year of an ISO-style date string.
func yearsSince(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0, false
		}
		year = year*10 + int(r-'0')
	}
	if year < 1800 {
		return 0, false
	}
	return time.Now().Year() - year, true
}
