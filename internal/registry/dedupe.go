// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"math"
	"strings"
	"unicode"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// dedupe collapses sources that share a normalized title, keeping the
// higher-quality record of each pair and backfilling its empty fields from
// the loser. Ties keep the earlier record, so provider priority order
// carries through. Returns the survivors and the number removed.
func dedupe(sources []types.Source) ([]types.Source, int) {
	seen := make(map[string]int) // normalized title → index in kept
	var kept []types.Source
	removed := 0

	for _, s := range sources {
		key := normalizeTitle(s.Title)
		if key == "" {
			kept = append(kept, s)
			continue
		}

		idx, dup := seen[key]
		if !dup {
			seen[key] = len(kept)
			kept = append(kept, s)
			continue
		}

		removed++
		if qualityScore(s) > qualityScore(kept[idx]) {
			winner := s
			backfill(&winner, kept[idx])
			kept[idx] = winner
		} else {
			backfill(&kept[idx], s)
		}
	}
	return kept, removed
}

// normalizeTitle lowercases the title, strips everything but letters and
// digits, and truncates to 100 characters. Near-identical titles from
// different providers (punctuation, casing, trailing qualifiers) collapse
// to the same key.
func normalizeTitle(title string) string {
	var b strings.Builder
	runes := 0
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			runes++
			if runes == 100 {
				break
			}
		}
	}
	return b.String()
}

// qualityScore ranks a record for duplicate resolution: the provider's
// base quality, a logarithmic citation bonus, completeness bonuses for a
// substantive abstract and peer review, and a sliver of the relevance
// score as a final separator.
func qualityScore(s types.Source) float64 {
	score := s.Metadata.QualityScore

	if s.Metadata.CitationCount > 0 {
		score += math.Min(20, math.Log10(float64(s.Metadata.CitationCount)+1)*5)
	}
	if len(s.Abstract) > 100 {
		score += 10
	}
	if s.Metadata.Verification == types.VerifiedPeerReviewed {
		score += 10
	}
	score += s.RelevanceScore / 10

	return score
}

// backfill copies fields the winner lacks from the losing duplicate.
func backfill(dst *types.Source, src types.Source) {
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if dst.DOI == "" && src.DOI != "" {
		dst.DOI = src.DOI
	}
	if dst.URL == "" && src.URL != "" {
		dst.URL = src.URL
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Journal == "" && src.Journal != "" {
		dst.Journal = src.Journal
	}
	if dst.Metadata.PublishedDate == "" && src.Metadata.PublishedDate != "" {
		dst.Metadata.PublishedDate = src.Metadata.PublishedDate
	}
	if !dst.Metadata.HasCitations && src.Metadata.HasCitations {
		dst.Metadata.CitationCount = src.Metadata.CitationCount
		dst.Metadata.HasCitations = true
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
}
