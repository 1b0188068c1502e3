// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/discovery-engine/internal/adapter"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// arxivBaseURL is the arXiv search endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivBaseURL = "https://export.arxiv.org/api/query"

const arxivQuality = 60

// Arxiv queries the arXiv Atom API for preprints. No API key required;
// arXiv asks clients to stay under one request every three seconds.
type Arxiv struct {
	client *adapter.Client
}

// NewArxiv builds the arXiv adapter.
func NewArxiv(cfg types.AdapterConfig, httpCfg types.HTTPConfig, brk types.BreakerConfig) *Arxiv {
	def := adapter.Defaults{RequestsPerMinute: 20, CacheTTL: 2 * time.Hour}
	return &Arxiv{client: adapter.NewClient("arxiv", def, cfg, httpCfg, brk)}
}

func (a *Arxiv) Name() string { return "arxiv" }

// Domains: preprints cover every research area the engine routes on.
func (a *Arxiv) Domains() []string { return AllDomains }

func (a *Arxiv) RateLimit() types.RateLimitInfo { return a.client.RateLimit() }

func (a *Arxiv) Available(ctx context.Context) bool { return true }

// Search queries arXiv sorted by relevance and post-filters publication
// years (the arXiv API has no simple year parameter).
func (a *Arxiv) Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error) {
	return a.client.SearchOp(ctx, query, filters, func(ctx context.Context) (types.SearchResult, error) {
		limit := effectiveLimit(filters, 50)
		params := url.Values{
			"search_query": {"all:" + query},
			"start":        {"0"},
			"max_results":  {strconv.Itoa(limit)},
			"sortBy":       {"relevance"},
			"sortOrder":    {"descending"},
		}

		feed, err := a.fetchFeed(ctx, arxivBaseURL+"?"+params.Encode())
		if err != nil {
			return types.SearchResult{}, err
		}

		var sources []types.Source
		for i, entry := range feed.Entries {
			src := a.normalize(entry)
			if src == nil || !withinYears(src.Metadata.PublishedDate, filters) {
				continue
			}
			src.RelevanceScore = adapter.PositionScore(i, len(feed.Entries))
			sources = append(sources, *src)
		}
		return types.SearchResult{Sources: sources, Total: len(sources)}, nil
	})
}

// Details fetches one preprint by ID ("arxiv:2301.07041" or bare).
func (a *Arxiv) Details(ctx context.Context, id string) (*types.Source, error) {
	return a.client.DetailsOp(ctx, id, func(ctx context.Context) (*types.Source, error) {
		arxivID := strings.TrimPrefix(id, "arxiv:")
		params := url.Values{
			"id_list":     {arxivID},
			"max_results": {"1"},
		}

		feed, err := a.fetchFeed(ctx, arxivBaseURL+"?"+params.Encode())
		if err != nil {
			return nil, err
		}
		if len(feed.Entries) == 0 {
			return nil, nil
		}
		src := a.normalize(feed.Entries[0])
		if src == nil {
			return nil, nil
		}
		return src, nil
	})
}

func (a *Arxiv) fetchFeed(ctx context.Context, reqURL string) (*arxivFeed, error) {
	resp, err := a.client.Get(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &feed, nil
}

// normalize converts one Atom entry into a Source, or nil when the entry
// has no usable ID.
func (a *Arxiv) normalize(entry arxivEntry) *types.Source {
	arxivID := extractArxivID(entry.ID)
	if arxivID == "" {
		return nil
	}

	src := &types.Source{
		ID:       "arxiv:" + arxivID,
		Title:    strings.Join(strings.Fields(entry.Title), " "),
		Abstract: strings.Join(strings.Fields(entry.Summary), " "),
		URL:      entry.ID,
		DOI:      entry.DOI,
		Metadata: types.SourceMetadata{
			SourceName:   "arxiv",
			Type:         types.TypePreprint,
			QualityScore: arxivQuality,
			Verification: types.VerifiedPreprint,
			Access:       types.AccessOpen,
		},
	}

	for _, author := range entry.Authors {
		src.Authors = append(src.Authors, strings.TrimSpace(author.Name))
	}

	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		src.Metadata.PublishedDate = t.Format("2006-01-02")
	}

	return src
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	DOI       string        `xml:"doi"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
