// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/discovery-engine/internal/adapter"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// openAlexBaseURL is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexBaseURL = "https://api.openalex.org/works"

const openAlexQuality = 72

// OpenAlex queries the OpenAlex Works API. A contact email routes requests
// into the polite pool with better rate limits.
type OpenAlex struct {
	client *adapter.Client
	email  string
}

// NewOpenAlex builds the OpenAlex adapter.
func NewOpenAlex(cfg types.AdapterConfig, httpCfg types.HTTPConfig, brk types.BreakerConfig) *OpenAlex {
	def := adapter.Defaults{RequestsPerMinute: 60, CacheTTL: 6 * time.Hour}
	return &OpenAlex{
		client: adapter.NewClient("openalex", def, cfg, httpCfg, brk),
		email:  cfg.Email,
	}
}

func (o *OpenAlex) Name() string { return "openalex" }

func (o *OpenAlex) Domains() []string { return AllDomains }

func (o *OpenAlex) RateLimit() types.RateLimitInfo { return o.client.RateLimit() }

func (o *OpenAlex) Available(ctx context.Context) bool { return true }

// Search queries works with server-side publication-date filtering.
func (o *OpenAlex) Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error) {
	return o.client.SearchOp(ctx, query, filters, func(ctx context.Context) (types.SearchResult, error) {
		params := url.Values{
			"search":   {query},
			"per_page": {strconv.Itoa(effectiveLimit(filters, 200))},
			"page":     {"1"},
		}

		var dateFilters []string
		if filters.YearFrom > 0 {
			dateFilters = append(dateFilters, fmt.Sprintf("from_publication_date:%d-01-01", filters.YearFrom))
		}
		if filters.YearTo > 0 {
			dateFilters = append(dateFilters, fmt.Sprintf("to_publication_date:%d-12-31", filters.YearTo))
		}
		if len(dateFilters) > 0 {
			params.Set("filter", strings.Join(dateFilters, ","))
		}
		if o.email != "" {
			params.Set("mailto", o.email)
		}

		resp, err := o.client.Get(ctx, openAlexBaseURL+"?"+params.Encode(), nil)
		if err != nil {
			return types.SearchResult{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return types.SearchResult{}, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
		}

		var out openAlexResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return types.SearchResult{}, fmt.Errorf("parsing OpenAlex response: %w", err)
		}

		var sources []types.Source
		for i, work := range out.Results {
			src := o.normalize(work)
			if src == nil {
				continue
			}
			src.RelevanceScore = adapter.PositionScore(i, len(out.Results))
			sources = append(sources, *src)
		}
		return types.SearchResult{Sources: sources, Total: len(sources)}, nil
	})
}

// Details fetches one work by OpenAlex ID ("openalex:W2741809807" or bare).
func (o *OpenAlex) Details(ctx context.Context, id string) (*types.Source, error) {
	return o.client.DetailsOp(ctx, id, func(ctx context.Context) (*types.Source, error) {
		workID := strings.TrimPrefix(id, "openalex:")
		reqURL := openAlexBaseURL + "/" + url.PathEscape(workID)
		if o.email != "" {
			reqURL += "?mailto=" + url.QueryEscape(o.email)
		}

		resp, err := o.client.Get(ctx, reqURL, nil)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
		}

		var work openAlexWork
		if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
			return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
		}
		return o.normalize(work), nil
	})
}

func (o *OpenAlex) normalize(work openAlexWork) *types.Source {
	workID := strings.TrimPrefix(work.ID, "https://openalex.org/")
	if workID == "" {
		return nil
	}

	src := &types.Source{
		ID:       "openalex:" + workID,
		Title:    work.Title,
		Abstract: reconstructAbstract(work.AbstractInvertedIndex),
		URL:      work.ID,
		DOI:      strings.TrimPrefix(work.DOI, "https://doi.org/"),
		Journal:  work.PrimaryLocation.Source.DisplayName,
		Metadata: types.SourceMetadata{
			SourceName:    "openalex",
			Type:          types.TypeAcademicPaper,
			QualityScore:  openAlexQuality,
			Verification:  types.VerifiedPeerReviewed,
			Access:        types.AccessSubscription,
			CitationCount: work.CitedByCount,
			HasCitations:  true,
		},
	}

	if work.OpenAccess.IsOA {
		src.Metadata.Access = types.AccessOpen
		if work.OpenAccess.OAURL != "" {
			src.URL = work.OpenAccess.OAURL
		}
	}

	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			src.Authors = append(src.Authors, authorship.Author.DisplayName)
		}
	}

	switch {
	case work.PublicationDate != "":
		src.Metadata.PublishedDate = work.PublicationDate
	case work.PublicationYear > 0:
		src.Metadata.PublishedDate = fmt.Sprintf("%d-01-01", work.PublicationYear)
	}

	return src
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

type openAlexLocation struct {
	Source openAlexLocationSource `json:"source"`
}

type openAlexLocationSource struct {
	DisplayName string `json:"display_name"`
}
