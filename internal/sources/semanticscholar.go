// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/discovery-engine/internal/adapter"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// semanticScholarBaseURL is the Semantic Scholar Graph API root. Declared
// as a var so tests can substitute an httptest server.
var semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

const (
	semanticScholarQuality = 75
	semanticScholarFields  = "paperId,title,authors,abstract,year,venue,citationCount,url,externalIds,isOpenAccess,publicationDate"
)

// SemanticScholar queries the Semantic Scholar Graph API. An API key
// raises the rate limit but is not required.
type SemanticScholar struct {
	client *adapter.Client
	apiKey string
}

// NewSemanticScholar builds the Semantic Scholar adapter.
func NewSemanticScholar(cfg types.AdapterConfig, httpCfg types.HTTPConfig, brk types.BreakerConfig) *SemanticScholar {
	def := adapter.Defaults{RequestsPerMinute: 30, CacheTTL: 6 * time.Hour}
	return &SemanticScholar{
		client: adapter.NewClient("semantic_scholar", def, cfg, httpCfg, brk),
		apiKey: cfg.APIKey,
	}
}

func (s *SemanticScholar) Name() string { return "semantic_scholar" }

func (s *SemanticScholar) Domains() []string { return AllDomains }

func (s *SemanticScholar) RateLimit() types.RateLimitInfo { return s.client.RateLimit() }

func (s *SemanticScholar) Available(ctx context.Context) bool { return true }

// Search queries paper search with server-side year filtering.
func (s *SemanticScholar) Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error) {
	return s.client.SearchOp(ctx, query, filters, func(ctx context.Context) (types.SearchResult, error) {
		params := url.Values{
			"query":  {query},
			"limit":  {strconv.Itoa(effectiveLimit(filters, 100))},
			"fields": {semanticScholarFields},
		}
		if filters.YearFrom > 0 || filters.YearTo > 0 {
			params.Set("year", yearRangeParam(filters))
		}

		var out semanticScholarSearchResponse
		status, err := s.getJSON(ctx, semanticScholarBaseURL+"/paper/search?"+params.Encode(), &out)
		if err != nil {
			return types.SearchResult{}, err
		}
		if status != http.StatusOK {
			return types.SearchResult{}, fmt.Errorf("Semantic Scholar API returned HTTP %d", status)
		}

		var sources []types.Source
		for i, paper := range out.Data {
			src := s.normalize(paper)
			src.RelevanceScore = adapter.PositionScore(i, len(out.Data))
			sources = append(sources, src)
		}
		return types.SearchResult{Sources: sources, Total: len(sources)}, nil
	})
}

// Details fetches one paper by ID ("semantic_scholar:<paperId>" or bare).
func (s *SemanticScholar) Details(ctx context.Context, id string) (*types.Source, error) {
	return s.client.DetailsOp(ctx, id, func(ctx context.Context) (*types.Source, error) {
		paperID := strings.TrimPrefix(id, "semantic_scholar:")
		reqURL := semanticScholarBaseURL + "/paper/" + url.PathEscape(paperID) +
			"?fields=" + url.QueryEscape(semanticScholarFields)

		var paper semanticScholarPaper
		status, err := s.getJSON(ctx, reqURL, &paper)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, nil
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", status)
		}

		src := s.normalize(paper)
		return &src, nil
	})
}

// getJSON issues the request with the optional API key and decodes a 2xx
// body into out. Non-2xx statuses are returned undecoded for the caller.
func (s *SemanticScholar) getJSON(ctx context.Context, reqURL string, out any) (int, error) {
	var header http.Header
	if s.apiKey != "" {
		header = http.Header{"X-Api-Key": {s.apiKey}}
	}

	resp, err := s.client.Get(ctx, reqURL, header)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return resp.StatusCode, nil
}

func (s *SemanticScholar) normalize(paper semanticScholarPaper) types.Source {
	src := types.Source{
		ID:       "semantic_scholar:" + paper.PaperID,
		Title:    paper.Title,
		Abstract: paper.Abstract,
		URL:      paper.URL,
		DOI:      paper.ExternalIDs.DOI,
		Journal:  paper.Venue,
		Metadata: types.SourceMetadata{
			SourceName:    "semantic_scholar",
			Type:          types.TypeAcademicPaper,
			QualityScore:  semanticScholarQuality,
			Verification:  types.Unverified,
			Access:        types.AccessSubscription,
			CitationCount: paper.CitationCount,
			HasCitations:  true,
		},
	}

	// A venue implies the paper went through editorial review.
	if paper.Venue != "" {
		src.Metadata.Verification = types.VerifiedPeerReviewed
	}
	if paper.IsOpenAccess {
		src.Metadata.Access = types.AccessOpen
	}

	for _, author := range paper.Authors {
		if author.Name != "" {
			src.Authors = append(src.Authors, author.Name)
		}
	}

	switch {
	case paper.PublicationDate != "":
		src.Metadata.PublishedDate = paper.PublicationDate
	case paper.Year > 0:
		src.Metadata.PublishedDate = fmt.Sprintf("%d-01-01", paper.Year)
	}

	return src
}

// yearRangeParam renders filters as the API's "from-to" year syntax, with
// open ends allowed ("2020-", "-2023").
func yearRangeParam(filters types.SearchFilters) string {
	from, to := "", ""
	if filters.YearFrom > 0 {
		from = strconv.Itoa(filters.YearFrom)
	}
	if filters.YearTo > 0 {
		to = strconv.Itoa(filters.YearTo)
	}
	return from + "-" + to
}

// Semantic Scholar API JSON structures.
type semanticScholarSearchResponse struct {
	Total int                    `json:"total"`
	Data  []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	PaperID         string                    `json:"paperId"`
	Title           string                    `json:"title"`
	Abstract        string                    `json:"abstract"`
	Year            int                       `json:"year"`
	Venue           string                    `json:"venue"`
	CitationCount   int                       `json:"citationCount"`
	URL             string                    `json:"url"`
	IsOpenAccess    bool                      `json:"isOpenAccess"`
	PublicationDate string                    `json:"publicationDate"`
	Authors         []semanticScholarAuthor   `json:"authors"`
	ExternalIDs     semanticScholarExternalID `json:"externalIds"`
}

type semanticScholarAuthor struct {
	Name string `json:"name"`
}

type semanticScholarExternalID struct {
	DOI string `json:"DOI"`
}
