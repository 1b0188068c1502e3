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

// ostiBaseURL is the OSTI.gov records endpoint. Declared as a var so tests
// can substitute an httptest server.
var ostiBaseURL = "https://www.osti.gov/api/v1/records"

const ostiQuality = 70

// OSTI queries the Department of Energy's OSTI.gov API for technical
// reports and research datasets. No API key required.
type OSTI struct {
	client *adapter.Client
}

// NewOSTI builds the OSTI adapter.
func NewOSTI(cfg types.AdapterConfig, httpCfg types.HTTPConfig, brk types.BreakerConfig) *OSTI {
	def := adapter.Defaults{RequestsPerMinute: 30, CacheTTL: 24 * time.Hour}
	return &OSTI{client: adapter.NewClient("osti", def, cfg, httpCfg, brk)}
}

func (o *OSTI) Name() string { return "osti" }

func (o *OSTI) Domains() []string {
	return []string{DomainSolar, DomainWind, DomainHydrogen, DomainCarbon, DomainGrid, DomainGeo}
}

func (o *OSTI) RateLimit() types.RateLimitInfo { return o.client.RateLimit() }

func (o *OSTI) Available(ctx context.Context) bool { return true }

// Search queries OSTI records with server-side publication-date bounds.
func (o *OSTI) Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error) {
	return o.client.SearchOp(ctx, query, filters, func(ctx context.Context) (types.SearchResult, error) {
		params := url.Values{
			"q":    {query},
			"rows": {strconv.Itoa(effectiveLimit(filters, 100))},
		}
		if filters.YearFrom > 0 {
			params.Set("publication_date_start", fmt.Sprintf("01/01/%d", filters.YearFrom))
		}
		if filters.YearTo > 0 {
			params.Set("publication_date_end", fmt.Sprintf("12/31/%d", filters.YearTo))
		}

		resp, err := o.client.Get(ctx, ostiBaseURL+"?"+params.Encode(), nil)
		if err != nil {
			return types.SearchResult{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return types.SearchResult{}, fmt.Errorf("OSTI API returned HTTP %d", resp.StatusCode)
		}

		// The records endpoint answers with a bare JSON array.
		var records []ostiRecord
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			return types.SearchResult{}, fmt.Errorf("parsing OSTI response: %w", err)
		}

		var sources []types.Source
		for i, rec := range records {
			src := o.normalize(rec)
			if src == nil {
				continue
			}
			src.RelevanceScore = adapter.PositionScore(i, len(records))
			sources = append(sources, *src)
		}
		return types.SearchResult{Sources: sources, Total: len(sources)}, nil
	})
}

// Details fetches one record by OSTI ID ("osti:1984723" or bare).
func (o *OSTI) Details(ctx context.Context, id string) (*types.Source, error) {
	return o.client.DetailsOp(ctx, id, func(ctx context.Context) (*types.Source, error) {
		ostiID := strings.TrimPrefix(id, "osti:")

		resp, err := o.client.Get(ctx, ostiBaseURL+"/"+url.PathEscape(ostiID), nil)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("OSTI API returned HTTP %d", resp.StatusCode)
		}

		var records []ostiRecord
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			return nil, fmt.Errorf("parsing OSTI response: %w", err)
		}
		if len(records) == 0 {
			return nil, nil
		}
		return o.normalize(records[0]), nil
	})
}

func (o *OSTI) normalize(rec ostiRecord) *types.Source {
	if rec.OSTIID == "" {
		return nil
	}

	src := &types.Source{
		ID:       "osti:" + rec.OSTIID,
		Title:    rec.Title,
		Abstract: rec.Description,
		DOI:      rec.DOI,
		URL:      "https://www.osti.gov/biblio/" + rec.OSTIID,
		Metadata: types.SourceMetadata{
			SourceName:   "osti",
			Type:         types.TypeDataset,
			QualityScore: ostiQuality,
			Verification: types.Unverified,
			Access:       types.AccessOpen,
		},
	}

	for _, author := range rec.Authors {
		author = strings.TrimSpace(author)
		if author != "" {
			src.Authors = append(src.Authors, author)
		}
	}

	// OSTI dates are MM/DD/YYYY.
	if t, err := time.Parse("01/02/2006", rec.PublicationDate); err == nil {
		src.Metadata.PublishedDate = t.Format("2006-01-02")
	}

	return src
}

// OSTI API JSON structures.
type ostiRecord struct {
	OSTIID          string   `json:"osti_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Authors         []string `json:"authors"`
	DOI             string   `json:"doi"`
	PublicationDate string   `json:"publication_date"`
	ProductType     string   `json:"product_type"`
}
