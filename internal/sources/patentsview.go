// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/discovery-engine/internal/adapter"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// patentsViewBaseURL is the PatentsView patent search endpoint. Declared as
// a var so tests can substitute an httptest server.
var patentsViewBaseURL = "https://search.patentsview.org/api/v1/patent/"

const (
	patentsViewQuality = 65
	patentsViewFields  = `["patent_id","patent_title","patent_abstract","patent_date","patent_earliest_application_date","assignees.assignee_organization","inventors.inventor_name_last","cpc_current.cpc_group_id"]`
)

// cpcByDomain maps topical tags to CPC classification prefixes so a
// domain-filtered patent search can constrain by technology class rather
// than text alone.
var cpcByDomain = map[string][]string{
	DomainSolar:    {"H01L31", "H02S", "F24S"},
	DomainWind:     {"F03D", "B63H13"},
	DomainBattery:  {"H01M10", "H01M4", "H01M50", "H02J7"},
	DomainHydrogen: {"C01B3", "C25B1", "H01M8", "F17C"},
	DomainGrid:     {"H02J3", "H02J15", "F28D20"},
	DomainCarbon:   {"B01D53", "C01B32", "F23J15"},
}

// PatentsView queries the USPTO PatentsView search API. Requires an API key.
type PatentsView struct {
	client *adapter.Client
	apiKey string
}

// NewPatentsView builds the PatentsView adapter.
func NewPatentsView(cfg types.AdapterConfig, httpCfg types.HTTPConfig, brk types.BreakerConfig) *PatentsView {
	def := adapter.Defaults{RequestsPerMinute: 45, CacheTTL: 24 * time.Hour}
	return &PatentsView{
		client: adapter.NewClient("patentsview", def, cfg, httpCfg, brk),
		apiKey: cfg.APIKey,
	}
}

func (p *PatentsView) Name() string { return "patentsview" }

func (p *PatentsView) Domains() []string {
	return []string{DomainSolar, DomainBattery, DomainHydrogen, DomainWind, DomainCarbon, DomainGrid}
}

func (p *PatentsView) RateLimit() types.RateLimitInfo { return p.client.RateLimit() }

func (p *PatentsView) Available(ctx context.Context) bool { return p.apiKey != "" }

// Search runs a text query over titles and abstracts, constrained by grant
// date and, when domain filters are present, by CPC technology class.
func (p *PatentsView) Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error) {
	return p.client.SearchOp(ctx, query, filters, func(ctx context.Context) (types.SearchResult, error) {
		params := url.Values{
			"q": {buildPatentsViewQuery(query, filters)},
			"f": {patentsViewFields},
			"o": {fmt.Sprintf(`{"size":%d}`, effectiveLimit(filters, 100))},
		}

		var out patentsViewResponse
		status, err := p.getJSON(ctx, patentsViewBaseURL+"?"+params.Encode(), &out)
		if err != nil {
			return types.SearchResult{}, err
		}
		if status != http.StatusOK {
			return types.SearchResult{}, fmt.Errorf("PatentsView API returned HTTP %d", status)
		}

		var sources []types.Source
		for i, patent := range out.Patents {
			src := p.normalize(patent)
			src.RelevanceScore = adapter.PositionScore(i, len(out.Patents))
			sources = append(sources, src)
		}
		return types.SearchResult{Sources: sources, Total: len(sources)}, nil
	})
}

// Details fetches one patent by ID ("patentsview:US11476378", "US11476378",
// or the bare number).
func (p *PatentsView) Details(ctx context.Context, id string) (*types.Source, error) {
	return p.client.DetailsOp(ctx, id, func(ctx context.Context) (*types.Source, error) {
		patentID := strings.TrimPrefix(id, "patentsview:")
		patentID = strings.TrimPrefix(patentID, "US")

		params := url.Values{
			"q": {fmt.Sprintf(`{"patent_id":"%s"}`, escapeJSON(patentID))},
			"f": {patentsViewFields},
		}

		var out patentsViewResponse
		status, err := p.getJSON(ctx, patentsViewBaseURL+"?"+params.Encode(), &out)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, nil
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("PatentsView API returned HTTP %d", status)
		}
		if len(out.Patents) == 0 {
			return nil, nil
		}

		src := p.normalize(out.Patents[0])
		return &src, nil
	})
}

func (p *PatentsView) getJSON(ctx context.Context, reqURL string, out any) (int, error) {
	header := http.Header{}
	if p.apiKey != "" {
		header.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.client.Get(ctx, reqURL, header)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("parsing PatentsView response: %w", err)
	}
	return resp.StatusCode, nil
}

func (p *PatentsView) normalize(patent patentsViewPatent) types.Source {
	src := types.Source{
		ID:        "patentsview:US" + patent.PatentID,
		Title:     patent.PatentTitle,
		Abstract:  patent.PatentAbstract,
		URL:       "https://patents.google.com/patent/US" + patent.PatentID,
		FiledDate: patent.EarliestApplicationDate,
		Metadata: types.SourceMetadata{
			SourceName:    "patentsview",
			Type:          types.TypePatent,
			QualityScore:  patentsViewQuality,
			Verification:  types.Unverified,
			Access:        types.AccessOpen,
			PublishedDate: patent.PatentDate,
		},
	}

	for _, inv := range patent.Inventors {
		if inv.InventorNameLast != "" {
			src.Authors = append(src.Authors, inv.InventorNameLast)
		}
	}
	if len(patent.Assignees) > 0 && patent.Assignees[0].Organization != "" {
		src.Extra = map[string]string{"assignee": patent.Assignees[0].Organization}
	}
	for _, cpc := range patent.CPC {
		if cpc.GroupID != "" {
			src.Classifications = append(src.Classifications, cpc.GroupID)
		}
	}

	return src
}

// buildPatentsViewQuery constructs the JSON query DSL: text match on title
// or abstract, ANDed with grant-date bounds and CPC class constraints.
func buildPatentsViewQuery(query string, filters types.SearchFilters) string {
	conditions := []string{
		fmt.Sprintf(`{"_or":[{"_text_any":{"patent_title":"%s"}},{"_text_any":{"patent_abstract":"%s"}}]}`,
			escapeJSON(query), escapeJSON(query)),
	}

	if filters.YearFrom > 0 {
		conditions = append(conditions,
			fmt.Sprintf(`{"_gte":{"patent_date":"%d-01-01"}}`, filters.YearFrom))
	}
	if filters.YearTo > 0 {
		conditions = append(conditions,
			fmt.Sprintf(`{"_lte":{"patent_date":"%d-12-31"}}`, filters.YearTo))
	}

	if cpcConds := cpcConditions(filters.Domains); cpcConds != "" {
		conditions = append(conditions, cpcConds)
	}

	if len(conditions) == 1 {
		return conditions[0]
	}
	return fmt.Sprintf(`{"_and":[%s]}`, strings.Join(conditions, ","))
}

// cpcConditions ORs together the CPC prefixes of every requested domain.
func cpcConditions(domains []string) string {
	var ors []string
	for _, domain := range domains {
		for _, prefix := range cpcByDomain[domain] {
			ors = append(ors,
				fmt.Sprintf(`{"_begins":{"cpc_current.cpc_group_id":"%s"}}`, prefix))
		}
	}
	if len(ors) == 0 {
		return ""
	}
	if len(ors) == 1 {
		return ors[0]
	}
	return fmt.Sprintf(`{"_or":[%s]}`, strings.Join(ors, ","))
}

// escapeJSON escapes a string for safe inclusion in a JSON string value.
func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// PatentsView API JSON structures.
type patentsViewResponse struct {
	Patents []patentsViewPatent `json:"patents"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total_hits"`
}

type patentsViewPatent struct {
	PatentID                string                `json:"patent_id"`
	PatentTitle             string                `json:"patent_title"`
	PatentAbstract          string                `json:"patent_abstract"`
	PatentDate              string                `json:"patent_date"`
	EarliestApplicationDate string                `json:"patent_earliest_application_date"`
	Assignees               []patentsViewAssignee `json:"assignees"`
	Inventors               []patentsViewInventor `json:"inventors"`
	CPC                     []patentsViewCPC      `json:"cpc_current"`
}

type patentsViewAssignee struct {
	Organization string `json:"assignee_organization"`
}

type patentsViewInventor struct {
	InventorNameLast string `json:"inventor_name_last"`
}

type patentsViewCPC struct {
	GroupID string `json:"cpc_group_id"`
}
