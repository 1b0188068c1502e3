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

// nrelBaseURL is the NREL developer API root. Declared as a var so tests
// can substitute an httptest server.
var nrelBaseURL = "https://developer.nrel.gov/api"

const nrelQuality = 80

// Continental-US reference point used when a query names no location; the
// solar resource endpoint requires coordinates.
const (
	nrelDefaultLat = 39.7392
	nrelDefaultLon = -104.9903
)

// NREL queries the NREL developer API for measured energy resource data.
// Without an API key the adapter stays registered and degrades to empty
// results so aggregate searches keep their shape.
type NREL struct {
	client *adapter.Client
	apiKey string
}

// NewNREL builds the NREL adapter.
func NewNREL(cfg types.AdapterConfig, httpCfg types.HTTPConfig, brk types.BreakerConfig) *NREL {
	def := adapter.Defaults{RequestsPerMinute: 60, CacheTTL: 24 * time.Hour}
	return &NREL{
		client: adapter.NewClient("nrel", def, cfg, httpCfg, brk),
		apiKey: cfg.APIKey,
	}
}

func (n *NREL) Name() string { return "nrel" }

func (n *NREL) Domains() []string {
	return []string{DomainSolar, DomainWind, DomainGrid, DomainGeo}
}

func (n *NREL) RateLimit() types.RateLimitInfo { return n.client.RateLimit() }

func (n *NREL) Available(ctx context.Context) bool { return true }

// Search inspects the query for resource keywords and fetches the matching
// NREL datasets. Queries that name no NREL resource, and any query while
// unconfigured, return an empty result.
func (n *NREL) Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error) {
	return n.client.SearchOp(ctx, query, filters, func(ctx context.Context) (types.SearchResult, error) {
		if n.apiKey == "" {
			return types.SearchResult{}, nil
		}

		var sources []types.Source
		lower := strings.ToLower(query)

		if strings.Contains(lower, "solar") || strings.Contains(lower, "photovoltaic") || strings.Contains(lower, "irradiance") {
			src, err := n.solarResource(ctx)
			if err != nil {
				return types.SearchResult{}, err
			}
			if src != nil {
				sources = append(sources, *src)
			}
		}

		if strings.Contains(lower, "geothermal") {
			src, err := n.geothermalResource(ctx)
			if err != nil {
				return types.SearchResult{}, err
			}
			if src != nil {
				sources = append(sources, *src)
			}
		}

		for i := range sources {
			sources[i].RelevanceScore = adapter.PositionScore(i, len(sources))
		}
		return types.SearchResult{Sources: sources, Total: len(sources)}, nil
	})
}

// Details re-resolves a previously returned dataset ID.
func (n *NREL) Details(ctx context.Context, id string) (*types.Source, error) {
	return n.client.DetailsOp(ctx, id, func(ctx context.Context) (*types.Source, error) {
		if n.apiKey == "" {
			return nil, nil
		}
		switch strings.TrimPrefix(id, "nrel:") {
		case "solar-resource":
			return n.solarResource(ctx)
		case "geothermal-resource":
			return n.geothermalResource(ctx)
		default:
			return nil, nil
		}
	})
}

// solarResource fetches annual solar irradiance averages for the reference
// location.
func (n *NREL) solarResource(ctx context.Context) (*types.Source, error) {
	params := url.Values{
		"api_key": {n.apiKey},
		"lat":     {strconv.FormatFloat(nrelDefaultLat, 'f', 4, 64)},
		"lon":     {strconv.FormatFloat(nrelDefaultLon, 'f', 4, 64)},
	}

	var out nrelSolarResponse
	if err := n.getJSON(ctx, nrelBaseURL+"/solar/solar_resource/v1.json?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	src := &types.Source{
		ID:       "nrel:solar-resource",
		Title:    "NREL solar resource data",
		Abstract: "Annual and monthly average solar irradiance (GHI, DNI) from the National Solar Radiation Database.",
		URL:      "https://developer.nrel.gov/docs/solar/solar-resource-v1/",
		Metadata: types.SourceMetadata{
			SourceName:   "nrel",
			Type:         types.TypeDataset,
			QualityScore: nrelQuality,
			Verification: types.Unverified,
			Access:       types.AccessOpen,
		},
		Extra: map[string]string{"unit": "kWh/m2/day"},
	}
	if out.Outputs.AvgGHI.Annual > 0 {
		src.Extra["avg_ghi_annual"] = strconv.FormatFloat(out.Outputs.AvgGHI.Annual, 'f', 2, 64)
	}
	if out.Outputs.AvgDNI.Annual > 0 {
		src.Extra["avg_dni_annual"] = strconv.FormatFloat(out.Outputs.AvgDNI.Annual, 'f', 2, 64)
	}
	return src, nil
}

// geothermalResource fetches estimated geothermal potential for the
// reference location.
func (n *NREL) geothermalResource(ctx context.Context) (*types.Source, error) {
	params := url.Values{
		"api_key": {n.apiKey},
		"lat":     {strconv.FormatFloat(nrelDefaultLat, 'f', 4, 64)},
		"lon":     {strconv.FormatFloat(nrelDefaultLon, 'f', 4, 64)},
	}

	var out nrelGeothermalResponse
	if err := n.getJSON(ctx, nrelBaseURL+"/georesource/v1.json?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	src := &types.Source{
		ID:       "nrel:geothermal-resource",
		Title:    "NREL geothermal resource data",
		Abstract: "Estimated geothermal resource potential by region.",
		URL:      "https://developer.nrel.gov/docs/",
		Metadata: types.SourceMetadata{
			SourceName:   "nrel",
			Type:         types.TypeDataset,
			QualityScore: nrelQuality,
			Verification: types.Unverified,
			Access:       types.AccessOpen,
		},
		Extra: map[string]string{},
	}
	if out.Outputs.TemperatureClass != "" {
		src.Extra["temperature_class"] = out.Outputs.TemperatureClass
	}
	return src, nil
}

func (n *NREL) getJSON(ctx context.Context, reqURL string, out any) error {
	resp, err := n.client.Get(ctx, reqURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("NREL API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing NREL response: %w", err)
	}
	return nil
}

// NREL API JSON structures.
type nrelSolarResponse struct {
	Outputs nrelSolarOutputs `json:"outputs"`
}

type nrelSolarOutputs struct {
	AvgGHI nrelAnnualValue `json:"avg_ghi"`
	AvgDNI nrelAnnualValue `json:"avg_dni"`
}

type nrelAnnualValue struct {
	Annual float64 `json:"annual"`
}

type nrelGeothermalResponse struct {
	Outputs nrelGeothermalOutputs `json:"outputs"`
}

type nrelGeothermalOutputs struct {
	TemperatureClass string `json:"temperature_class"`
}
