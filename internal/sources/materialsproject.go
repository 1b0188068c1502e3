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
	"unicode"

	"github.com/pdiddy/discovery-engine/internal/adapter"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// materialsProjectBaseURL is the Materials Project API root. Declared as a
// var so tests can substitute an httptest server.
var materialsProjectBaseURL = "https://api.materialsproject.org/v2"

const materialsProjectQuality = 85

// MaterialsProject queries the Materials Project summary endpoint for
// computed material properties. Requires an API key.
type MaterialsProject struct {
	client *adapter.Client
	apiKey string
}

// NewMaterialsProject builds the Materials Project adapter.
func NewMaterialsProject(cfg types.AdapterConfig, httpCfg types.HTTPConfig, brk types.BreakerConfig) *MaterialsProject {
	def := adapter.Defaults{RequestsPerMinute: 30, CacheTTL: 7 * 24 * time.Hour}
	return &MaterialsProject{
		client: adapter.NewClient("materials_project", def, cfg, httpCfg, brk),
		apiKey: cfg.APIKey,
	}
}

func (m *MaterialsProject) Name() string { return "materials_project" }

func (m *MaterialsProject) Domains() []string {
	return []string{DomainMaterials, DomainBattery, DomainSolar, DomainHydrogen}
}

func (m *MaterialsProject) RateLimit() types.RateLimitInfo { return m.client.RateLimit() }

func (m *MaterialsProject) Available(ctx context.Context) bool { return m.apiKey != "" }

// Search interprets the query as an application keyword (battery, solar,
// catalyst), an element list, or a chemical formula, and queries the
// summary endpoint accordingly.
func (m *MaterialsProject) Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error) {
	return m.client.SearchOp(ctx, query, filters, func(ctx context.Context) (types.SearchResult, error) {
		params := buildMaterialsQuery(query)
		params.Set("_limit", strconv.Itoa(effectiveLimit(filters, 100)))

		var out materialsResponse
		status, err := m.getJSON(ctx, materialsProjectBaseURL+"/materials/summary?"+params.Encode(), &out)
		if err != nil {
			return types.SearchResult{}, err
		}
		if status != http.StatusOK {
			return types.SearchResult{}, fmt.Errorf("Materials Project API returned HTTP %d", status)
		}

		var sources []types.Source
		for i, mat := range out.Data {
			src := m.normalize(mat)
			src.RelevanceScore = adapter.PositionScore(i, len(out.Data))
			sources = append(sources, src)
		}
		return types.SearchResult{Sources: sources, Total: len(sources)}, nil
	})
}

// Details fetches one material by ID ("materials_project:mp-149" or "mp-149").
func (m *MaterialsProject) Details(ctx context.Context, id string) (*types.Source, error) {
	return m.client.DetailsOp(ctx, id, func(ctx context.Context) (*types.Source, error) {
		materialID := strings.TrimPrefix(id, "materials_project:")

		var out materialsResponse
		status, err := m.getJSON(ctx, materialsProjectBaseURL+"/materials/summary/"+url.PathEscape(materialID), &out)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, nil
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("Materials Project API returned HTTP %d", status)
		}
		if len(out.Data) == 0 {
			return nil, nil
		}

		src := m.normalize(out.Data[0])
		return &src, nil
	})
}

func (m *MaterialsProject) getJSON(ctx context.Context, reqURL string, out any) (int, error) {
	header := http.Header{}
	if m.apiKey != "" {
		header.Set("X-API-KEY", m.apiKey)
	}

	resp, err := m.client.Get(ctx, reqURL, header)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("parsing Materials Project response: %w", err)
	}
	return resp.StatusCode, nil
}

func (m *MaterialsProject) normalize(mat materialsSummary) types.Source {
	src := types.Source{
		ID:    "materials_project:" + mat.MaterialID,
		Title: mat.FormulaPretty,
		URL:   "https://materialsproject.org/materials/" + mat.MaterialID,
		Metadata: types.SourceMetadata{
			SourceName:   "materials_project",
			Type:         types.TypeChemicalDB,
			QualityScore: materialsProjectQuality,
			Verification: types.Unverified,
			Access:       types.AccessOpen,
		},
		Extra: map[string]string{},
	}

	if mat.BandGap != nil {
		src.Extra["band_gap_ev"] = strconv.FormatFloat(*mat.BandGap, 'f', -1, 64)
	}
	if mat.FormationEnergyPerAtom != nil {
		src.Extra["formation_energy_per_atom_ev"] = strconv.FormatFloat(*mat.FormationEnergyPerAtom, 'f', -1, 64)
	}
	if mat.EnergyAboveHull != nil {
		src.Extra["energy_above_hull_ev"] = strconv.FormatFloat(*mat.EnergyAboveHull, 'f', -1, 64)
	}
	if mat.Density != nil {
		src.Extra["density_g_cm3"] = strconv.FormatFloat(*mat.Density, 'f', -1, 64)
	}
	if mat.Symmetry.CrystalSystem != "" {
		src.Extra["crystal_system"] = mat.Symmetry.CrystalSystem
	}
	src.Extra["is_stable"] = strconv.FormatBool(mat.IsStable)

	return src
}

// buildMaterialsQuery maps a free-text query onto the summary endpoint's
// parameters. Application keywords pick property windows (solar band gaps,
// lithium battery chemistry, catalyst elements); otherwise the query is
// treated as an element list when every token looks like an element symbol,
// or as a formula.
func buildMaterialsQuery(query string) url.Values {
	params := url.Values{"is_stable": {"true"}}
	lower := strings.ToLower(query)

	switch {
	case strings.Contains(lower, "battery") || strings.Contains(lower, "cathode") || strings.Contains(lower, "anode"):
		params.Set("elements", "Li,O")
	case strings.Contains(lower, "solar") || strings.Contains(lower, "photovoltaic"):
		// Single-junction sweet spot, extended for tandem cells.
		params.Set("band_gap_min", "1.0")
		params.Set("band_gap_max", "2.0")
	case strings.Contains(lower, "catalyst") || strings.Contains(lower, "electrolysis"):
		params.Set("elements", "Pt,Ni")
	default:
		if elements := parseElements(query); len(elements) > 0 {
			params.Set("elements", strings.Join(elements, ","))
		} else {
			params.Set("formula", query)
		}
	}

	return params
}

// parseElements returns the query tokens as element symbols when every
// token is one or two letters ("Li Fe P O"), otherwise nil.
func parseElements(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(fields) == 0 {
		return nil
	}

	elements := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			return nil
		}
		for _, r := range f {
			if !unicode.IsLetter(r) {
				return nil
			}
		}
		elements = append(elements, strings.ToUpper(f[:1])+strings.ToLower(f[1:]))
	}
	return elements
}

// Materials Project API JSON structures.
type materialsResponse struct {
	Data []materialsSummary `json:"data"`
	Meta materialsMeta      `json:"meta"`
}

type materialsMeta struct {
	TotalDoc int `json:"total_doc"`
}

type materialsSummary struct {
	MaterialID             string            `json:"material_id"`
	FormulaPretty          string            `json:"formula_pretty"`
	FormationEnergyPerAtom *float64          `json:"formation_energy_per_atom"`
	EnergyAboveHull        *float64          `json:"energy_above_hull"`
	BandGap                *float64          `json:"band_gap"`
	IsStable               bool              `json:"is_stable"`
	Density                *float64          `json:"density"`
	Symmetry               materialsSymmetry `json:"symmetry"`
}

type materialsSymmetry struct {
	CrystalSystem string `json:"crystal_system"`
}
