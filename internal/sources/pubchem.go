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

// pubChemBaseURL is the PubChem PUG REST root. Declared as a var so tests
// can substitute an httptest server.
var pubChemBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

const (
	pubChemQuality    = 82
	pubChemProperties = "MolecularFormula,MolecularWeight,IUPACName,CanonicalSMILES"

	// pubChemMaxCIDs bounds the name-to-CID expansion; a common name like
	// "oxide" can match thousands of compounds.
	pubChemMaxCIDs = 10
)

// PubChem queries the PubChem PUG REST API for chemical compounds. Search
// is a two-step lookup: resolve the name to compound IDs, then batch-fetch
// properties for those IDs. No API key required.
type PubChem struct {
	client *adapter.Client
}

// NewPubChem builds the PubChem adapter.
func NewPubChem(cfg types.AdapterConfig, httpCfg types.HTTPConfig, brk types.BreakerConfig) *PubChem {
	def := adapter.Defaults{RequestsPerMinute: 30, CacheTTL: 7 * 24 * time.Hour}
	return &PubChem{client: adapter.NewClient("pubchem", def, cfg, httpCfg, brk)}
}

func (p *PubChem) Name() string { return "pubchem" }

func (p *PubChem) Domains() []string {
	return []string{DomainMaterials, DomainBattery, DomainHydrogen, DomainCarbon}
}

func (p *PubChem) RateLimit() types.RateLimitInfo { return p.client.RateLimit() }

func (p *PubChem) Available(ctx context.Context) bool { return true }

// Search resolves the query as a compound name. PubChem answers an unknown
// name with HTTP 404, which is an empty result rather than a failure.
func (p *PubChem) Search(ctx context.Context, query string, filters types.SearchFilters) (types.SearchResult, error) {
	return p.client.SearchOp(ctx, query, filters, func(ctx context.Context) (types.SearchResult, error) {
		cids, err := p.lookupCIDs(ctx, query)
		if err != nil {
			return types.SearchResult{}, err
		}
		if len(cids) == 0 {
			return types.SearchResult{}, nil
		}

		limit := effectiveLimit(filters, pubChemMaxCIDs)
		if limit > len(cids) {
			limit = len(cids)
		}
		cids = cids[:limit]

		props, err := p.fetchProperties(ctx, cids)
		if err != nil {
			return types.SearchResult{}, err
		}

		var sources []types.Source
		for i, prop := range props {
			src := p.normalize(prop)
			src.RelevanceScore = adapter.PositionScore(i, len(props))
			sources = append(sources, src)
		}
		return types.SearchResult{Sources: sources, Total: len(sources)}, nil
	})
}

// Details fetches one compound by CID ("pubchem:962" or "962").
func (p *PubChem) Details(ctx context.Context, id string) (*types.Source, error) {
	return p.client.DetailsOp(ctx, id, func(ctx context.Context) (*types.Source, error) {
		cid, err := strconv.Atoi(strings.TrimPrefix(id, "pubchem:"))
		if err != nil {
			return nil, fmt.Errorf("malformed PubChem CID %q", id)
		}

		props, err := p.fetchProperties(ctx, []int{cid})
		if err != nil {
			return nil, err
		}
		if len(props) == 0 {
			return nil, nil
		}

		src := p.normalize(props[0])
		return &src, nil
	})
}

// lookupCIDs resolves a compound name to PubChem compound IDs. A 404 means
// no compound matched.
func (p *PubChem) lookupCIDs(ctx context.Context, name string) ([]int, error) {
	reqURL := pubChemBaseURL + "/compound/name/" + url.PathEscape(name) + "/cids/JSON"

	resp, err := p.client.Get(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubChem API returned HTTP %d", resp.StatusCode)
	}

	var out pubChemCIDResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing PubChem response: %w", err)
	}
	return out.IdentifierList.CID, nil
}

// fetchProperties batch-fetches properties for a set of CIDs in one call.
func (p *PubChem) fetchProperties(ctx context.Context, cids []int) ([]pubChemProperty, error) {
	idList := make([]string, len(cids))
	for i, cid := range cids {
		idList[i] = strconv.Itoa(cid)
	}
	reqURL := pubChemBaseURL + "/compound/cid/" + strings.Join(idList, ",") +
		"/property/" + pubChemProperties + "/JSON"

	resp, err := p.client.Get(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubChem API returned HTTP %d", resp.StatusCode)
	}

	var out pubChemPropertyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing PubChem response: %w", err)
	}
	return out.PropertyTable.Properties, nil
}

func (p *PubChem) normalize(prop pubChemProperty) types.Source {
	cid := strconv.Itoa(prop.CID)

	title := prop.IUPACName
	if title == "" {
		title = prop.MolecularFormula
	}
	if title == "" {
		title = "CID " + cid
	}

	src := types.Source{
		ID:    "pubchem:" + cid,
		Title: title,
		URL:   "https://pubchem.ncbi.nlm.nih.gov/compound/" + cid,
		Metadata: types.SourceMetadata{
			SourceName:   "pubchem",
			Type:         types.TypeChemicalDB,
			QualityScore: pubChemQuality,
			Verification: types.Unverified,
			Access:       types.AccessOpen,
		},
		Extra: map[string]string{},
	}

	if prop.MolecularFormula != "" {
		src.Extra["molecular_formula"] = prop.MolecularFormula
	}
	if prop.MolecularWeight != "" {
		src.Extra["molecular_weight"] = prop.MolecularWeight
	}
	if prop.CanonicalSMILES != "" {
		src.Extra["smiles"] = prop.CanonicalSMILES
	}

	return src
}

// PubChem API JSON structures.
type pubChemCIDResponse struct {
	IdentifierList pubChemIdentifierList `json:"IdentifierList"`
}

type pubChemIdentifierList struct {
	CID []int `json:"CID"`
}

type pubChemPropertyResponse struct {
	PropertyTable pubChemPropertyTable `json:"PropertyTable"`
}

type pubChemPropertyTable struct {
	Properties []pubChemProperty `json:"Properties"`
}

type pubChemProperty struct {
	CID              int    `json:"CID"`
	MolecularFormula string `json:"MolecularFormula"`
	// MolecularWeight is a string in PUG REST responses.
	MolecularWeight string `json:"MolecularWeight"`
	IUPACName       string `json:"IUPACName"`
	CanonicalSMILES string `json:"CanonicalSMILES"`
}
