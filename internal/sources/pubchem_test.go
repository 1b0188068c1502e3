// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func newPubChemAgainst(t *testing.T, handler http.HandlerFunc) *PubChem {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := pubChemBaseURL
	pubChemBaseURL = ts.URL
	t.Cleanup(func() { pubChemBaseURL = old })

	return NewPubChem(types.AdapterConfig{}, testHTTPCfg(), testBreakerCfg())
}

func TestPubChemTwoStepSearch(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/compound/name/"):
			fmt.Fprint(w, `{"IdentifierList":{"CID":[962,24857]}}`)
		case strings.Contains(r.URL.Path, "/compound/cid/962,24857/property/"):
			fmt.Fprint(w, `{"PropertyTable":{"Properties":[
				{"CID":962,"MolecularFormula":"H2O","MolecularWeight":"18.015","IUPACName":"oxidane","CanonicalSMILES":"O"},
				{"CID":24857,"MolecularFormula":"LiPF6","MolecularWeight":"151.9","IUPACName":"lithium hexafluorophosphate"}
			]}}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
	p := newPubChemAgainst(t, handler)

	res, err := p.Search(context.Background(), "electrolyte", types.SearchFilters{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2", res.Total)
	}

	water := res.Sources[0]
	if water.ID != "pubchem:962" {
		t.Errorf("ID = %q", water.ID)
	}
	if water.Title != "oxidane" {
		t.Errorf("Title = %q, want IUPAC name", water.Title)
	}
	if water.Extra["molecular_formula"] != "H2O" || water.Extra["smiles"] != "O" {
		t.Errorf("Extra = %v", water.Extra)
	}
	if water.Metadata.Type != types.TypeChemicalDB {
		t.Errorf("Type = %q", water.Metadata.Type)
	}
	if water.URL != "https://pubchem.ncbi.nlm.nih.gov/compound/962" {
		t.Errorf("URL = %q", water.URL)
	}
}

func TestPubChemUnknownNameIsEmptyResult(t *testing.T) {
	p := newPubChemAgainst(t, func(w http.ResponseWriter, _ *http.Request) {
		// PubChem answers unknown names with 404, not an error payload.
		w.WriteHeader(http.StatusNotFound)
	})

	res, err := p.Search(context.Background(), "unobtainium", types.SearchFilters{})
	if err != nil {
		t.Fatalf("a 404 name lookup must not be an error, got %v", err)
	}
	if res.Total != 0 {
		t.Errorf("Total = %d, want 0", res.Total)
	}
}

func TestPubChemLimitCapsCIDExpansion(t *testing.T) {
	var propertyPath string
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/compound/name/"):
			fmt.Fprint(w, `{"IdentifierList":{"CID":[1,2,3,4,5]}}`)
		case strings.Contains(r.URL.Path, "/property/"):
			propertyPath = r.URL.Path
			fmt.Fprint(w, `{"PropertyTable":{"Properties":[{"CID":1},{"CID":2}]}}`)
		}
	}
	p := newPubChemAgainst(t, handler)

	_, err := p.Search(context.Background(), "oxide", types.SearchFilters{Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(propertyPath, "/compound/cid/1,2/") {
		t.Errorf("property path = %q, want only the first 2 CIDs", propertyPath)
	}
}

func TestPubChemDetails(t *testing.T) {
	p := newPubChemAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/compound/cid/962/") {
			fmt.Fprint(w, `{"PropertyTable":{"Properties":[{"CID":962,"MolecularFormula":"H2O","IUPACName":"oxidane"}]}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	src, err := p.Details(context.Background(), "pubchem:962")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if src == nil || src.Title != "oxidane" {
		t.Fatalf("src = %+v", src)
	}

	if _, err := p.Details(context.Background(), "pubchem:not-a-cid"); err == nil {
		t.Error("malformed CID should error")
	}
}
