// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func newOpenAlexAgainst(t *testing.T, email string, handler http.HandlerFunc) *OpenAlex {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := openAlexBaseURL
	openAlexBaseURL = ts.URL
	t.Cleanup(func() { openAlexBaseURL = old })

	return NewOpenAlex(types.AdapterConfig{Email: email}, testHTTPCfg(), testBreakerCfg())
}

func TestOpenAlexRequestParams(t *testing.T) {
	var captured *http.Request
	o := newOpenAlexAgainst(t, "research@example.org", func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"meta":{"count":0},"results":[]}`)
	})

	_, err := o.Search(context.Background(), "wind turbine wake", types.SearchFilters{
		Limit: 25, YearFrom: 2018, YearTo: 2024,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := captured.URL.Query()
	if got := q.Get("search"); got != "wind turbine wake" {
		t.Errorf("search = %q", got)
	}
	if got := q.Get("per_page"); got != "25" {
		t.Errorf("per_page = %q", got)
	}
	if got := q.Get("filter"); got != "from_publication_date:2018-01-01,to_publication_date:2024-12-31" {
		t.Errorf("filter = %q", got)
	}
	if got := q.Get("mailto"); got != "research@example.org" {
		t.Errorf("mailto = %q, polite pool email missing", got)
	}
}

func TestOpenAlexNormalization(t *testing.T) {
	resp := `{"meta":{"count":1},"results":[{
		"id":"https://openalex.org/W2741809807",
		"title":"Offshore wind economics",
		"doi":"https://doi.org/10.1016/j.energy",
		"publication_date":"2021-06-01",
		"cited_by_count":42,
		"authorships":[{"author":{"display_name":"Dana Reyes"}}],
		"abstract_inverted_index":{"costs":[2],"Offshore":[0],"wind":[1]},
		"open_access":{"is_oa":true,"oa_url":"https://repo.example.org/paper.pdf"},
		"primary_location":{"source":{"display_name":"Applied Energy"}}
	}]}`
	o := newOpenAlexAgainst(t, "", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resp)
	})

	res, err := o.Search(context.Background(), "offshore wind", types.SearchFilters{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("Total = %d", res.Total)
	}

	src := res.Sources[0]
	if src.ID != "openalex:W2741809807" {
		t.Errorf("ID = %q, want the bare work ID namespaced", src.ID)
	}
	if src.Abstract != "Offshore wind costs" {
		t.Errorf("Abstract = %q, inverted index should reconstruct in position order", src.Abstract)
	}
	if src.DOI != "10.1016/j.energy" {
		t.Errorf("DOI = %q, doi.org prefix should be stripped", src.DOI)
	}
	if src.Metadata.Access != types.AccessOpen || src.URL != "https://repo.example.org/paper.pdf" {
		t.Errorf("open access URL not preferred: access=%q url=%q", src.Metadata.Access, src.URL)
	}
	if src.Metadata.CitationCount != 42 || !src.Metadata.HasCitations {
		t.Errorf("citations = %+v", src.Metadata)
	}
	if src.Journal != "Applied Energy" {
		t.Errorf("Journal = %q", src.Journal)
	}
}

func TestOpenAlexDetailsNotFound(t *testing.T) {
	o := newOpenAlexAgainst(t, "", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	src, err := o.Details(context.Background(), "openalex:W0")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if src != nil {
		t.Errorf("src = %+v, want nil", src)
	}
}

func TestReconstructAbstract(t *testing.T) {
	got := reconstructAbstract(map[string][]int{
		"the": {0, 2}, "over": {3}, "fox": {1}, "dog": {4},
	})
	if got != "the fox the over dog" {
		t.Errorf("reconstructed %q", got)
	}
	if reconstructAbstract(nil) != "" {
		t.Error("nil index should yield an empty abstract")
	}
}
