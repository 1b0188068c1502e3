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

func newPatentsViewAgainst(t *testing.T, apiKey string, handler http.HandlerFunc) *PatentsView {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := patentsViewBaseURL
	patentsViewBaseURL = ts.URL + "/"
	t.Cleanup(func() { patentsViewBaseURL = old })

	return NewPatentsView(types.AdapterConfig{APIKey: apiKey}, testHTTPCfg(), testBreakerCfg())
}

func TestPatentsViewRequestShape(t *testing.T) {
	var captured *http.Request
	p := newPatentsViewAgainst(t, "pv-key", func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"patents":[],"count":0,"total_hits":0}`)
	})

	_, err := p.Search(context.Background(), "solid oxide", types.SearchFilters{Limit: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := captured.URL.Query().Get("q")
	if !strings.Contains(q, `"_text_any":{"patent_title":"solid oxide"}`) {
		t.Errorf("q = %q, want title text match", q)
	}
	if !strings.Contains(q, `"patent_abstract":"solid oxide"`) {
		t.Errorf("q = %q, want abstract text match", q)
	}
	if got := captured.URL.Query().Get("o"); got != `{"size":5}` {
		t.Errorf("o = %q", got)
	}
	if got := captured.Header.Get("X-Api-Key"); got != "pv-key" {
		t.Errorf("X-Api-Key = %q", got)
	}
}

func TestBuildPatentsViewQuery(t *testing.T) {
	plain := buildPatentsViewQuery("fuel cell", types.SearchFilters{})
	if strings.Contains(plain, "_and") {
		t.Errorf("bare text query should not be wrapped in _and: %q", plain)
	}

	q := buildPatentsViewQuery("fuel cell", types.SearchFilters{
		YearFrom: 2019,
		YearTo:   2023,
		Domains:  []string{DomainHydrogen},
	})
	for _, want := range []string{
		`{"_gte":{"patent_date":"2019-01-01"}}`,
		`{"_lte":{"patent_date":"2023-12-31"}}`,
		`{"_begins":{"cpc_current.cpc_group_id":"H01M8"}}`,
		`"_and"`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}

	escaped := buildPatentsViewQuery(`say "hi"`, types.SearchFilters{})
	if !strings.Contains(escaped, `say \"hi\"`) {
		t.Errorf("quotes not escaped: %q", escaped)
	}
}

func TestPatentsViewNormalization(t *testing.T) {
	resp := `{"patents":[{
		"patent_id":"11476378",
		"patent_title":"Tandem photovoltaic device",
		"patent_abstract":"A stacked cell.",
		"patent_date":"2022-10-18",
		"patent_earliest_application_date":"2020-05-01",
		"assignees":[{"assignee_organization":"Helios Energy Inc."}],
		"inventors":[{"inventor_name_last":"Nakamura"},{"inventor_name_last":"Diaz"}],
		"cpc_current":[{"cpc_group_id":"H01L31/0687"},{"cpc_group_id":"H02S40/44"}]
	}],"count":1,"total_hits":1}`
	p := newPatentsViewAgainst(t, "pv-key", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resp)
	})

	res, err := p.Search(context.Background(), "tandem", types.SearchFilters{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("Total = %d", res.Total)
	}

	src := res.Sources[0]
	if src.ID != "patentsview:US11476378" {
		t.Errorf("ID = %q", src.ID)
	}
	if src.URL != "https://patents.google.com/patent/US11476378" {
		t.Errorf("URL = %q", src.URL)
	}
	if src.Metadata.Type != types.TypePatent {
		t.Errorf("Type = %q", src.Metadata.Type)
	}
	if src.FiledDate != "2020-05-01" || src.Metadata.PublishedDate != "2022-10-18" {
		t.Errorf("dates = %q / %q", src.FiledDate, src.Metadata.PublishedDate)
	}
	if src.Extra["assignee"] != "Helios Energy Inc." {
		t.Errorf("assignee = %v", src.Extra)
	}
	if len(src.Authors) != 2 || src.Authors[0] != "Nakamura" {
		t.Errorf("Authors = %v", src.Authors)
	}
	if len(src.Classifications) != 2 || src.Classifications[1] != "H02S40/44" {
		t.Errorf("Classifications = %v", src.Classifications)
	}
}

func TestPatentsViewAvailability(t *testing.T) {
	keyed := NewPatentsView(types.AdapterConfig{APIKey: "k"}, testHTTPCfg(), testBreakerCfg())
	if !keyed.Available(context.Background()) {
		t.Error("keyed adapter should be available")
	}
	unkeyed := NewPatentsView(types.AdapterConfig{}, testHTTPCfg(), testBreakerCfg())
	if unkeyed.Available(context.Background()) {
		t.Error("adapter without an API key should be unavailable")
	}
}

func TestPatentsViewDetails(t *testing.T) {
	p := newPatentsViewAgainst(t, "pv-key", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), `"patent_id":"11476378"`) {
			fmt.Fprint(w, `{"patents":[{"patent_id":"11476378","patent_title":"Tandem photovoltaic device"}],"count":1,"total_hits":1}`)
			return
		}
		fmt.Fprint(w, `{"patents":[],"count":0,"total_hits":0}`)
	})

	src, err := p.Details(context.Background(), "patentsview:US11476378")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if src == nil || src.Title != "Tandem photovoltaic device" {
		t.Fatalf("src = %+v", src)
	}

	missing, err := p.Details(context.Background(), "patentsview:US99999999")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %+v, want nil", missing)
	}
}
