// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

func testHTTPCfg() types.HTTPConfig {
	return types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "discovery-engine/test"}
}

func testBreakerCfg() types.BreakerConfig {
	return types.BreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second, HalfOpenAttempts: 1}
}

const arxivSampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Perovskite  Solar
 Cell Stability</title>
    <summary>We study degradation   pathways.</summary>
    <published>2023-01-17T12:00:00Z</published>
    <author><name>Alice Smith</name></author>
    <author><name> Bob Jones </name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2105.01234v1</id>
    <title>Tandem Cells</title>
    <summary>Older preprint.</summary>
    <published>2021-05-03T09:00:00Z</published>
    <author><name>Carol Wu</name></author>
  </entry>
</feed>`

func newArxivAgainst(t *testing.T, handler http.HandlerFunc) *Arxiv {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := arxivBaseURL
	arxivBaseURL = ts.URL
	t.Cleanup(func() { arxivBaseURL = old })

	return NewArxiv(types.AdapterConfig{}, testHTTPCfg(), testBreakerCfg())
}

func TestArxivSearchNormalization(t *testing.T) {
	var captured *http.Request
	a := newArxivAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, arxivSampleFeed)
	})

	res, err := a.Search(context.Background(), "perovskite stability", types.SearchFilters{Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := captured.URL.Query()
	if got := q.Get("search_query"); got != "all:perovskite stability" {
		t.Errorf("search_query = %q", got)
	}
	if got := q.Get("max_results"); got != "10" {
		t.Errorf("max_results = %q, want 10", got)
	}
	if got := q.Get("sortBy"); got != "relevance" {
		t.Errorf("sortBy = %q", got)
	}

	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2", res.Total)
	}
	first := res.Sources[0]
	if first.ID != "arxiv:2301.07041" {
		t.Errorf("ID = %q, want arxiv:2301.07041 (version stripped, namespaced)", first.ID)
	}
	if first.Title != "Perovskite Solar Cell Stability" {
		t.Errorf("Title = %q, internal whitespace should collapse", first.Title)
	}
	if len(first.Authors) != 2 || first.Authors[1] != "Bob Jones" {
		t.Errorf("Authors = %v", first.Authors)
	}
	if first.Metadata.Type != types.TypePreprint || first.Metadata.Verification != types.VerifiedPreprint {
		t.Errorf("metadata = %+v", first.Metadata)
	}
	if first.Metadata.PublishedDate != "2023-01-17" {
		t.Errorf("PublishedDate = %q", first.Metadata.PublishedDate)
	}
	if first.RelevanceScore != 100 {
		t.Errorf("first RelevanceScore = %f, want 100", first.RelevanceScore)
	}
	if res.Sources[1].RelevanceScore != 10 {
		t.Errorf("last RelevanceScore = %f, want 10", res.Sources[1].RelevanceScore)
	}
	if res.From != "arxiv" {
		t.Errorf("From = %q", res.From)
	}
}

func TestArxivSearchYearPostFilter(t *testing.T) {
	a := newArxivAgainst(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, arxivSampleFeed)
	})

	res, err := a.Search(context.Background(), "perovskite", types.SearchFilters{YearFrom: 2022})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("Total = %d, want 1 (2021 entry filtered out)", res.Total)
	}
	if res.Sources[0].ID != "arxiv:2301.07041" {
		t.Errorf("kept = %q", res.Sources[0].ID)
	}
}

func TestArxivSearchServerError(t *testing.T) {
	a := newArxivAgainst(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := a.Search(context.Background(), "anything", types.SearchFilters{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("error = %q, want HTTP 500 mention", err)
	}
	if !strings.Contains(err.Error(), "arxiv") {
		t.Errorf("error = %q, want source attribution", err)
	}
}

func TestArxivDetails(t *testing.T) {
	a := newArxivAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_list") == "2301.07041" {
			fmt.Fprint(w, arxivSampleFeed)
			return
		}
		fmt.Fprint(w, `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	})

	src, err := a.Details(context.Background(), "arxiv:2301.07041")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if src == nil || src.ID != "arxiv:2301.07041" {
		t.Fatalf("src = %+v", src)
	}

	missing, err := a.Details(context.Background(), "arxiv:9999.00000")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %+v, want nil", missing)
	}
}

func TestArxivIdentity(t *testing.T) {
	a := NewArxiv(types.AdapterConfig{}, testHTTPCfg(), testBreakerCfg())
	if a.Name() != "arxiv" {
		t.Errorf("Name = %q", a.Name())
	}
	if !a.Available(context.Background()) {
		t.Error("arxiv needs no credentials and should always be available")
	}
	if rl := a.RateLimit(); rl.RequestsPerMinute != 20 {
		t.Errorf("default rate = %d, want 20", rl.RequestsPerMinute)
	}
}
