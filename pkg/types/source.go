// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the discovery-engine
// aggregation core: normalized source records, search filters, aggregated
// results, workflow phase payloads, and configuration.
package types

// SourceType tags the kind of record a provider returns.
type SourceType string

const (
	TypeAcademicPaper SourceType = "academic-paper"
	TypePreprint      SourceType = "preprint"
	TypePatent        SourceType = "patent"
	TypeDataset       SourceType = "dataset"
	TypeChemicalDB    SourceType = "chemical-database"
	TypeConsensus     SourceType = "consensus"
)

// Verification is the editorial status of a record.
type Verification string

const (
	VerifiedPeerReviewed Verification = "peer-reviewed"
	VerifiedPreprint     Verification = "preprint"
	Unverified           Verification = "unverified"
)

// AccessType records whether the full content is openly readable.
type AccessType string

const (
	AccessOpen         AccessType = "open"
	AccessSubscription AccessType = "subscription"
)

// SourceMetadata carries provider-level attributes of a Source.
type SourceMetadata struct {
	// SourceName is the adapter that produced the record (e.g. "arxiv").
	SourceName string `json:"source_name" yaml:"source_name"`

	// Type classifies the record.
	Type SourceType `json:"type" yaml:"type"`

	// QualityScore is a 0-100 heuristic set by the producing adapter,
	// combining provider authority and record completeness.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`

	// Verification is the editorial status (peer-reviewed, preprint, unverified).
	Verification Verification `json:"verification" yaml:"verification"`

	// Access reports whether the record is open access.
	Access AccessType `json:"access" yaml:"access"`

	// CitationCount is the number of citations, when the provider reports one.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// HasCitations distinguishes a reported zero from "provider has no
	// citation data".
	HasCitations bool `json:"has_citations,omitempty" yaml:"has_citations,omitempty"`

	// PublishedDate is the ISO publication date, when known.
	PublishedDate string `json:"published_date,omitempty" yaml:"published_date,omitempty"`
}

// Source is a normalized search result. Every adapter produces this shape;
// the registry merges, deduplicates, and ranks Sources without knowing
// which provider they came from.
type Source struct {
	// ID is provider-namespaced, e.g. "arxiv:2301.07041" or "pubchem:962".
	ID string `json:"id" yaml:"id"`

	Title    string   `json:"title" yaml:"title"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`
	DOI      string   `json:"doi,omitempty" yaml:"doi,omitempty"`

	Metadata SourceMetadata `json:"metadata" yaml:"metadata"`

	// RelevanceScore is 0-100 and query-specific.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Provider-specific fields. Papers set Journal; patents set
	// Classifications and FiledDate; chemical and materials records use
	// Extra for formula, band gap, and similar properties. The registry
	// ignores all of these.
	Journal         string            `json:"journal,omitempty" yaml:"journal,omitempty"`
	Classifications []string          `json:"classifications,omitempty" yaml:"classifications,omitempty"`
	FiledDate       string            `json:"filed_date,omitempty" yaml:"filed_date,omitempty"`
	Extra           map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}
