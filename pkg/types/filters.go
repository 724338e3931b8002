// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SearchFilters constrains which retrieved papers are accepted. The value
// is fixed for one research session; the zero value accepts everything
// except that fuzzy matching defaults off (use DefaultFilters for the
// usual configuration).
type SearchFilters struct {
	// StartDate and EndDate bound the publication date, inclusive.
	// Zero means unbounded on that side. Papers with unknown dates
	// bypass date filtering.
	StartDate time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`

	// MinCitations rejects papers below this citation count.
	MinCitations int `json:"min_citations,omitempty" yaml:"min_citations,omitempty"`

	// MaxCitations rejects papers above this count when positive;
	// zero means unbounded.
	MaxCitations int `json:"max_citations,omitempty" yaml:"max_citations,omitempty"`

	// Venues restricts results to papers whose combined text matches at
	// least one listed venue. Short venue codes expand to known
	// full-name aliases before matching ("NeurIPS" also matches
	// "Advances in Neural Information Processing Systems"). Empty means
	// no restriction.
	Venues []string `json:"venues,omitempty" yaml:"venues,omitempty"`

	// ExcludeVenues rejects papers matching any listed venue, with the
	// same alias expansion.
	ExcludeVenues []string `json:"exclude_venues,omitempty" yaml:"exclude_venues,omitempty"`

	// Categories restricts arXiv results to the listed subject
	// categories. A bare prefix such as "cs" matches any "cs.*"
	// category. Ignored for other sources.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// MinAbstractLength rejects papers whose abstract is shorter than
	// this many characters.
	MinAbstractLength int `json:"min_abstract_length,omitempty" yaml:"min_abstract_length,omitempty"`

	// FuzzyMatch enables similarity-based venue matching and title
	// deduplication. When false, matching degrades to case-insensitive
	// substring containment and exact normalized-title comparison.
	FuzzyMatch bool `json:"fuzzy_match" yaml:"fuzzy_match"`

	// SimilarityThreshold is the 0-100 score at or above which two
	// strings count as a fuzzy match. Deduplication applies a stricter
	// bar of SimilarityThreshold+10.
	SimilarityThreshold int `json:"similarity_threshold" yaml:"similarity_threshold"`
}

// MatchMode names the active matching strategy for log lines.
func (f SearchFilters) MatchMode() string {
	if f.FuzzyMatch {
		return "fuzzy"
	}
	return "exact"
}

// DefaultFilters returns the filters used when the caller specifies none:
// fuzzy matching on at threshold 80, everything else unbounded.
func DefaultFilters() SearchFilters {
	return SearchFilters{
		FuzzyMatch:          true,
		SimilarityThreshold: 80,
	}
}
