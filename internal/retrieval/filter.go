// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Passes reports whether a record satisfies every configured filter. Pure:
// the record is never modified.
func Passes(rec *types.PaperRecord, filters types.SearchFilters) bool {
	if !passesDate(rec, filters) {
		return false
	}
	if rec.Citations < filters.MinCitations {
		return false
	}
	if filters.MaxCitations > 0 && rec.Citations > filters.MaxCitations {
		return false
	}
	if !passesVenues(rec, filters) {
		return false
	}
	if !passesCategories(rec, filters) {
		return false
	}
	if filters.MinAbstractLength > 0 && len(rec.Abstract) < filters.MinAbstractLength {
		return false
	}
	return true
}

// passesDate checks the publication window. Records with unknown dates
// bypass date filtering rather than being rejected.
func passesDate(rec *types.PaperRecord, filters types.SearchFilters) bool {
	if rec.Published.IsZero() {
		return true
	}
	if !filters.StartDate.IsZero() && rec.Published.Before(filters.StartDate) {
		return false
	}
	if !filters.EndDate.IsZero() && rec.Published.After(filters.EndDate) {
		return false
	}
	return true
}

// passesVenues applies the venue allow-list and deny-list against the
// record's combined searchable text.
func passesVenues(rec *types.PaperRecord, filters types.SearchFilters) bool {
	if len(filters.Venues) == 0 && len(filters.ExcludeVenues) == 0 {
		return true
	}
	text := strings.ToLower(rec.SearchText())

	if len(filters.Venues) > 0 {
		matched := false
		for _, venue := range filters.Venues {
			if matchesVenue(text, venue, filters) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, venue := range filters.ExcludeVenues {
		if matchesVenue(text, venue, filters) {
			return false
		}
	}
	return true
}

// matchesVenue checks one venue against the record text. Fuzzy mode
// expands short venue codes to their known full-name aliases and uses
// partial-ratio matching; exact mode degrades to case-insensitive
// substring containment of the literal venue.
func matchesVenue(text, venue string, filters types.SearchFilters) bool {
	if !filters.FuzzyMatch {
		v := strings.ToLower(strings.TrimSpace(venue))
		return v != "" && strings.Contains(text, v)
	}
	for _, candidate := range expandVenue(venue) {
		if candidate == "" {
			continue
		}
		if fuzzy.PartialRatio(candidate, text) >= filters.SimilarityThreshold {
			return true
		}
	}
	return false
}

// passesCategories applies the category allow-list, which is meaningful
// only for the preprint archive source; records from other sources bypass
// it. A bare filter prefix such as "cs" matches any "cs.*" category.
func passesCategories(rec *types.PaperRecord, filters types.SearchFilters) bool {
	if len(filters.Categories) == 0 || rec.Source != types.SourceArxiv {
		return true
	}
	for _, cat := range rec.Categories {
		catLower := strings.ToLower(cat)
		for _, want := range filters.Categories {
			wantLower := strings.ToLower(want)
			if catLower == wantLower || strings.HasPrefix(catLower, wantLower+".") {
				return true
			}
		}
	}
	return false
}
