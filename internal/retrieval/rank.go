// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// sourceWeights order the sources by metadata richness and result
// quality.
var sourceWeights = map[types.PaperSource]float64{
	types.SourceScholar:   4,
	types.SourceScholarly: 3,
	types.SourceDBLP:      2,
	types.SourceArxiv:     1,
}

// Rank orders records by descending relevance score. The sort is stable:
// records with equal scores keep their original relative order.
func Rank(records []types.PaperRecord, filters types.SearchFilters) []types.PaperRecord {
	out := make([]types.PaperRecord, len(records))
	copy(out, records)
	now := time.Now()
	sort.SliceStable(out, func(i, j int) bool {
		return score(&out[i], filters, now) > score(&out[j], filters, now)
	})
	return out
}

// score computes the composite relevance score: citations contribute up
// to 10 points, recency up to 5, the source weight up to 4, and a flat
// +5 when the record matches a configured venue filter.
func score(rec *types.PaperRecord, filters types.SearchFilters, now time.Time) float64 {
	s := float64(rec.Citations) / 100
	if s > 10 {
		s = 10
	}

	if !rec.Published.IsZero() {
		days := now.Sub(rec.Published).Hours() / 24
		recency := 5 - days/365
		if recency > 0 {
			s += recency
		}
	}

	s += sourceWeights[rec.Source]

	if len(filters.Venues) > 0 {
		text := strings.ToLower(rec.SearchText())
		for _, venue := range filters.Venues {
			if matchesVenue(text, venue, filters) {
				s += 5
				break
			}
		}
	}
	return s
}
