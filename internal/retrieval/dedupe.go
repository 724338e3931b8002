// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"regexp"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/pdiddy/deep-research/pkg/types"
)

var nonAlnumRE = regexp.MustCompile(`[^a-z0-9\s]+`)

// normalizeTitle lowercases, strips punctuation, and collapses whitespace
// for exact-mode title comparison.
func normalizeTitle(title string) string {
	s := nonAlnumRE.ReplaceAllString(strings.ToLower(title), " ")
	return strings.Join(strings.Fields(s), " ")
}

// titleSimilarity returns the maximum of four similarity measures between
// two titles. Using the maximum makes dedup robust to the different ways
// sources mangle a title (truncation, punctuation, token order).
func titleSimilarity(a, b string) int {
	best := fuzzy.Ratio(a, b)
	if s := fuzzy.PartialRatio(a, b); s > best {
		best = s
	}
	if s := fuzzy.TokenSortRatio(a, b); s > best {
		best = s
	}
	if s := fuzzy.TokenSetRatio(a, b); s > best {
		best = s
	}
	return best
}

// Dedupe removes duplicate records, keeping the first occurrence and
// backfilling its missing fields from later duplicates. Duplicates are
// detected by shared canonical id (arXiv id or DOI), or by title: exact
// normalized equality when fuzzy matching is off, else a maximum
// similarity at or above SimilarityThreshold+10. The stricter bar than
// filtering's own threshold reflects asymmetric collision cost: dropping
// a true duplicate is safe, merging two distinct papers is not.
func Dedupe(records []types.PaperRecord, filters types.SearchFilters) []types.PaperRecord {
	dedupBar := filters.SimilarityThreshold + 10
	if dedupBar > 100 {
		dedupBar = 100
	}

	seenIDs := map[string]int{}
	seenTitles := map[string]int{}
	var acceptedTitles []string

	var out []types.PaperRecord
	for i := range records {
		rec := records[i]

		if idx, dup := duplicateIndex(rec, seenIDs, seenTitles, acceptedTitles, filters, dedupBar); dup {
			mergeInto(&out[idx], &rec)
			continue
		}

		idx := len(out)
		out = append(out, rec)
		if rec.ArxivID != "" {
			seenIDs["arxiv:"+rec.ArxivID] = idx
		}
		if rec.DOI != "" {
			seenIDs["doi:"+strings.ToLower(rec.DOI)] = idx
		}
		seenTitles[normalizeTitle(rec.Title)] = idx
		acceptedTitles = append(acceptedTitles, rec.Title)
	}
	return out
}

// duplicateIndex reports whether rec duplicates an accepted record and
// returns that record's index in the output.
func duplicateIndex(rec types.PaperRecord, seenIDs, seenTitles map[string]int, acceptedTitles []string, filters types.SearchFilters, bar int) (int, bool) {
	if rec.ArxivID != "" {
		if idx, ok := seenIDs["arxiv:"+rec.ArxivID]; ok {
			return idx, true
		}
	}
	if rec.DOI != "" {
		if idx, ok := seenIDs["doi:"+strings.ToLower(rec.DOI)]; ok {
			return idx, true
		}
	}

	norm := normalizeTitle(rec.Title)
	if idx, ok := seenTitles[norm]; ok {
		return idx, true
	}
	if filters.FuzzyMatch {
		// acceptedTitles is index-aligned with the output slice.
		for i, accepted := range acceptedTitles {
			if titleSimilarity(normalizeTitle(accepted), norm) >= bar {
				return i, true
			}
		}
	}
	return 0, false
}

// mergeInto backfills fields the kept record lacks from a dropped
// duplicate. Citation counts take the maximum since sources lag each
// other.
func mergeInto(kept, dup *types.PaperRecord) {
	if kept.Abstract == "" {
		kept.Abstract = dup.Abstract
	}
	if dup.Citations > kept.Citations {
		kept.Citations = dup.Citations
	}
	if kept.Venue == "" {
		kept.Venue = dup.Venue
	}
	if kept.ArxivID == "" {
		kept.ArxivID = dup.ArxivID
	}
	if kept.DOI == "" {
		kept.DOI = dup.DOI
	}
	if kept.Published.IsZero() && !dup.Published.IsZero() {
		kept.Published = dup.Published
		kept.PublishedText = dup.PublishedText
	}
	if kept.PaperURL == "" {
		kept.PaperURL = dup.PaperURL
	}
	kept.PDFLinks = append(kept.PDFLinks, dup.PDFLinks...)
	if kept.PDFURL == "" {
		kept.PDFURL = dup.PDFURL
	}
}
