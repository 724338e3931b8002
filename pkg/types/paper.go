// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline.
package types

import (
	"fmt"
	"time"
)

// PaperSource identifies which retrieval source produced a PaperRecord.
type PaperSource string

const (
	SourceScholar   PaperSource = "primary-scholar"
	SourceScholarly PaperSource = "scholarly-lib"
	SourceDBLP      PaperSource = "dblp"
	SourceArxiv     PaperSource = "arxiv"
)

// knownSources is the closed set of valid PaperSource values.
var knownSources = map[PaperSource]bool{
	SourceScholar:   true,
	SourceScholarly: true,
	SourceDBLP:      true,
	SourceArxiv:     true,
}

// UnknownDate is the sentinel used for records whose publication date
// could not be determined.
const UnknownDate = "Unknown"

// PaperRecord represents one retrieved publication candidate. Records are
// created by a source adapter, validated once at that boundary, and then
// flow read-only through filtering and deduplication. The processing and
// analysis stages backfill TextChunks, TextLength, and Analysis in place;
// those augmentations never change the record's identity.
type PaperRecord struct {
	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order. Never empty after
	// validation: unknown authorship becomes ["Unknown Author"].
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary. May be empty; DBLP in
	// particular does not provide abstracts.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Published is the publication date, zero if unknown.
	Published time.Time `json:"published" yaml:"published"`

	// PublishedText is a display form of the date ("2017-06-12", "2019",
	// or "Unknown").
	PublishedText string `json:"published_str" yaml:"published_str"`

	// Citations is the citation count reported by the source, 0 when the
	// source does not track citations (DBLP, arXiv).
	Citations int `json:"citations" yaml:"citations"`

	// Venue is the conference or journal, when known.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Source tags the adapter that found this record.
	Source PaperSource `json:"source" yaml:"source"`

	// ArxivID is the canonical arXiv identifier (e.g. "1706.03762") when
	// known. Used as a strong deduplication key.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// DOI is the document object identifier, when the source reports one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Categories lists source-specific subject categories (arXiv only,
	// e.g. "cs.LG").
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// PaperURL is the landing page for the paper.
	PaperURL string `json:"paper_url,omitempty" yaml:"paper_url,omitempty"`

	// PDFLinks lists candidate PDF locations in discovery order.
	PDFLinks []string `json:"pdf_links,omitempty" yaml:"pdf_links,omitempty"`

	// PDFURL is the resolved primary PDF location, empty if none.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// TextChunks holds extracted full-text segments, filled by the
	// processing stage.
	TextChunks []string `json:"text_chunks,omitempty" yaml:"text_chunks,omitempty"`

	// TextLength is the total extracted character count.
	TextLength int `json:"text_length,omitempty" yaml:"text_length,omitempty"`

	// Analysis is the per-paper analysis text, filled by the analysis stage.
	Analysis string `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Validate normalizes a record in place so downstream consumers never
// re-check field shape: authors fall back to a one-element placeholder,
// negative citation counts clamp to zero, the date display string is
// backfilled, and the first PDF link is promoted when no primary PDF URL
// was resolved. An unknown source tag is the only hard error.
func (p *PaperRecord) Validate() error {
	if !knownSources[p.Source] {
		return fmt.Errorf("unknown paper source %q", p.Source)
	}
	if len(p.Authors) == 0 {
		p.Authors = []string{"Unknown Author"}
	}
	if p.Citations < 0 {
		p.Citations = 0
	}
	if p.PublishedText == "" {
		if p.Published.IsZero() {
			p.PublishedText = UnknownDate
		} else {
			p.PublishedText = p.Published.Format("2006-01-02")
		}
	}
	if p.PDFURL == "" && len(p.PDFLinks) > 0 {
		p.PDFURL = p.PDFLinks[0]
	}
	return nil
}

// SearchText returns the combined text used for venue matching: title,
// authors, and venue joined with spaces.
func (p *PaperRecord) SearchText() string {
	text := p.Title
	for _, a := range p.Authors {
		text += " " + a
	}
	if p.Venue != "" {
		text += " " + p.Venue
	}
	return text
}
