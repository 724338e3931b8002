// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivAdapter queries the arXiv Atom API. Metadata is reliable
// (categories, canonical id, PDF URL) but citation counts are not
// tracked, so Citations is always 0 for this source.
type ArxivAdapter struct {
	Client *http.Client
	Cfg    types.SearchSourceConfig
}

func (a *ArxivAdapter) Name() string { return string(types.SourceArxiv) }

// Search queries the API once and converts up to limit entries. Entries
// without a recognizable arXiv id are skipped.
func (a *ArxivAdapter) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty arXiv query")
	}
	q := "all:" + strings.Join(terms, "+")

	u := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if a.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.Cfg.UserAgent)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var records []types.PaperRecord
	for _, entry := range feed.Entries {
		if len(records) >= limit {
			break
		}
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		rec := types.PaperRecord{
			Title:    strings.Join(strings.Fields(entry.Title), " "),
			Abstract: strings.TrimSpace(entry.Summary),
			Source:   types.SourceArxiv,
			ArxivID:  arxivID,
			PaperURL: "https://arxiv.org/abs/" + arxivID,
		}
		for _, au := range entry.Authors {
			if name := strings.TrimSpace(au.Name); name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			rec.Published = t
			rec.PublishedText = t.Format("2006-01-02")
		}
		for _, cat := range entry.Categories {
			if cat.Term != "" {
				rec.Categories = append(rec.Categories, cat.Term)
			}
		}
		for _, link := range entry.Links {
			if link.Title == "pdf" || strings.Contains(link.Href, "/pdf/") {
				rec.PDFLinks = append(rec.PDFLinks, link.Href)
			}
		}
		if len(rec.PDFLinks) == 0 {
			rec.PDFLinks = []string{"https://arxiv.org/pdf/" + arxivID}
		}

		records = append(records, rec)
	}
	return records, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	Links      []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/1706.03762v5" -> "1706.03762").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
