// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// scholarlyAPIBase is the scholarly search endpoint. Declared as a var so
// tests can substitute an httptest server.
var scholarlyAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// scholarlyFields selects the record fields requested per result.
const scholarlyFields = "title,authors,abstract,year,publicationDate,citationCount,venue,externalIds,openAccessPdf,url"

// ScholarlyAdapter queries the scholarly graph API, which returns full
// records including citation counts and venues. A fixed delay is inserted
// per returned record to stay under the unauthenticated rate limit.
type ScholarlyAdapter struct {
	Client *http.Client
	Cfg    types.SearchSourceConfig
}

func (a *ScholarlyAdapter) Name() string { return string(types.SourceScholarly) }

// scholarlyResponse mirrors the graph API search response.
type scholarlyResponse struct {
	Data []scholarlyPaper `json:"data"`
}

type scholarlyPaper struct {
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	Year            int    `json:"year"`
	PublicationDate string `json:"publicationDate"`
	CitationCount   int    `json:"citationCount"`
	Venue           string `json:"venue"`
	URL             string `json:"url"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		ArXiv string `json:"ArXiv"`
		DOI   string `json:"DOI"`
	} `json:"externalIds"`
	OpenAccessPDF struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

// Search queries the API once and converts up to limit results.
func (a *ScholarlyAdapter) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	u := fmt.Sprintf("%s?query=%s&limit=%d&fields=%s",
		scholarlyAPIBase, url.QueryEscape(query), limit, url.QueryEscape(scholarlyFields))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if a.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.Cfg.UserAgent)
	}
	if a.Cfg.ScholarlyAPIKey != "" {
		req.Header.Set("x-api-key", a.Cfg.ScholarlyAPIKey)
	}

	// The unauthenticated API rate-limits aggressively; back off on 429.
	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 3)
	if err != nil {
		return nil, fmt.Errorf("scholarly API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scholarly API returned HTTP %d", resp.StatusCode)
	}

	var parsed scholarlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing scholarly response: %w", err)
	}

	var records []types.PaperRecord
	for _, p := range parsed.Data {
		if len(records) >= limit {
			break
		}
		if strings.TrimSpace(p.Title) == "" {
			continue
		}
		if len(records) > 0 {
			if err := sleepCtx(ctx, a.Cfg.RecordDelay); err != nil {
				return records, err
			}
		}

		rec := types.PaperRecord{
			Title:     strings.TrimSpace(p.Title),
			Abstract:  strings.TrimSpace(p.Abstract),
			Citations: p.CitationCount,
			Venue:     p.Venue,
			Source:    types.SourceScholarly,
			ArxivID:   p.ExternalIDs.ArXiv,
			DOI:       p.ExternalIDs.DOI,
			PaperURL:  p.URL,
		}
		for _, au := range p.Authors {
			if name := strings.TrimSpace(au.Name); name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}
		if t, parseErr := time.Parse("2006-01-02", p.PublicationDate); parseErr == nil {
			rec.Published = t
			rec.PublishedText = p.PublicationDate
		} else if p.Year > 0 {
			rec.Published = yearDate(p.Year)
			rec.PublishedText = fmt.Sprintf("%d", p.Year)
		}
		if p.OpenAccessPDF.URL != "" {
			rec.PDFLinks = append(rec.PDFLinks, p.OpenAccessPDF.URL)
		}

		records = append(records, rec)
	}
	return records, nil
}
