// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// dblpAPIBase is the DBLP publication search endpoint. Declared as a var
// so tests can substitute an httptest server.
var dblpAPIBase = "https://dblp.org/search/publ/api"

// DBLPAdapter queries the DBLP bibliographic index. DBLP carries no
// abstracts or citation counts, so those fields stay empty/zero.
type DBLPAdapter struct {
	Client *http.Client
	Cfg    types.SearchSourceConfig
}

func (a *DBLPAdapter) Name() string { return string(types.SourceDBLP) }

// DBLP search response XML structures.
type dblpResult struct {
	Hits struct {
		Hit []struct {
			Info dblpInfo `xml:"info"`
		} `xml:"hit"`
	} `xml:"hits"`
}

type dblpInfo struct {
	Title   string `xml:"title"`
	Venue   string `xml:"venue"`
	Year    int    `xml:"year"`
	EE      string `xml:"ee"`
	DOI     string `xml:"doi"`
	Authors struct {
		Author []string `xml:"author"`
	} `xml:"authors"`
}

// Search queries the publication endpoint once and converts up to limit
// hits. Hits without a title are skipped.
func (a *DBLPAdapter) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	u := fmt.Sprintf("%s?q=%s&h=%d&format=xml", dblpAPIBase, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if a.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.Cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("DBLP API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DBLP API returned HTTP %d", resp.StatusCode)
	}

	var parsed dblpResult
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing DBLP response: %w", err)
	}

	var records []types.PaperRecord
	for _, hit := range parsed.Hits.Hit {
		if len(records) >= limit {
			break
		}
		title := strings.TrimSuffix(strings.TrimSpace(hit.Info.Title), ".")
		if title == "" {
			continue
		}

		rec := types.PaperRecord{
			Title:  title,
			Venue:  hit.Info.Venue,
			Source: types.SourceDBLP,
			DOI:    hit.Info.DOI,
		}
		for _, name := range hit.Info.Authors.Author {
			if name = strings.TrimSpace(name); name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}
		if hit.Info.Year > 0 {
			rec.Published = yearDate(hit.Info.Year)
			rec.PublishedText = fmt.Sprintf("%d", hit.Info.Year)
		}
		switch {
		case hit.Info.EE != "":
			rec.PaperURL = hit.Info.EE
		case hit.Info.DOI != "":
			rec.PaperURL = "https://doi.org/" + hit.Info.DOI
		}

		records = append(records, rec)
	}
	return records, nil
}
