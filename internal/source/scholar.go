// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/deep-research/pkg/types"
)

// scholarBase is the scrape endpoint. Declared as a var so tests can
// substitute an httptest server.
var scholarBase = "https://scholar.google.com/scholar"

// resultsPerPage is fixed by the upstream result layout.
const resultsPerPage = 10

var citedByRE = regexp.MustCompile(`Cited by (\d+)`)

// ScholarAdapter scrapes the primary paginated result pages. It is the
// richest source (citations, PDF links) but also the most fragile, so
// every selector miss degrades to a default instead of an error.
type ScholarAdapter struct {
	Client *http.Client
	Cfg    types.SearchSourceConfig
}

func (a *ScholarAdapter) Name() string { return string(types.SourceScholar) }

// Search fetches result pages until limit records accumulate, a page
// comes back empty, or the page budget runs out. A randomized delay
// separates page fetches.
func (a *ScholarAdapter) Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error) {
	maxPages := a.Cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 3
	}

	var records []types.PaperRecord
	for page := 0; page < maxPages && len(records) < limit; page++ {
		if page > 0 {
			delay := randomDelay(a.Cfg.PageDelayMin, a.Cfg.PageDelayMax)
			if err := sleepCtx(ctx, delay); err != nil {
				return records, err
			}
		}

		pageRecords, err := a.fetchPage(ctx, query, page*resultsPerPage)
		if err != nil {
			return records, err
		}
		if len(pageRecords) == 0 {
			break
		}
		records = append(records, pageRecords...)
	}

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// fetchPage retrieves and parses one result page.
func (a *ScholarAdapter) fetchPage(ctx context.Context, query string, start int) ([]types.PaperRecord, error) {
	u := fmt.Sprintf("%s?q=%s&start=%d&hl=en", scholarBase, url.QueryEscape(query), start)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if a.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.Cfg.UserAgent)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching results page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("results page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	var records []types.PaperRecord
	doc.Find(".gs_r.gs_or.gs_scl").Each(func(_ int, sel *goquery.Selection) {
		rec, ok := parseScholarResult(sel)
		if !ok {
			return
		}
		records = append(records, rec)
	})
	return records, nil
}

// parseScholarResult converts one result block into a record. Blocks
// without a title are skipped; every other field is optional.
func parseScholarResult(sel *goquery.Selection) (types.PaperRecord, bool) {
	title := strings.TrimSpace(sel.Find(".gs_rt").First().Text())
	title = strings.TrimPrefix(title, "[PDF]")
	title = strings.TrimPrefix(title, "[HTML]")
	title = strings.TrimPrefix(title, "[BOOK]")
	title = strings.TrimSpace(title)
	if title == "" {
		return types.PaperRecord{}, false
	}

	rec := types.PaperRecord{
		Title:  title,
		Source: types.SourceScholar,
	}

	if href, ok := sel.Find(".gs_rt a").First().Attr("href"); ok {
		rec.PaperURL = href
	}

	byline := strings.TrimSpace(sel.Find(".gs_a").First().Text())
	rec.Authors, rec.Venue = parseByline(byline)
	if year := parseYear(byline); year > 0 {
		rec.Published = yearDate(year)
		rec.PublishedText = strconv.Itoa(year)
	}

	rec.Abstract = strings.TrimSpace(sel.Find(".gs_rs").First().Text())

	sel.Find(".gs_fl a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		m := citedByRE.FindStringSubmatch(link.Text())
		if m == nil {
			return true
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			rec.Citations = n
		}
		return false
	})

	sel.Find(".gs_or_ggsm a, .gs_ggsd a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		if strings.Contains(strings.ToLower(href), ".pdf") || strings.Contains(link.Text(), "[PDF]") {
			rec.PDFLinks = append(rec.PDFLinks, href)
		}
	})

	return rec, true
}

// parseByline splits the "A Author, B Author - Venue, Year - publisher"
// line into authors and venue. Both parts are best-effort.
func parseByline(byline string) (authors []string, venue string) {
	if byline == "" {
		return nil, ""
	}
	parts := strings.Split(byline, " - ")

	for _, name := range strings.Split(parts[0], ",") {
		name = strings.TrimSpace(name)
		if name == "" || name == "…" {
			continue
		}
		authors = append(authors, name)
	}

	if len(parts) > 1 {
		venuePart := parts[1]
		// The venue segment often ends with ", 2019".
		if i := strings.LastIndex(venuePart, ","); i >= 0 && parseYear(venuePart[i:]) > 0 {
			venuePart = venuePart[:i]
		}
		venue = strings.TrimSpace(venuePart)
		if parseYear(venue) > 0 && len(strings.Fields(venue)) == 1 {
			venue = ""
		}
	}
	return authors, venue
}
