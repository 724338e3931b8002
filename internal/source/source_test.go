// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v5</id>
    <title>Attention Is All
 You Need</title>
    <summary>  The dominant sequence transduction models...  </summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
    <link href="http://arxiv.org/abs/1706.03762v5" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v5" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://example.org/not-arxiv</id>
    <title>Malformed entry</title>
  </entry>
</feed>`

func TestArxivAdapterSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_query"); got == "" {
			t.Error("missing search_query parameter")
		}
		io.WriteString(w, arxivFeedXML)
	}))
	defer srv.Close()

	oldBase := arxivAPIBase
	arxivAPIBase = srv.URL
	defer func() { arxivAPIBase = oldBase }()

	a := &ArxivAdapter{Client: srv.Client()}
	records, err := a.Search(context.Background(), "attention transformers", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (malformed entry skipped)", len(records))
	}

	rec := records[0]
	if rec.Title != "Attention Is All You Need" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.ArxivID != "1706.03762" {
		t.Errorf("arxiv id = %q, want 1706.03762", rec.ArxivID)
	}
	if rec.Source != types.SourceArxiv {
		t.Errorf("source = %q", rec.Source)
	}
	if rec.Citations != 0 {
		t.Errorf("citations = %d, want 0", rec.Citations)
	}
	if len(rec.Authors) != 2 || rec.Authors[0] != "Ashish Vaswani" {
		t.Errorf("authors = %v", rec.Authors)
	}
	if len(rec.Categories) != 2 || rec.Categories[0] != "cs.CL" {
		t.Errorf("categories = %v", rec.Categories)
	}
	if len(rec.PDFLinks) != 1 || rec.PDFLinks[0] != "http://arxiv.org/pdf/1706.03762v5" {
		t.Errorf("pdf links = %v", rec.PDFLinks)
	}
	if rec.PublishedText != "2017-06-12" {
		t.Errorf("published = %q", rec.PublishedText)
	}
}

const dblpResultXML = `<?xml version="1.0" encoding="UTF-8"?>
<result>
  <hits total="2">
    <hit>
      <info>
        <authors><author>Jacob Devlin</author><author>Ming-Wei Chang</author></authors>
        <title>BERT: Pre-training of Deep Bidirectional Transformers.</title>
        <venue>NAACL-HLT</venue>
        <year>2019</year>
        <ee>https://doi.org/10.18653/v1/n19-1423</ee>
        <doi>10.18653/V1/N19-1423</doi>
      </info>
    </hit>
    <hit>
      <info>
        <title></title>
      </info>
    </hit>
  </hits>
</result>`

func TestDBLPAdapterSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "xml" {
			t.Errorf("format = %q, want xml", got)
		}
		io.WriteString(w, dblpResultXML)
	}))
	defer srv.Close()

	oldBase := dblpAPIBase
	dblpAPIBase = srv.URL
	defer func() { dblpAPIBase = oldBase }()

	a := &DBLPAdapter{Client: srv.Client()}
	records, err := a.Search(context.Background(), "bert", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (titleless hit skipped)", len(records))
	}

	rec := records[0]
	if rec.Title != "BERT: Pre-training of Deep Bidirectional Transformers" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Source != types.SourceDBLP {
		t.Errorf("source = %q", rec.Source)
	}
	if rec.Abstract != "" {
		t.Errorf("abstract = %q, want empty for DBLP", rec.Abstract)
	}
	if rec.Venue != "NAACL-HLT" {
		t.Errorf("venue = %q", rec.Venue)
	}
	if rec.PublishedText != "2019" {
		t.Errorf("published = %q", rec.PublishedText)
	}
	if rec.PaperURL != "https://doi.org/10.18653/v1/n19-1423" {
		t.Errorf("paper url = %q", rec.PaperURL)
	}
	if len(rec.Authors) != 2 {
		t.Errorf("authors = %v", rec.Authors)
	}
}

const scholarlyJSON = `{
  "data": [
    {
      "title": "Attention Is All You Need",
      "abstract": "The dominant sequence transduction models...",
      "year": 2017,
      "publicationDate": "2017-06-12",
      "citationCount": 90000,
      "venue": "NeurIPS",
      "url": "https://www.semanticscholar.org/paper/abc",
      "authors": [{"name": "Ashish Vaswani"}],
      "externalIds": {"ArXiv": "1706.03762", "DOI": "10.5555/3295222"},
      "openAccessPdf": {"url": "https://arxiv.org/pdf/1706.03762"}
    },
    {
      "title": "  "
    }
  ]
}`

func TestScholarlyAdapterSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "sk-test" {
			t.Errorf("x-api-key = %q, want sk-test", got)
		}
		io.WriteString(w, scholarlyJSON)
	}))
	defer srv.Close()

	oldBase := scholarlyAPIBase
	scholarlyAPIBase = srv.URL
	defer func() { scholarlyAPIBase = oldBase }()

	a := &ScholarlyAdapter{
		Client: srv.Client(),
		Cfg:    types.SearchSourceConfig{ScholarlyAPIKey: "sk-test"},
	}
	records, err := a.Search(context.Background(), "attention", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (blank title skipped)", len(records))
	}

	rec := records[0]
	if rec.Citations != 90000 {
		t.Errorf("citations = %d", rec.Citations)
	}
	if rec.Venue != "NeurIPS" {
		t.Errorf("venue = %q", rec.Venue)
	}
	if rec.ArxivID != "1706.03762" {
		t.Errorf("arxiv id = %q", rec.ArxivID)
	}
	if rec.PublishedText != "2017-06-12" {
		t.Errorf("published = %q", rec.PublishedText)
	}
	if len(rec.PDFLinks) != 1 {
		t.Errorf("pdf links = %v", rec.PDFLinks)
	}
	if rec.Source != types.SourceScholarly {
		t.Errorf("source = %q", rec.Source)
	}
}

func TestScholarlyAdapterRetriesRateLimit(t *testing.T) {
	oldDelay := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = oldDelay }()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, scholarlyJSON)
	}))
	defer srv.Close()

	oldBase := scholarlyAPIBase
	scholarlyAPIBase = srv.URL
	defer func() { scholarlyAPIBase = oldBase }()

	a := &ScholarlyAdapter{Client: srv.Client()}
	records, err := a.Search(context.Background(), "attention", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if calls != 3 {
		t.Errorf("expected 2 rate-limited attempts before success, got %d calls", calls)
	}
}

func scholarResultHTML(title string, citations int) string {
	return fmt.Sprintf(`<div class="gs_r gs_or gs_scl">
  <div class="gs_ggs gs_fl"><div class="gs_or_ggsm"><a href="https://example.org/%s.pdf">[PDF] example.org</a></div></div>
  <div class="gs_ri">
    <h3 class="gs_rt"><a href="https://example.org/%s">%s</a></h3>
    <div class="gs_a">A Vaswani, N Shazeer - Advances in neural information processing systems, 2017 - proceedings.neurips.cc</div>
    <div class="gs_rs">We propose a new simple network architecture...</div>
    <div class="gs_fl"><a href="#">Save</a> <a href="#">Cited by %d</a> <a href="#">Related articles</a></div>
  </div>
</div>`, title, title, title, citations)
}

func TestScholarAdapterSearch(t *testing.T) {
	var starts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		starts = append(starts, start)
		if start != "0" {
			io.WriteString(w, `<html><body></body></html>`)
			return
		}
		io.WriteString(w, "<html><body>"+
			scholarResultHTML("attention-paper", 90000)+
			scholarResultHTML("second-paper", 12)+
			"</body></html>")
	}))
	defer srv.Close()

	oldBase := scholarBase
	scholarBase = srv.URL
	defer func() { scholarBase = oldBase }()

	a := &ScholarAdapter{Client: srv.Client(), Cfg: types.SearchSourceConfig{MaxPages: 3}}
	records, err := a.Search(context.Background(), "attention", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Empty second page stops pagination before the page budget.
	if len(starts) != 2 {
		t.Errorf("fetched %d pages, want 2: %v", len(starts), starts)
	}

	rec := records[0]
	if rec.Title != "attention-paper" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Citations != 90000 {
		t.Errorf("citations = %d, want 90000", rec.Citations)
	}
	if len(rec.Authors) != 2 || rec.Authors[0] != "A Vaswani" {
		t.Errorf("authors = %v", rec.Authors)
	}
	if rec.Venue != "Advances in neural information processing systems" {
		t.Errorf("venue = %q", rec.Venue)
	}
	if rec.PublishedText != "2017" {
		t.Errorf("published = %q", rec.PublishedText)
	}
	if len(rec.PDFLinks) != 1 || rec.PDFLinks[0] != "https://example.org/attention-paper.pdf" {
		t.Errorf("pdf links = %v", rec.PDFLinks)
	}
	if records[1].Citations != 12 {
		t.Errorf("second record citations = %d, want 12", records[1].Citations)
	}
}

func TestScholarAdapterHonorsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>"+
			scholarResultHTML("p1", 1)+
			scholarResultHTML("p2", 2)+
			scholarResultHTML("p3", 3)+
			"</body></html>")
	}))
	defer srv.Close()

	oldBase := scholarBase
	scholarBase = srv.URL
	defer func() { scholarBase = oldBase }()

	a := &ScholarAdapter{Client: srv.Client(), Cfg: types.SearchSourceConfig{MaxPages: 3}}
	records, err := a.Search(context.Background(), "x", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want limit of 2", len(records))
	}
}

func TestParseByline(t *testing.T) {
	tests := []struct {
		name        string
		byline      string
		wantAuthors int
		wantVenue   string
	}{
		{"full", "A Vaswani, N Shazeer - NeurIPS, 2017 - neurips.cc", 2, "NeurIPS"},
		{"no venue", "J Smith - 2019 - example.org", 1, ""},
		{"empty", "", 0, ""},
		{"ellipsis author", "A Vaswani, … - NeurIPS, 2017", 1, "NeurIPS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authors, venue := parseByline(tt.byline)
			if len(authors) != tt.wantAuthors {
				t.Errorf("authors = %v, want %d entries", authors, tt.wantAuthors)
			}
			if venue != tt.wantVenue {
				t.Errorf("venue = %q, want %q", venue, tt.wantVenue)
			}
		})
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/1706.03762v5", "1706.03762"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://example.org/other", ""},
	}
	for _, tt := range tests {
		if got := extractArxivID(tt.in); got != tt.want {
			t.Errorf("extractArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
