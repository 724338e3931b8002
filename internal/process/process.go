// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package process downloads paper PDFs and extracts their text into
// bounded chunks for analysis.
package process

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"rsc.io/pdf"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Processor resolves, downloads, and extracts one paper at a time.
// A nil record from Process signals irrecoverable failure; the caller
// decides whether the abstract can stand in for the full text.
type Processor struct {
	cfg      types.ProcessConfig
	client   *http.Client
	registry *handlerRegistry
	logw     io.Writer
}

// NewProcessor builds a Processor writing progress lines to w.
func NewProcessor(cfg types.ProcessConfig, w io.Writer) *Processor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Processor{
		cfg:      cfg,
		client:   &http.Client{Timeout: timeout},
		registry: newHandlerRegistry(),
		logw:     w,
	}
}

// Process tries each candidate PDF location for the record until one
// downloads and yields text, then returns a copy of the record with
// TextChunks and TextLength filled. It returns nil when every candidate
// fails.
func (p *Processor) Process(ctx context.Context, rec *types.PaperRecord, downloadDir string) *types.PaperRecord {
	candidates := p.candidateURLs(rec)
	if len(candidates) == 0 {
		fmt.Fprintf(p.logw, "no PDF candidates for %q\n", rec.Title)
		return nil
	}

	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		fmt.Fprintf(p.logw, "warning: creating download dir: %v\n", err)
		return nil
	}

	dest := filepath.Join(downloadDir, sanitizeFilename(rec.Title)+".pdf")
	for _, u := range candidates {
		if ctx.Err() != nil {
			return nil
		}
		if err := p.download(ctx, u, dest); err != nil {
			fmt.Fprintf(p.logw, "warning: download failed from %s: %v\n", u, err)
			continue
		}

		text, err := extractText(dest)
		if err != nil || strings.TrimSpace(text) == "" {
			fmt.Fprintf(p.logw, "warning: extraction failed for %q: %v\n", rec.Title, err)
			continue
		}

		out := *rec
		out.PDFURL = u
		out.TextChunks = chunkText(text, p.cfg.ChunkSize, p.cfg.MaxChunks)
		out.TextLength = len(text)
		fmt.Fprintf(p.logw, "processed %q: %d chars in %d chunks\n", rec.Title, out.TextLength, len(out.TextChunks))
		return &out
	}
	return nil
}

// candidateURLs orders the record's PDF locations: the resolved primary
// URL, then harvested links, then handler rewrites of the landing page.
// Duplicates are removed in order.
func (p *Processor) candidateURLs(rec *types.PaperRecord) []string {
	var raw []string
	if rec.PDFURL != "" {
		raw = append(raw, rec.PDFURL)
	}
	raw = append(raw, rec.PDFLinks...)
	if rec.ArxivID != "" {
		raw = append(raw, "https://arxiv.org/pdf/"+rec.ArxivID)
	}
	if rec.PaperURL != "" {
		raw = append(raw, p.registry.candidatesFor(rec.PaperURL)...)
	}

	var out []string
	seen := map[string]bool{}
	for _, u := range raw {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// download fetches url to destPath using a temporary file so a partial
// download never looks complete.
func (p *Processor) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".process-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// extractText pulls the text content from every page of a PDF. The
// parser panics on malformed files, so the panic is converted to an
// error here.
func extractText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, t := range page.Content().Text {
			b.WriteString(t.S)
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// chunkText splits text into up to maxChunks pieces of chunkSize
// characters each, breaking on rune boundaries.
func chunkText(text string, chunkSize, maxChunks int) []string {
	if chunkSize <= 0 {
		chunkSize = 8000
	}
	if maxChunks <= 0 {
		maxChunks = 5
	}

	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes) && len(chunks) < maxChunks; start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

var unsafeFilenameRE = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeTopic converts free text into a filesystem-safe slug used for
// per-run download directories.
func SanitizeTopic(topic string) string {
	slug := unsafeFilenameRE.ReplaceAllString(strings.TrimSpace(topic), "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	if slug == "" {
		slug = "topic"
	}
	return slug
}

func sanitizeFilename(name string) string {
	return SanitizeTopic(name)
}
