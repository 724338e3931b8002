// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze turns processed papers into per-paper analyses, a
// cumulative summary, and an adequacy evaluation of topic coverage.
package analyze

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Analyzer runs the language-model-backed analysis stages.
type Analyzer struct {
	llm  llm.Completer
	cfg  types.ResearchConfig
	logw io.Writer
}

// NewAnalyzer builds an Analyzer writing progress lines to w.
func NewAnalyzer(c llm.Completer, cfg types.ResearchConfig, w io.Writer) *Analyzer {
	return &Analyzer{llm: c, cfg: cfg, logw: w}
}

// Analyze produces the analysis text for one paper. Text chunks are
// folded in cumulatively: each chunk is analyzed together with the
// running analysis so far, and multi-chunk results get one final
// restructuring pass. With no chunks the abstract alone is analyzed.
func (a *Analyzer) Analyze(ctx context.Context, rec *types.PaperRecord) (string, error) {
	header := fmt.Sprintf("Title: %s\nAuthors: %s\n", rec.Title, strings.Join(rec.Authors, ", "))

	if len(rec.TextChunks) == 0 {
		var b strings.Builder
		b.WriteString("Analyze the following paper for a literature review.\n\n")
		b.WriteString(header)
		if rec.Abstract != "" {
			fmt.Fprintf(&b, "Abstract: %s\n", rec.Abstract)
		}
		b.WriteString("\nSummarize the paper's contributions, methods, and key findings.")
		return a.llm.Complete(ctx, b.String(), 0.3, false)
	}

	var running string
	for i, chunk := range rec.TextChunks {
		var b strings.Builder
		fmt.Fprintf(&b, "Analyze part %d/%d of a paper for a literature review.\n\n", i+1, len(rec.TextChunks))
		b.WriteString(header)
		if running != "" {
			fmt.Fprintf(&b, "\nAnalysis so far:\n%s\n", running)
		}
		fmt.Fprintf(&b, "\nText:\n%s\n", chunk)
		b.WriteString("\nUpdate the analysis to incorporate this part.")

		out, err := a.llm.Complete(ctx, b.String(), 0.3, false)
		if err != nil {
			return "", fmt.Errorf("analyzing part %d: %w", i+1, err)
		}
		running = out
	}

	if len(rec.TextChunks) == 1 {
		return running, nil
	}

	var b strings.Builder
	b.WriteString("Restructure this incremental paper analysis into a coherent final analysis\n")
	b.WriteString("covering contributions, methods, and key findings.\n\n")
	b.WriteString(header)
	fmt.Fprintf(&b, "\nAnalysis:\n%s\n", running)
	return a.llm.Complete(ctx, b.String(), 0.3, false)
}

// AnalyzeBatch analyzes up to the configured batch size of papers with a
// bounded worker pool, returning the subset that succeeded with their
// Analysis field filled. Failed analyses are logged and excluded; the
// batch itself never fails.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, records []types.PaperRecord) []types.PaperRecord {
	batch := records
	if a.cfg.AnalysisBatchSize > 0 && len(batch) > a.cfg.AnalysisBatchSize {
		batch = batch[:a.cfg.AnalysisBatchSize]
	}

	// Concurrency is bounded by the configured worker count, the size of
	// the credential pool, and the batch itself: more workers than keys
	// just stack requests on the same credential.
	workers := a.cfg.AnalysisWorkers
	if workers <= 0 {
		workers = 1
	}
	if kc, ok := a.llm.(interface{ KeyCount() int }); ok {
		if n := kc.KeyCount(); n > 0 && n < workers {
			workers = n
		}
	}
	if len(batch) > 0 && len(batch) < workers {
		workers = len(batch)
	}

	results := make([]string, len(batch))
	ok := make([]bool, len(batch))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range batch {
		if i > 0 && a.cfg.AnalysisDelay > 0 {
			select {
			case <-gctx.Done():
			case <-time.After(a.cfg.AnalysisDelay):
			}
		}

		i := i
		g.Go(func() error {
			analysis, err := a.Analyze(gctx, &batch[i])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(a.logw, "warning: analysis failed for %q: %v\n", batch[i].Title, err)
				return nil
			}
			results[i] = analysis
			ok[i] = true
			return nil
		})
	}
	g.Wait()

	var analyzed []types.PaperRecord
	for i := range batch {
		if !ok[i] {
			continue
		}
		rec := batch[i]
		rec.Analysis = results[i]
		analyzed = append(analyzed, rec)
	}
	fmt.Fprintf(a.logw, "analyzed %d/%d papers\n", len(analyzed), len(batch))
	return analyzed
}

// Summarize synthesizes the cumulative analyses into one literature
// review summary using the high-capacity model.
func (a *Analyzer) Summarize(ctx context.Context, topic string, records []types.PaperRecord) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no analyses to summarize")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Synthesize a literature review summary on %q from these paper analyses.\n", topic)
	for i := range records {
		fmt.Fprintf(&b, "\n--- Paper %d: %s ---\n%s\n", i+1, records[i].Title, records[i].Analysis)
	}
	b.WriteString("\nCover the main research directions, methods, consensus findings, and open problems.")

	return a.llm.Complete(ctx, b.String(), 0.3, true)
}
