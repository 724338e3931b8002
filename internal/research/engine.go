// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research drives the round-based literature review: generate
// queries, retrieve papers, process and analyze them, evaluate coverage,
// and decide whether another round is needed.
package research

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/process"
	"github.com/pdiddy/deep-research/internal/retrieval"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Decision reason strings recorded on every round.
const (
	ReasonInsufficientCount    = "insufficient paper count"
	ReasonInsufficientAdequacy = "insufficient adequacy score"
	ReasonBothSatisfied        = "both satisfied"
	ReasonNoPapers             = "no papers found this round"
	ReasonProcessingFailed     = "paper processing failed"
)

// QueryGenerator produces search queries for a round.
type QueryGenerator interface {
	Generate(ctx context.Context, topic string, n int) []string
	GenerateFollowup(ctx context.Context, topic string, missingAreas, previousQueries []string, n int) []string
}

// Retriever runs a query list through the source waterfall.
type Retriever interface {
	SearchQueries(ctx context.Context, queries []string, filters types.SearchFilters) []types.PaperRecord
}

// Processor extracts a paper's text. A nil return signals irrecoverable
// failure; the engine then falls back to the abstract when one exists.
type Processor interface {
	Process(ctx context.Context, rec *types.PaperRecord, downloadDir string) *types.PaperRecord
}

// Analyzer runs the per-paper analysis batch, summarization, and
// adequacy evaluation.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, records []types.PaperRecord) []types.PaperRecord
	Summarize(ctx context.Context, topic string, records []types.PaperRecord) (string, error)
	Evaluate(ctx context.Context, summary, topic string, paperCount int) (analyze.Evaluation, error)
}

// Engine is the round controller. All cross-round state (analyzed papers,
// queries used, round records) accumulates monotonically; nothing resets
// between rounds.
type Engine struct {
	queries   QueryGenerator
	retriever Retriever
	processor Processor
	analyzer  Analyzer
	cfg       types.ResearchConfig
	procCfg   types.ProcessConfig
	logw      io.Writer
}

// NewEngine wires the collaborators into an Engine.
func NewEngine(q QueryGenerator, r Retriever, p Processor, a Analyzer, cfg types.ResearchConfig, procCfg types.ProcessConfig, w io.Writer) *Engine {
	return &Engine{queries: q, retriever: r, processor: p, analyzer: a, cfg: cfg, procCfg: procCfg, logw: w}
}

// Run executes the full research loop for a topic. Partial results are
// always returned: any unexpected failure inside a round terminates the
// loop early but keeps everything accumulated so far.
func (e *Engine) Run(ctx context.Context, topic string, filters types.SearchFilters) (result *types.ResearchResult) {
	result = &types.ResearchResult{
		Topic:     topic,
		StartedAt: time.Now(),
	}
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(e.logw, "fatal error in research loop: %v\n", r)
			result.FinishedAt = time.Now()
		}
	}()
	downloadDir := filepath.Join(e.procCfg.DownloadDir,
		fmt.Sprintf("%s_%s", process.SanitizeTopic(topic), result.StartedAt.Format("20060102_150405")))

	maxRounds := e.cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 3
	}
	queriesPerRound := e.cfg.QueriesPerRound
	if queriesPerRound <= 0 {
		queriesPerRound = 3
	}

	var cumulativeFound []types.PaperRecord
	var lastMissing []string

	for round := 1; round <= maxRounds; round++ {
		if ctx.Err() != nil {
			fmt.Fprintf(e.logw, "run cancelled: %v\n", ctx.Err())
			break
		}
		fmt.Fprintf(e.logw, "\n=== Round %d/%d ===\n", round, maxRounds)
		roundStart := time.Now()

		queries := e.roundQueries(ctx, topic, round, lastMissing, result.AllQueries, queriesPerRound)
		result.AllQueries = appendUnique(result.AllQueries, queries)

		retrieved := e.retriever.SearchQueries(ctx, queries, filters)
		newPapers, merged := newUnique(cumulativeFound, retrieved, filters)
		cumulativeFound = merged
		fmt.Fprintf(e.logw, "round %d: %d retrieved, %d new unique\n", round, len(retrieved), len(newPapers))

		rr := types.SearchRoundResult{
			Round:        round,
			Queries:      queries,
			PapersFound:  len(newPapers),
			SourceCounts: sourceDistribution(newPapers),
		}

		if len(newPapers) == 0 {
			e.finishRound(result, &rr, true, ReasonNoPapers, roundStart)
			lastMissing = nil
			continue
		}

		processed := e.processPapers(ctx, newPapers, downloadDir)
		rr.PapersProcessed = len(processed)
		if len(processed) == 0 {
			e.finishRound(result, &rr, true, ReasonProcessingFailed, roundStart)
			lastMissing = nil
			continue
		}

		analyzed := e.analyzer.AnalyzeBatch(ctx, processed)
		rr.PapersAnalyzed = len(analyzed)
		result.Papers = append(result.Papers, analyzed...)
		result.TotalPapersAnalyzed = len(result.Papers)
		rr.TotalPapers = result.TotalPapersAnalyzed

		score, report, missing, err := e.assess(ctx, topic, result.Papers)
		if err != nil {
			fmt.Fprintf(e.logw, "warning: round %d evaluation failed: %v\n", round, err)
			e.finishRound(result, &rr, true, ReasonInsufficientAdequacy, roundStart)
			lastMissing = nil
			continue
		}
		rr.AdequacyScore = score
		rr.Evaluation = report
		rr.MissingAreas = missing
		result.FinalAdequacy = score
		result.AdequacyTimeline = append(result.AdequacyTimeline, types.AdequacyPoint{Round: round, Score: score})
		lastMissing = missing

		cont, reason := Decide(len(newPapers), score, e.cfg)
		e.finishRound(result, &rr, cont, reason, roundStart)
		if !cont {
			result.EarlyTermination = round < maxRounds
			fmt.Fprintf(e.logw, "coverage adequate after round %d, stopping\n", round)
			break
		}
	}

	if n := len(result.Rounds); n > 0 && !result.Rounds[n-1].Continue {
		result.TerminationReason = result.Rounds[n-1].Reason
	} else {
		result.TerminationReason = "round budget exhausted"
	}

	e.finalize(ctx, topic, result)
	result.FinishedAt = time.Now()
	return result
}

// roundQueries picks the query set for one round: topic-only generation
// in round 1, gap-seeded followup afterwards, degrading to generic
// "advanced <topic>" generation when no gaps were recorded.
func (e *Engine) roundQueries(ctx context.Context, topic string, round int, missing, previous []string, n int) []string {
	if round == 1 {
		return e.queries.Generate(ctx, topic, n)
	}
	if len(missing) == 0 {
		return e.queries.Generate(ctx, "advanced "+topic, n)
	}
	return e.queries.GenerateFollowup(ctx, topic, missing, previous, n)
}

// processPapers runs the processor over each new paper, falling back to
// the abstract as a single text chunk when processing fails and an
// abstract exists. Papers with neither full text nor abstract are
// dropped.
func (e *Engine) processPapers(ctx context.Context, papers []types.PaperRecord, downloadDir string) []types.PaperRecord {
	var processed []types.PaperRecord
	for i := range papers {
		if ctx.Err() != nil {
			break
		}
		if out := e.processor.Process(ctx, &papers[i], downloadDir); out != nil {
			processed = append(processed, *out)
			continue
		}
		if papers[i].Abstract != "" {
			rec := papers[i]
			rec.TextChunks = []string{rec.Abstract}
			rec.TextLength = len(rec.Abstract)
			processed = append(processed, rec)
			fmt.Fprintf(e.logw, "using abstract for %q\n", rec.Title)
			continue
		}
		fmt.Fprintf(e.logw, "dropping %q: no text and no abstract\n", papers[i].Title)
	}
	return processed
}

// assess summarizes the cumulative analyses and evaluates adequacy.
func (e *Engine) assess(ctx context.Context, topic string, papers []types.PaperRecord) (float64, string, []string, error) {
	summary, err := e.analyzer.Summarize(ctx, topic, papers)
	if err != nil {
		return 0, "", nil, fmt.Errorf("summarizing: %w", err)
	}
	ev, err := e.analyzer.Evaluate(ctx, summary, topic, len(papers))
	if err != nil {
		return 0, "", nil, fmt.Errorf("evaluating: %w", err)
	}
	return ev.Score, ev.Report, ev.MissingAreas, nil
}

// finishRound stamps the decision and duration on a round record and
// appends it to the audit trail.
func (e *Engine) finishRound(result *types.ResearchResult, rr *types.SearchRoundResult, cont bool, reason string, start time.Time) {
	rr.Continue = cont
	rr.Reason = reason
	rr.TotalPapers = result.TotalPapersAnalyzed
	rr.Duration = time.Since(start)
	result.Rounds = append(result.Rounds, *rr)
	fmt.Fprintf(e.logw, "round %d: continue=%v (%s)\n", rr.Round, cont, reason)
}

// finalize computes the reporting summary and evaluation over the full
// cumulative analysis set once the loop has exited.
func (e *Engine) finalize(ctx context.Context, topic string, result *types.ResearchResult) {
	if len(result.Papers) == 0 {
		fmt.Fprintf(e.logw, "no papers analyzed, skipping final summary\n")
		return
	}
	summary, err := e.analyzer.Summarize(ctx, topic, result.Papers)
	if err != nil {
		fmt.Fprintf(e.logw, "warning: final summary failed: %v\n", err)
		return
	}
	result.FinalSummary = summary
	if ev, err := e.analyzer.Evaluate(ctx, summary, topic, len(result.Papers)); err == nil {
		result.FinalAdequacy = ev.Score
	}
}

// Decide applies the continuation rule: either too few new papers this
// round or an inadequate coverage score alone forces another round. Both
// thresholds must be met to stop.
func Decide(papersFound int, adequacy float64, cfg types.ResearchConfig) (bool, string) {
	minPapers := cfg.MinPapersForContinue
	if minPapers <= 0 {
		minPapers = 3
	}
	threshold := cfg.AdequacyThreshold
	if threshold <= 0 {
		threshold = 0.75
	}

	switch {
	case papersFound < minPapers:
		return true, ReasonInsufficientCount
	case adequacy < threshold:
		return true, ReasonInsufficientAdequacy
	default:
		return false, ReasonBothSatisfied
	}
}

// newUnique merges the retrieved records into the cumulative set and
// returns the records that were genuinely new, preserving retrieval
// order.
func newUnique(cumulative, retrieved []types.PaperRecord, filters types.SearchFilters) (fresh, merged []types.PaperRecord) {
	merged = retrieval.Dedupe(append(append([]types.PaperRecord{}, cumulative...), retrieved...), filters)
	if len(merged) > len(cumulative) {
		fresh = merged[len(cumulative):]
	}
	return fresh, merged
}

// sourceDistribution counts papers per source.
func sourceDistribution(papers []types.PaperRecord) map[types.PaperSource]int {
	if len(papers) == 0 {
		return nil
	}
	counts := map[types.PaperSource]int{}
	for i := range papers {
		counts[papers[i].Source]++
	}
	return counts
}

// appendUnique appends the new queries that are not already present,
// comparing case-insensitively.
func appendUnique(existing, queries []string) []string {
	seen := map[string]bool{}
	for _, q := range existing {
		seen[strings.ToLower(q)] = true
	}
	for _, q := range queries {
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		existing = append(existing, q)
	}
	return existing
}
