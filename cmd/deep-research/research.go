// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/process"
	"github.com/pdiddy/deep-research/internal/query"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/internal/retrieval"
	"github.com/pdiddy/deep-research/internal/store"
	"github.com/pdiddy/deep-research/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run the full multi-round literature review for a topic",
	Long: `Research runs the adaptive review loop: generate queries, search all
sources, download and analyze papers, evaluate coverage, and refine
queries for the next round until coverage is adequate or the round
budget runs out. The complete results document is written as JSON.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Int("rounds", 0, "maximum search rounds (0 = config default)")
	researchCmd.Flags().Int("queries-per-round", 0, "queries generated per round (0 = config default)")
	researchCmd.Flags().Int("min-papers", 0, "minimum papers before stopping (0 = config default)")
	researchCmd.Flags().Float64("adequacy-threshold", 0, "coverage score in [0,1] required to stop (0 = config default)")
	researchCmd.Flags().String("output", "", "results JSON path (default: research_results_<topic>_<timestamp>.json)")
	researchCmd.Flags().Bool("archive", false, "save the completed run to the SQLite archive")

	addFilterFlags(researchCmd)

	rootCmd.AddCommand(researchCmd)
}

// resultsDocument is the JSON document written after a run: the research
// result plus the configuration and filters that produced it.
type resultsDocument struct {
	*types.ResearchResult

	ActualRoundsCompleted int                 `json:"actual_rounds_completed"`
	TotalPapersFound      int                 `json:"total_papers_found"`
	Configuration         types.Config        `json:"configuration"`
	FiltersUsed           types.SearchFilters `json:"filters_used"`
}

func runResearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a research topic")
	}
	topic := strings.Join(args, " ")

	cfg := loadConfig()
	applyResearchFlags(cmd, &cfg)

	filters, err := filtersFromFlags(cmd)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(cfg.LLM, os.Stderr)
	if err != nil {
		return fmt.Errorf("language model client: %w (put a key in .secrets/llm-api-key)", err)
	}

	primary, fallbacks := buildAdapters(cfg.Search)
	searcher := retrieval.NewSearcher(primary, fallbacks, cfg.Search, os.Stderr)
	generator := query.NewGenerator(client, os.Stderr)
	analyzer := analyze.NewAnalyzer(client, cfg.Research, os.Stderr)
	processor := process.NewProcessor(cfg.Process, os.Stderr)

	engine := research.NewEngine(generator, searcher, processor, analyzer, cfg.Research, cfg.Process, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := engine.Run(ctx, topic, filters)

	doc := resultsDocument{
		ResearchResult:        result,
		ActualRoundsCompleted: len(result.Rounds),
		Configuration:         cfg,
		FiltersUsed:           filters,
	}
	for _, r := range result.Rounds {
		doc.TotalPapersFound += r.PapersFound
	}
	// Keys never belong in the results document.
	doc.Configuration.LLM.APIKeys = nil
	doc.Configuration.Search.ScholarlyAPIKey = ""

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = fmt.Sprintf("research_results_%s_%s.json",
			process.SanitizeTopic(topic), time.Now().Format("20060102_150405"))
	}
	if err := writeResultsDocument(outPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Results written to %s\n", outPath)

	printRunSummary(os.Stdout, result)

	if save, _ := cmd.Flags().GetBool("archive"); save {
		s, err := store.Open(cfg.Archive)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer s.Close()
		id, err := s.SaveRun(context.Background(), result)
		if err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Archived as run %d\n", id)
	}
	return nil
}

func applyResearchFlags(cmd *cobra.Command, cfg *types.Config) {
	if n, _ := cmd.Flags().GetInt("rounds"); n > 0 {
		cfg.Research.MaxRounds = n
	}
	if n, _ := cmd.Flags().GetInt("queries-per-round"); n > 0 {
		cfg.Research.QueriesPerRound = n
	}
	if n, _ := cmd.Flags().GetInt("min-papers"); n > 0 {
		cfg.Research.MinPapersForContinue = n
	}
	if f, _ := cmd.Flags().GetFloat64("adequacy-threshold"); f > 0 {
		cfg.Research.AdequacyThreshold = f
	}
}

// addFilterFlags registers the paper-filter flags shared by the research
// and search subcommands.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	cmd.Flags().Int("min-citations", 0, "minimum citation count")
	cmd.Flags().Int("max-citations", 0, "maximum citation count (0 = unbounded)")
	cmd.Flags().StringSlice("venue", nil, "restrict to papers matching these venues")
	cmd.Flags().StringSlice("exclude-venue", nil, "reject papers matching these venues")
	cmd.Flags().StringSlice("category", nil, "restrict arXiv results to these subject categories")
	cmd.Flags().Int("min-abstract", 0, "minimum abstract length in characters")
	cmd.Flags().Bool("exact", false, "disable fuzzy venue matching and deduplication")
	cmd.Flags().Int("similarity", 0, "fuzzy similarity threshold 0-100 (default 80)")
}

func filtersFromFlags(cmd *cobra.Command) (types.SearchFilters, error) {
	filters := types.DefaultFilters()

	if from, _ := cmd.Flags().GetString("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return filters, fmt.Errorf("parsing --from: %w", err)
		}
		filters.StartDate = t
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return filters, fmt.Errorf("parsing --to: %w", err)
		}
		filters.EndDate = t
	}
	filters.MinCitations, _ = cmd.Flags().GetInt("min-citations")
	filters.MaxCitations, _ = cmd.Flags().GetInt("max-citations")
	filters.Venues, _ = cmd.Flags().GetStringSlice("venue")
	filters.ExcludeVenues, _ = cmd.Flags().GetStringSlice("exclude-venue")
	filters.Categories, _ = cmd.Flags().GetStringSlice("category")
	filters.MinAbstractLength, _ = cmd.Flags().GetInt("min-abstract")
	if exact, _ := cmd.Flags().GetBool("exact"); exact {
		filters.FuzzyMatch = false
	}
	if sim, _ := cmd.Flags().GetInt("similarity"); sim > 0 {
		filters.SimilarityThreshold = sim
	}
	return filters, nil
}

func writeResultsDocument(path string, doc resultsDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}
