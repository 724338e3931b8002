// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/deep-research/pkg/types"
)

// printRunSummary writes the human-readable recap of a completed run:
// round decisions, source distribution, and citation statistics.
func printRunSummary(w io.Writer, result *types.ResearchResult) {
	fmt.Fprintf(w, "\nTopic: %s\n", result.Topic)
	fmt.Fprintf(w, "Rounds completed: %d\n", len(result.Rounds))
	fmt.Fprintf(w, "Papers analyzed: %d\n", result.TotalPapersAnalyzed)
	fmt.Fprintf(w, "Final adequacy: %.2f\n", result.FinalAdequacy)
	if result.EarlyTermination {
		fmt.Fprintln(w, "Stopped early: coverage judged adequate")
	}

	for _, r := range result.Rounds {
		fmt.Fprintf(w, "  round %d: %d new papers, adequacy %.2f (%s)\n",
			r.Round, r.PapersFound, r.AdequacyScore, r.Reason)
	}

	if dist := sourceDistribution(result.Papers); len(dist) > 0 {
		fmt.Fprintln(w, "\nSource distribution:")
		names := make([]string, 0, len(dist))
		for name := range dist {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-16s %d\n", name, dist[name])
		}
	}

	if lo, hi, mean, ok := citationStats(result.Papers); ok {
		fmt.Fprintf(w, "\nCitations: %d-%d (mean %.1f)\n", lo, hi, mean)
	}
}

func sourceDistribution(papers []types.PaperRecord) map[string]int {
	dist := make(map[string]int)
	for _, p := range papers {
		dist[string(p.Source)]++
	}
	return dist
}

func citationStats(papers []types.PaperRecord) (lo, hi int, mean float64, ok bool) {
	if len(papers) == 0 {
		return 0, 0, 0, false
	}
	lo = papers[0].Citations
	total := 0
	for _, p := range papers {
		if p.Citations < lo {
			lo = p.Citations
		}
		if p.Citations > hi {
			hi = p.Citations
		}
		total += p.Citations
	}
	return lo, hi, float64(total) / float64(len(papers)), true
}
