// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SearchRoundResult captures what one search round contributed.
type SearchRoundResult struct {
	// Round is the 1-based round number.
	Round int `json:"round" yaml:"round"`

	// Queries lists the queries issued this round.
	Queries []string `json:"queries" yaml:"queries"`

	// PapersFound is the number of new unique papers this round added
	// after cross-round deduplication.
	PapersFound int `json:"papers_found" yaml:"papers_found"`

	// PapersProcessed is the number of papers whose text was extracted
	// (or abstract-backfilled) this round.
	PapersProcessed int `json:"papers_processed" yaml:"papers_processed"`

	// PapersAnalyzed is the number of papers that came back from the
	// batch analysis stage this round.
	PapersAnalyzed int `json:"papers_analyzed" yaml:"papers_analyzed"`

	// TotalPapers is the cumulative unique analyzed paper count after
	// this round.
	TotalPapers int `json:"total_papers" yaml:"total_papers"`

	// SourceCounts maps each source to the number of papers it
	// contributed this round.
	SourceCounts map[PaperSource]int `json:"source_counts,omitempty" yaml:"source_counts,omitempty"`

	// AdequacyScore is the coverage score in [0,1] judged after this round.
	AdequacyScore float64 `json:"adequacy_score" yaml:"adequacy_score"`

	// Evaluation is the evaluator's narrative report for this round.
	Evaluation string `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`

	// MissingAreas lists the coverage gaps the evaluation identified.
	MissingAreas []string `json:"missing_areas,omitempty" yaml:"missing_areas,omitempty"`

	// Continue records the controller's decision after this round.
	Continue bool `json:"continue" yaml:"continue"`

	// Reason explains the decision: one of "insufficient paper count",
	// "insufficient adequacy score", "both satisfied", "no papers found
	// this round", "paper processing failed".
	Reason string `json:"reason" yaml:"reason"`

	// Duration is how long the round took end to end.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// AdequacyPoint is one entry in the adequacy timeline.
type AdequacyPoint struct {
	Round int     `json:"round" yaml:"round"`
	Score float64 `json:"score" yaml:"score"`
}

// ResearchResult is the final output of a research run. JSON field names
// are part of the output contract and must stay stable.
type ResearchResult struct {
	// Topic is the research topic the run investigated.
	Topic string `json:"topic" yaml:"topic"`

	// StartedAt and FinishedAt bound the run wall-clock time.
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Rounds holds one entry per completed search round in order.
	Rounds []SearchRoundResult `json:"search_rounds_results" yaml:"search_rounds_results"`

	// TotalPapersAnalyzed is the count of unique papers analyzed.
	TotalPapersAnalyzed int `json:"total_papers_analyzed" yaml:"total_papers_analyzed"`

	// FinalAdequacy is the adequacy score after the last round.
	FinalAdequacy float64 `json:"final_adequacy_score" yaml:"final_adequacy_score"`

	// AdequacyTimeline tracks the score after each round.
	AdequacyTimeline []AdequacyPoint `json:"adequacy_evaluation_timeline" yaml:"adequacy_evaluation_timeline"`

	// AllQueries lists every query issued across all rounds, in order,
	// without duplicates.
	AllQueries []string `json:"all_queries_used" yaml:"all_queries_used"`

	// EarlyTermination is set when the run stopped before the round
	// limit because coverage was judged adequate.
	EarlyTermination bool `json:"early_termination" yaml:"early_termination"`

	// TerminationReason explains why the run ended: the last round's
	// decision reason, or "round budget exhausted".
	TerminationReason string `json:"termination_reason,omitempty" yaml:"termination_reason,omitempty"`

	// Papers holds the analyzed papers in rank order.
	Papers []PaperRecord `json:"papers" yaml:"papers"`

	// FinalSummary is the synthesized literature review text.
	FinalSummary string `json:"final_summary,omitempty" yaml:"final_summary,omitempty"`
}
