// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval orchestrates the paper sources: a sequential waterfall
// per query, filtering, cross-source deduplication, and ranking.
package retrieval

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/source"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Searcher runs queries against the primary source and a fixed priority
// order of fallbacks. No single source is reliably available, so each
// fallback is asked only for the still-outstanding count; short-circuiting
// once the target is met bounds latency.
type Searcher struct {
	primary   source.Adapter
	fallbacks []source.Adapter
	cfg       types.SearchSourceConfig
	logw      io.Writer
}

// NewSearcher builds a Searcher. fallbacks are tried in the order given.
func NewSearcher(primary source.Adapter, fallbacks []source.Adapter, cfg types.SearchSourceConfig, w io.Writer) *Searcher {
	return &Searcher{primary: primary, fallbacks: fallbacks, cfg: cfg, logw: w}
}

// sleepCtx blocks for d or until ctx is cancelled; zero or negative d
// returns immediately.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// SearchQuery runs the waterfall for one query and returns the filtered
// records. Empty or placeholder queries return nothing immediately.
func (s *Searcher) SearchQuery(ctx context.Context, query string, filters types.SearchFilters) []types.PaperRecord {
	query = strings.TrimSpace(query)
	if query == "" || strings.EqualFold(query, "unknown") {
		return nil
	}

	target := s.cfg.PapersPerQuery
	if target <= 0 {
		target = 10
	}

	records := s.callAdapter(ctx, s.primary, query, target)
	for _, fb := range s.fallbacks {
		remaining := target - len(records)
		if remaining <= 0 {
			break
		}
		records = append(records, s.callAdapter(ctx, fb, query, remaining)...)
	}

	var accepted []types.PaperRecord
	for i := range records {
		if Passes(&records[i], filters) {
			accepted = append(accepted, records[i])
		}
	}
	fmt.Fprintf(s.logw, "query %q: %d found, %d after filters\n", query, len(records), len(accepted))
	return accepted
}

// callAdapter invokes one source, validating every record it returns.
// Source failures degrade to a warning; they never abort the query.
// Paginated sources can fail partway through and still hand back the
// pages already fetched, so records are kept even when err is set.
func (s *Searcher) callAdapter(ctx context.Context, a source.Adapter, query string, limit int) []types.PaperRecord {
	records, err := a.Search(ctx, query, limit)
	if err != nil {
		fmt.Fprintf(s.logw, "warning: %s search failed for %q: %v\n", a.Name(), query, err)
	}

	valid := records[:0]
	for i := range records {
		if err := records[i].Validate(); err != nil {
			fmt.Fprintf(s.logw, "warning: %s returned invalid record: %v\n", a.Name(), err)
			continue
		}
		valid = append(valid, records[i])
	}
	return valid
}

// SearchQueries runs every query in order with an inter-query delay,
// retrying the whole list (up to the configured pass cap) while the
// accumulated total stays below the configured floor. Results are
// deduplicated and ranked before return.
func (s *Searcher) SearchQueries(ctx context.Context, queries []string, filters types.SearchFilters) []types.PaperRecord {
	maxPasses := s.cfg.MaxPasses
	if maxPasses <= 0 {
		maxPasses = 3
	}
	floor := s.cfg.MinTotalResults
	if floor <= 0 {
		floor = 1
	}

	fmt.Fprintf(s.logw, "searching %d queries (%s matching)\n", len(queries), filters.MatchMode())

	var accumulated []types.PaperRecord
	for pass := 1; pass <= maxPasses; pass++ {
		if pass > 1 {
			fmt.Fprintf(s.logw, "pass %d: only %d results so far, retrying all queries\n", pass, len(accumulated))
			if err := sleepCtx(ctx, s.cfg.InterPassDelay); err != nil {
				break
			}
		}

		for i, q := range queries {
			if i > 0 {
				if err := sleepCtx(ctx, s.cfg.InterQueryDelay); err != nil {
					return finishSearch(accumulated, filters)
				}
			}
			accumulated = append(accumulated, s.SearchQuery(ctx, q, filters)...)
		}

		if len(accumulated) >= floor || ctx.Err() != nil {
			break
		}
	}
	return finishSearch(accumulated, filters)
}

func finishSearch(records []types.PaperRecord, filters types.SearchFilters) []types.PaperRecord {
	return Rank(Dedupe(records, filters), filters)
}
