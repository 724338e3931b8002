// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source wraps the external paper catalogs behind a uniform
// search contract. Adapters are best-effort: malformed individual records
// are skipped, and callers treat a returned error as an empty result.
package source

import (
	"context"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Adapter is the uniform contract over one external paper catalog.
type Adapter interface {
	// Name returns the source tag stamped on every record.
	Name() string

	// Search returns up to limit records for the query.
	Search(ctx context.Context, query string, limit int) ([]types.PaperRecord, error)
}

// sleepCtx blocks for d or until the context is cancelled. A zero or
// negative d returns immediately, which is how tests skip rate-limit
// delays.
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

// randomDelay picks a duration uniformly in [min, max].
func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

var yearRE = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// parseYear extracts the first plausible publication year from text,
// returning 0 when none is found.
func parseYear(text string) int {
	m := yearRE.FindString(text)
	if m == "" {
		return 0
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return year
}

// yearDate converts a bare year to a mid-year timestamp so date filters
// have something to compare against.
func yearDate(year int) time.Time {
	if year == 0 {
		return time.Time{}
	}
	return time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC)
}
