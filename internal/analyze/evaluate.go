// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Evaluation is the structured outcome of one adequacy check.
type Evaluation struct {
	// Score estimates topic coverage in [0,1].
	Score float64

	// Report is the evaluator's narrative assessment.
	Report string

	// MissingAreas lists coverage gaps, capped by configuration.
	MissingAreas []string
}

// scoreRE matches "Score: 7", "adequacy score: 7.5/10", "SCORE 8 / 10".
var scoreRE = regexp.MustCompile(`(?i)(?:adequacy\s+)?score\s*[:=]?\s*([0-9]+(?:\.[0-9]+)?)\s*(?:/\s*10)?`)

// missingAreaRE matches bullet or numbered list entries.
var missingAreaRE = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*(.+)$`)

// Evaluate asks the high-capacity model whether the summary adequately
// covers the topic, then parses a structured score and gap list out of
// the free-text response. Parsing is heuristic: an explicit "score: N/10"
// wins, otherwise verdict keywords pick a coarse default.
func (a *Analyzer) Evaluate(ctx context.Context, summary, topic string, paperCount int) (Evaluation, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate whether this literature review summary adequately covers the topic %q. ", topic)
	fmt.Fprintf(&b, "It is based on %d papers.\n\nSummary:\n%s\n\n", paperCount, summary)
	b.WriteString("Respond with:\n")
	b.WriteString("Score: <0-10>/10\n")
	b.WriteString("Assessment: <one paragraph>\n")
	b.WriteString("Missing areas:\n- <area>\n- <area>\n")

	resp, err := a.llm.Complete(ctx, b.String(), 0.2, true)
	if err != nil {
		return Evaluation{}, fmt.Errorf("adequacy evaluation: %w", err)
	}

	ev := Evaluation{
		Score:        extractScore(resp),
		Report:       strings.TrimSpace(resp),
		MissingAreas: extractMissingAreas(resp),
	}
	if n := a.cfg.MaxMissingAreas; n > 0 && len(ev.MissingAreas) > n {
		ev.MissingAreas = ev.MissingAreas[:n]
	}
	return ev, nil
}

// extractScore pulls a [0,1] adequacy score out of free text. Explicit
// numeric scores are read on a 0-10 scale and normalized; without one,
// verdict keywords fall back to 0.8 (adequate), 0.4 (inadequate), or a
// neutral 0.6.
func extractScore(text string) float64 {
	if m := scoreRE.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			if v > 10 {
				v = 10
			}
			if v < 0 {
				v = 0
			}
			return v / 10
		}
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "inadequate") || strings.Contains(lower, "insufficient"):
		return 0.4
	case strings.Contains(lower, "adequate") || strings.Contains(lower, "comprehensive"):
		return 0.8
	default:
		return 0.6
	}
}

// extractMissingAreas collects list entries following a "missing areas"
// heading. Entries are trimmed and deduplicated in order.
func extractMissingAreas(text string) []string {
	var areas []string
	seen := map[string]bool{}
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "missing area") || strings.Contains(lower, "gaps:") {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}

		m := missingAreaRE.FindStringSubmatch(line)
		if m == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			// A non-list line ends the section.
			break
		}
		area := strings.TrimSpace(strings.Trim(m[1], ".。"))
		key := strings.ToLower(area)
		if area == "" || seen[key] {
			continue
		}
		seen[key] = true
		areas = append(areas, area)
	}
	return areas
}
