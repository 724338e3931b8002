// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns a research topic and coverage gaps into normalized
// search queries.
package query

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/deep-research/internal/llm"
)

// shortAllowList holds domain acronyms exempt from the minimum token
// length.
var shortAllowList = map[string]bool{
	"ai":  true,
	"ml":  true,
	"dl":  true,
	"cv":  true,
	"nlp": true,
	"db":  true,
}

// metaWords reject model responses that describe the task instead of
// naming a topic.
var metaWords = []string{"example", "requirement", "here are", "query", "queries"}

// stopWords are skipped during keyword extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"that": true, "this": true, "are": true, "was": true, "were": true,
	"have": true, "has": true, "been": true, "its": true, "their": true,
	"using": true, "based": true, "about": true, "into": true, "over": true,
	"under": true, "between": true, "through": true, "studies": true,
	"study": true, "analysis": true, "approach": true, "method": true,
	"methods": true, "overview": true, "survey": true, "review": true,
	"recent": true, "advances": true, "research": true, "paper": true,
	"papers": true,
}

var (
	numberingRE   = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)
	punctuationRE = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	whitespaceRE  = regexp.MustCompile(`\s+`)
)

// Generator produces search queries, delegating raw generation to a
// language model and normalizing its output deterministically.
type Generator struct {
	llm  llm.Completer
	logw io.Writer
}

// NewGenerator builds a Generator writing progress lines to w.
func NewGenerator(c llm.Completer, w io.Writer) *Generator {
	return &Generator{llm: c, logw: w}
}

// Generate returns exactly n queries for the topic. Model failures or
// unusable output degrade to deterministic fallback queries, never to a
// short or empty result.
func (g *Generator) Generate(ctx context.Context, topic string, n int) []string {
	prompt := fmt.Sprintf(
		"Generate %d concise academic search queries for the research topic %q. "+
			"Return one query per line with no numbering or commentary. "+
			"Each query should be 2-6 keywords.", n, topic)

	queries := g.fromModel(ctx, prompt, n, nil)
	return fill(queries, fallbackQueries(topic, nil), nil, n)
}

// GenerateFollowup returns exactly n queries targeting the given coverage
// gaps. Queries too similar to any previously used query (token-set
// overlap above 0.6) are rejected and backfilled from topic and gap
// keywords.
func (g *Generator) GenerateFollowup(ctx context.Context, topic string, missingAreas, previousQueries []string, n int) []string {
	prompt := fmt.Sprintf(
		"The literature review on %q has coverage gaps: %s. "+
			"Generate %d new academic search queries targeting these gaps. "+
			"Return one query per line with no numbering or commentary.",
		topic, strings.Join(missingAreas, "; "), n)

	queries := g.fromModel(ctx, prompt, n, previousQueries)
	return fill(queries, fallbackQueries(topic, missingAreas), previousQueries, n)
}

// fromModel calls the model and normalizes its output. previousQueries,
// when non-nil, activates the overlap filter.
func (g *Generator) fromModel(ctx context.Context, prompt string, n int, previousQueries []string) []string {
	raw, err := g.llm.Complete(ctx, prompt, 0.7, false)
	if err != nil {
		fmt.Fprintf(g.logw, "query generation failed, using fallbacks: %v\n", err)
		return nil
	}

	var queries []string
	seen := map[string]bool{}
	for _, line := range strings.Split(raw, "\n") {
		q := CleanQuery(line)
		if q == "" || !ValidQuery(q) {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		if tooSimilar(q, previousQueries) {
			continue
		}
		seen[key] = true
		queries = append(queries, q)
		if len(queries) == n {
			break
		}
	}
	return queries
}

// fill pads queries from the fallback list up to exactly n entries,
// skipping duplicates and anything too similar to a previous query, and
// truncates any excess.
func fill(queries, fallbacks, previous []string, n int) []string {
	seen := map[string]bool{}
	for _, q := range queries {
		seen[strings.ToLower(q)] = true
	}
	for _, f := range fallbacks {
		if len(queries) >= n {
			break
		}
		key := strings.ToLower(f)
		if seen[key] || tooSimilar(f, previous) {
			continue
		}
		seen[key] = true
		queries = append(queries, f)
	}
	// Keyword fallbacks exhausted: repeat numbered variants so the
	// exact-count guarantee holds even for degenerate topics.
	for i := 1; len(queries) < n; i++ {
		queries = append(queries, fmt.Sprintf("%s research %d", strings.ToLower(firstOr(fallbacks, "survey")), i))
	}
	return queries[:n]
}

func firstOr(list []string, alt string) string {
	if len(list) > 0 {
		return list[0]
	}
	return alt
}

// CleanQuery normalizes one raw model output line into a candidate query:
// numbering, markdown emphasis, and quotes are stripped; text is truncated
// at the first CJK character; remaining punctuation collapses to spaces;
// tokens shorter than 2 characters are dropped unless they are known
// domain acronyms. Returns "" when nothing usable remains.
func CleanQuery(line string) string {
	s := strings.TrimSpace(line)
	s = numberingRE.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	s = strings.Trim(s, `"'“”‘’`)

	if i := firstCJKIndex(s); i >= 0 {
		s = s[:i]
	}

	s = punctuationRE.ReplaceAllString(s, " ")
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	var kept []string
	for _, tok := range strings.Fields(s) {
		if len(tok) < 2 && !shortAllowList[strings.ToLower(tok)] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// ValidQuery reports whether a cleaned candidate is usable: at least 3
// letters, at most 8 tokens, and no meta-words describing the generation
// task itself.
func ValidQuery(q string) bool {
	letters := 0
	for _, r := range q {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 3 {
		return false
	}
	if len(strings.Fields(q)) > 8 {
		return false
	}
	lower := strings.ToLower(q)
	for _, m := range metaWords {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}

// firstCJKIndex returns the byte index of the first CJK rune, or -1.
func firstCJKIndex(s string) int {
	for i, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			return i
		}
	}
	return -1
}

// tooSimilar reports whether q's token set overlaps any previous query's
// token set by more than 0.6.
func tooSimilar(q string, previous []string) bool {
	qset := tokenSet(q)
	if len(qset) == 0 {
		return false
	}
	for _, p := range previous {
		pset := tokenSet(p)
		if len(pset) == 0 {
			continue
		}
		common := 0
		for tok := range qset {
			if pset[tok] {
				common++
			}
		}
		larger := len(qset)
		if len(pset) > larger {
			larger = len(pset)
		}
		if float64(common)/float64(larger) > 0.6 {
			return true
		}
	}
	return false
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = true
	}
	return set
}

// ExtractKeywords pulls the significant words from free text: lowercased,
// stop-word filtered, at least 3 characters, in first-seen order.
func ExtractKeywords(text string) []string {
	cleaned := punctuationRE.ReplaceAllString(strings.ToLower(text), " ")
	var keywords []string
	seen := map[string]bool{}
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) < 3 || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}
	return keywords
}

// fallbackQueries builds deterministic queries from the topic (and any
// missing areas) for when model output falls short. Well-known topics get
// a curated pool; everything else gets keyword combinations plus a small
// generic pool.
func fallbackQueries(topic string, missingAreas []string) []string {
	lower := strings.ToLower(topic)

	var pool []string
	switch {
	case strings.Contains(lower, "transformer"):
		pool = []string{
			"transformer architecture attention",
			"self attention mechanisms",
			"transformer language models",
			"attention based neural networks",
		}
	case strings.Contains(lower, "neural"):
		pool = []string{
			"deep neural networks",
			"neural network training",
			"neural architecture search",
			"convolutional neural networks",
		}
	}

	keywords := ExtractKeywords(topic)
	for _, area := range missingAreas {
		keywords = append(keywords, ExtractKeywords(area)...)
	}

	// Pairwise keyword combinations widen the pool without inventing
	// terms the topic never mentioned.
	for i := 0; i < len(keywords); i++ {
		for j := i + 1; j < len(keywords) && j < i+3; j++ {
			pool = append(pool, keywords[i]+" "+keywords[j])
		}
	}
	if len(keywords) > 0 {
		pool = append(pool, strings.Join(keywords[:min(3, len(keywords))], " "))
	}

	for _, generic := range []string{"survey", "recent advances", "applications", "state of the art"} {
		if len(keywords) > 0 {
			pool = append(pool, keywords[0]+" "+generic)
		} else {
			pool = append(pool, generic+" "+lower)
		}
	}
	return pool
}
