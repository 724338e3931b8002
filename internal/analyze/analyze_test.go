// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pdiddy/deep-research/pkg/types"
)

// fakeCompleter answers by prompt inspection; failTitles makes analysis
// calls for matching papers fail.
type fakeCompleter struct {
	mu         sync.Mutex
	failTitles []string
	evalResp   string
	inFlight   int32
	maxSeen    int32
	calls      int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ float64, highCapacity bool) (string, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&f.maxSeen)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxSeen, prev, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if highCapacity && f.evalResp != "" {
		return f.evalResp, nil
	}
	for _, t := range f.failTitles {
		if strings.Contains(prompt, t) {
			return "", fmt.Errorf("model failure for %s", t)
		}
	}
	return "analysis text", nil
}

func testPapers(n int) []types.PaperRecord {
	var out []types.PaperRecord
	for i := 0; i < n; i++ {
		out = append(out, types.PaperRecord{
			Title:    fmt.Sprintf("paper-%d", i),
			Authors:  []string{"A Author"},
			Abstract: "abstract",
			Source:   types.SourceArxiv,
		})
	}
	return out
}

func TestAnalyzeBatchPartialFailure(t *testing.T) {
	fc := &fakeCompleter{failTitles: []string{"paper-1"}}
	a := NewAnalyzer(fc, types.ResearchConfig{AnalysisWorkers: 2, AnalysisBatchSize: 10}, io.Discard)

	got := a.AnalyzeBatch(context.Background(), testPapers(3))
	if len(got) != 2 {
		t.Fatalf("got %d analyzed papers, want 2", len(got))
	}
	for _, rec := range got {
		if rec.Title == "paper-1" {
			t.Error("failed paper was not excluded")
		}
		if rec.Analysis == "" {
			t.Errorf("paper %q has empty analysis", rec.Title)
		}
	}
}

func TestAnalyzeBatchHonorsBatchSize(t *testing.T) {
	fc := &fakeCompleter{}
	a := NewAnalyzer(fc, types.ResearchConfig{AnalysisWorkers: 2, AnalysisBatchSize: 3}, io.Discard)

	got := a.AnalyzeBatch(context.Background(), testPapers(10))
	if len(got) != 3 {
		t.Fatalf("got %d analyzed papers, want batch size 3", len(got))
	}
	if fc.calls != 3 {
		t.Errorf("model called %d times, want 3", fc.calls)
	}
}

func TestAnalyzeBatchBoundsWorkers(t *testing.T) {
	fc := &fakeCompleter{}
	a := NewAnalyzer(fc, types.ResearchConfig{AnalysisWorkers: 2, AnalysisBatchSize: 20}, io.Discard)

	a.AnalyzeBatch(context.Background(), testPapers(12))
	if fc.maxSeen > 2 {
		t.Errorf("observed %d concurrent analyses, want at most 2", fc.maxSeen)
	}
}

// keyedCompleter is a fakeCompleter backed by a fixed-size credential
// pool, mirroring the client's KeyCount capability.
type keyedCompleter struct {
	fakeCompleter
	keys int
}

func (k *keyedCompleter) KeyCount() int { return k.keys }

func TestAnalyzeBatchClampsWorkersToKeyCount(t *testing.T) {
	kc := &keyedCompleter{keys: 1}
	a := NewAnalyzer(kc, types.ResearchConfig{AnalysisWorkers: 4, AnalysisBatchSize: 20}, io.Discard)

	got := a.AnalyzeBatch(context.Background(), testPapers(8))
	if len(got) != 8 {
		t.Fatalf("got %d analyzed papers, want 8", len(got))
	}
	if kc.maxSeen > 1 {
		t.Errorf("observed %d concurrent analyses with one key, want at most 1", kc.maxSeen)
	}
}

func TestAnalyzeBatchEmptyInput(t *testing.T) {
	a := NewAnalyzer(&fakeCompleter{}, types.ResearchConfig{AnalysisWorkers: 1}, io.Discard)
	if got := a.AnalyzeBatch(context.Background(), nil); len(got) != 0 {
		t.Errorf("got %d papers for empty input", len(got))
	}
}

func TestAnalyzeCumulativeChunks(t *testing.T) {
	tests := []struct {
		name      string
		chunks    []string
		wantCalls int
	}{
		{name: "abstract only", chunks: nil, wantCalls: 1},
		{name: "single chunk", chunks: []string{"c1"}, wantCalls: 1},
		{name: "two chunks plus restructure", chunks: []string{"c1", "c2"}, wantCalls: 3},
		{name: "three chunks plus restructure", chunks: []string{"c1", "c2", "c3"}, wantCalls: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{}
			a := NewAnalyzer(fc, types.ResearchConfig{}, io.Discard)
			rec := types.PaperRecord{
				Title:      "paper",
				Authors:    []string{"A Author"},
				Abstract:   "abstract",
				TextChunks: tt.chunks,
			}
			analysis, err := a.Analyze(context.Background(), &rec)
			if err != nil {
				t.Fatal(err)
			}
			if analysis == "" {
				t.Error("empty analysis")
			}
			if fc.calls != tt.wantCalls {
				t.Errorf("model called %d times, want %d", fc.calls, tt.wantCalls)
			}
		})
	}
}

func TestSummarizeRequiresAnalyses(t *testing.T) {
	a := NewAnalyzer(&fakeCompleter{}, types.ResearchConfig{}, io.Discard)
	if _, err := a.Summarize(context.Background(), "topic", nil); err == nil {
		t.Fatal("Summarize succeeded with no analyses, want error")
	}
}

func TestExtractScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"explicit fraction", "Score: 7/10\nAssessment: decent.", 0.7},
		{"decimal", "adequacy score: 8.5/10", 0.85},
		{"bare number", "Score: 6", 0.6},
		{"equals sign", "score = 9 / 10", 0.9},
		{"clamped high", "Score: 15/10", 1.0},
		{"keyword adequate", "The coverage is adequate overall.", 0.8},
		{"keyword insufficient", "Coverage is insufficient in several areas.", 0.4},
		{"keyword inadequate beats adequate substring", "This is inadequate.", 0.4},
		{"no signal", "Interesting collection of papers.", 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractScore(tt.text); got != tt.want {
				t.Errorf("extractScore(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractMissingAreas(t *testing.T) {
	text := strings.Join([]string{
		"Score: 5/10",
		"Assessment: partial coverage.",
		"Missing areas:",
		"- efficient attention variants",
		"- multimodal transformers",
		"* efficient attention variants",
		"1. hardware-aware training",
		"",
		"Overall a reasonable start.",
	}, "\n")

	got := extractMissingAreas(text)
	want := []string{"efficient attention variants", "multimodal transformers", "hardware-aware training"}
	if len(got) != len(want) {
		t.Fatalf("extractMissingAreas = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("area %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEvaluateCapsMissingAreas(t *testing.T) {
	fc := &fakeCompleter{evalResp: "Score: 4/10\nMissing areas:\n- a1\n- a2\n- a3\n- a4\n"}
	a := NewAnalyzer(fc, types.ResearchConfig{MaxMissingAreas: 2}, io.Discard)

	ev, err := a.Evaluate(context.Background(), "summary", "topic", 5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.Score != 0.4 {
		t.Errorf("score = %v, want 0.4", ev.Score)
	}
	if len(ev.MissingAreas) != 2 {
		t.Errorf("missing areas = %v, want 2 entries", ev.MissingAreas)
	}
}
