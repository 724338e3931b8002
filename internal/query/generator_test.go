// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
)

// fakeCompleter returns a canned response or error.
type fakeCompleter struct {
	resp string
	err  error
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, _ float64, _ bool) (string, error) {
	return f.resp, f.err
}

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "transformer attention", "transformer attention"},
		{"numbered", "1. transformer attention", "transformer attention"},
		{"paren number", "2) graph neural networks", "graph neural networks"},
		{"bullet", "- sparse attention", "sparse attention"},
		{"star bullet", "* sparse attention", "sparse attention"},
		{"markdown bold", "**efficient transformers**", "efficient transformers"},
		{"quotes", `"attention is all you need"`, "attention is all you need"},
		{"cjk truncation", "attention mechanisms 注意力机制", "attention mechanisms"},
		{"punctuation collapse", "attention, mechanisms: survey!", "attention mechanisms survey"},
		{"short token dropped", "a transformer x survey", "transformer survey"},
		{"acronym kept", "ml interpretability", "ml interpretability"},
		{"nlp kept", "nlp transfer learning", "nlp transfer learning"},
		{"empty", "   ", ""},
		{"only punctuation", "!!! ???", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanQuery(tt.in); got != tt.want {
				t.Errorf("CleanQuery(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"normal", "transformer attention", true},
		{"too few letters", "ab", false},
		{"too many tokens", "one two three four five six seven eight nine", false},
		{"meta word example", "example search strings", false},
		{"meta word requirement", "requirement for topic", false},
		{"meta phrase", "here are some topics", false},
		{"eight tokens ok", "a b one two three four five six", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidQuery(tt.in); got != tt.want {
				t.Errorf("ValidQuery(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateExactCount(t *testing.T) {
	g := NewGenerator(&fakeCompleter{resp: "transformer attention\nsparse transformers\n"}, io.Discard)
	for n := 1; n <= 10; n++ {
		got := g.Generate(context.Background(), "transformer attention mechanisms", n)
		if len(got) != n {
			t.Errorf("Generate(n=%d) returned %d queries: %v", n, len(got), got)
		}
		for i, q := range got {
			if strings.TrimSpace(q) == "" {
				t.Errorf("Generate(n=%d) query %d is empty", n, i)
			}
		}
	}
}

func TestGenerateExactCountOnModelFailure(t *testing.T) {
	g := NewGenerator(&fakeCompleter{err: fmt.Errorf("unavailable")}, io.Discard)
	for n := 1; n <= 10; n++ {
		got := g.Generate(context.Background(), "quantum error correction", n)
		if len(got) != n {
			t.Errorf("Generate(n=%d) returned %d queries: %v", n, len(got), got)
		}
	}
}

func TestGenerateDropsInvalidLines(t *testing.T) {
	resp := strings.Join([]string{
		"Here are some queries for you:",
		"1. transformer attention",
		"",
		"2. example search strings",
		"3. sparse attention patterns",
	}, "\n")
	g := NewGenerator(&fakeCompleter{resp: resp}, io.Discard)
	got := g.Generate(context.Background(), "transformers", 2)
	want := []string{"transformer attention", "sparse attention patterns"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Generate = %v, want %v", got, want)
	}
}

func TestGenerateFollowupRejectsOverlap(t *testing.T) {
	g := NewGenerator(&fakeCompleter{resp: "transformer attention mechanisms\nefficient inference methods\n"}, io.Discard)
	previous := []string{"transformer attention mechanisms survey"}
	got := g.GenerateFollowup(context.Background(), "transformers", []string{"efficient inference"}, previous, 2)
	if len(got) != 2 {
		t.Fatalf("GenerateFollowup returned %d queries: %v", len(got), got)
	}
	for _, q := range got {
		if q == "transformer attention mechanisms" {
			t.Errorf("overlapping query %q was not rejected", q)
		}
	}
	if got[0] != "efficient inference methods" {
		t.Errorf("first query = %q, want the non-overlapping model query", got[0])
	}
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("Recent advances in the study of Transformer models")
	want := []string{"transformer", "models"}
	if len(got) != len(want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTooSimilar(t *testing.T) {
	tests := []struct {
		name     string
		q        string
		previous []string
		want     bool
	}{
		{"identical", "transformer attention", []string{"transformer attention"}, true},
		{"high overlap", "transformer attention survey", []string{"transformer attention methods"}, true},
		// The ratio uses the larger token set: a short query that is a
		// subset of one long previous query still explores new ground.
		{"short subset of long previous", "attention mechanisms", []string{"attention mechanisms transformers deep"}, false},
		{"disjoint", "graph networks", []string{"transformer attention"}, false},
		{"no previous", "anything at all", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tooSimilar(tt.q, tt.previous); got != tt.want {
				t.Errorf("tooSimilar(%q, %v) = %v, want %v", tt.q, tt.previous, got, tt.want)
			}
		})
	}
}
