// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package process

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/deep-research/pkg/types"
)

func TestHandlerRegistry(t *testing.T) {
	r := newHandlerRegistry()
	tests := []struct {
		name string
		url  string
		want []string
	}{
		{
			"arxiv abs rewrite",
			"https://arxiv.org/abs/1706.03762",
			[]string{"https://arxiv.org/pdf/1706.03762"},
		},
		{
			"arxiv pdf passthrough",
			"https://arxiv.org/pdf/1706.03762",
			[]string{"https://arxiv.org/pdf/1706.03762"},
		},
		{
			"openreview forum rewrite",
			"https://openreview.net/forum?id=abc",
			[]string{"https://openreview.net/pdf?id=abc", "https://openreview.net/forum?id=abc.pdf"},
		},
		{
			"publisher non-pdf rejected",
			"https://ieeexplore.ieee.org/document/123",
			nil,
		},
		{
			"generic pdf accepted",
			"https://example.org/papers/foo.pdf",
			[]string{"https://example.org/papers/foo.pdf"},
		},
		{
			"generic non-pdf rejected",
			"https://example.org/papers/foo",
			nil,
		},
		{
			"unparseable",
			"://not-a-url",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.candidatesFor(tt.url)
			if len(got) != len(tt.want) {
				t.Fatalf("candidatesFor(%q) = %v, want %v", tt.url, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("candidate %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkText(t *testing.T) {
	text := strings.Repeat("a", 25)

	chunks := chunkText(text, 10, 5)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 10 || len(chunks[2]) != 5 {
		t.Errorf("chunk lengths = %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}

	capped := chunkText(text, 10, 2)
	if len(capped) != 2 {
		t.Errorf("got %d chunks, want cap of 2", len(capped))
	}
}

func TestChunkTextRuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 10)
	chunks := chunkText(text, 4, 5)
	for i, c := range chunks {
		if strings.ContainsRune(c, '�') {
			t.Errorf("chunk %d split a rune: %q", i, c)
		}
	}
}

func TestSanitizeTopic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"transformer attention mechanisms", "transformer_attention_mechanisms"},
		{"  spaces / slashes  ", "spaces_slashes"},
		{"", "topic"},
		{strings.Repeat("x", 100), strings.Repeat("x", 60)},
	}
	for _, tt := range tests {
		if got := SanitizeTopic(tt.in); got != tt.want {
			t.Errorf("SanitizeTopic(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCandidateURLsOrderAndDedupe(t *testing.T) {
	p := NewProcessor(types.ProcessConfig{}, io.Discard)
	rec := &types.PaperRecord{
		Title:    "Attention Is All You Need",
		PDFURL:   "https://example.org/a.pdf",
		PDFLinks: []string{"https://example.org/a.pdf", "https://example.org/b.pdf"},
		ArxivID:  "1706.03762",
		PaperURL: "https://arxiv.org/abs/1706.03762",
	}
	got := p.candidateURLs(rec)
	want := []string{
		"https://example.org/a.pdf",
		"https://example.org/b.pdf",
		"https://arxiv.org/pdf/1706.03762",
	}
	if len(got) != len(want) {
		t.Fatalf("candidateURLs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProcessReturnsNilWhenAllCandidatesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProcessor(types.ProcessConfig{}, io.Discard)
	rec := &types.PaperRecord{Title: "gone", PDFURL: srv.URL + "/gone.pdf"}
	if got := p.Process(context.Background(), rec, t.TempDir()); got != nil {
		t.Errorf("Process = %+v, want nil", got)
	}
}

func TestProcessReturnsNilOnUnparseableContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>not a pdf</html>")
	}))
	defer srv.Close()

	p := NewProcessor(types.ProcessConfig{}, io.Discard)
	rec := &types.PaperRecord{Title: "html", PDFURL: srv.URL + "/fake.pdf"}
	if got := p.Process(context.Background(), rec, t.TempDir()); got != nil {
		t.Errorf("Process = %+v, want nil", got)
	}
}

func TestProcessNoCandidates(t *testing.T) {
	p := NewProcessor(types.ProcessConfig{}, io.Discard)
	rec := &types.PaperRecord{Title: "bare"}
	if got := p.Process(context.Background(), rec, t.TempDir()); got != nil {
		t.Errorf("Process = %+v, want nil", got)
	}
}
