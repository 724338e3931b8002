// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.PaperRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-6s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range records {
		title := truncate(r.Title, 60)
		year := ""
		if !r.Published.IsZero() {
			year = fmt.Sprintf("%d", r.Published.Year())
		} else if r.PublishedText != "" && r.PublishedText != types.UnknownDate {
			year = truncate(r.PublishedText, 6)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-6s  %-6d  %s\n",
			i+1, title, formatAuthors(r.Authors), year, r.Citations, r.Source)
	}

	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(records []types.PaperRecord, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
