// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/retrieval"
	"github.com/pdiddy/deep-research/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one query through all sources",
	Long: `Search runs a single query through the source waterfall, deduplicates
and ranks the results, and prints them as a table or JSON. Sessions can
be saved to a YAML file and reloaded later with --load.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "papers to retrieve (0 = config default)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "save the session to a YAML file")
	searchCmd.Flags().String("load", "", "print a previously saved session instead of searching")

	addFilterFlags(searchCmd)

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if loadPath, _ := cmd.Flags().GetString("load"); loadPath != "" {
		session, err := retrieval.LoadSession(loadPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Session saved %s, queries: %s\n",
			session.SavedAt.Format("2006-01-02 15:04"), strings.Join(session.Queries, "; "))
		return printRecords(session.Papers, jsonOutput)
	}

	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	queryText := strings.Join(args, " ")

	cfg := loadConfig()
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		cfg.Search.PapersPerQuery = limit
	}
	filters, err := filtersFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	primary, fallbacks := buildAdapters(cfg.Search)
	searcher := retrieval.NewSearcher(primary, fallbacks, cfg.Search, os.Stderr)
	records := searcher.SearchQueries(ctx, []string{queryText}, filters)

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		session := retrieval.Session{
			Queries: []string{queryText},
			Filters: filters,
			Papers:  records,
		}
		if err := retrieval.SaveSession(savePath, session); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Session saved to %s\n", savePath)
	}

	return printRecords(records, jsonOutput)
}

func printRecords(records []types.PaperRecord, jsonOutput bool) error {
	if jsonOutput {
		return retrieval.FormatJSON(records, os.Stdout)
	}
	retrieval.FormatTable(records, os.Stdout)
	return nil
}
