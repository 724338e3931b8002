// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/store"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "List archived research runs",
	Long: `Archive lists research runs previously saved with research --archive.
Use archive rounds to inspect the round-by-round audit trail of one run.`,
	RunE: runArchiveList,
}

var archiveRoundsCmd = &cobra.Command{
	Use:   "rounds [run-id]",
	Short: "Show the round audit trail for one archived run",
	RunE:  runArchiveRounds,
}

func init() {
	archiveCmd.PersistentFlags().Int("limit", 20, "maximum runs to list")

	archiveCmd.AddCommand(archiveRoundsCmd)
	rootCmd.AddCommand(archiveCmd)
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	s, err := store.Open(cfg.Archive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := s.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-40s  %-16s  %-6s  %-6s  %-8s  %s\n",
		"ID", "Topic", "Started", "Rounds", "Papers", "Adequacy", "Early")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		topic := r.Topic
		if len(topic) > 40 {
			topic = topic[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-40s  %-16s  %-6d  %-6d  %-8.2f  %v\n",
			r.ID, topic, r.StartedAt.Format("2006-01-02 15:04"),
			r.Rounds, r.TotalPapers, r.FinalAdequacy, r.EarlyTermination)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

func runArchiveRounds(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide one run id (see archive list)")
	}
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	cfg := loadConfig()
	s, err := store.Open(cfg.Archive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer s.Close()

	rounds, err := s.RunRounds(context.Background(), runID)
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		fmt.Printf("No rounds for run %d.\n", runID)
		return nil
	}

	for _, r := range rounds {
		fmt.Fprintf(os.Stdout, "Round %d (%s)\n", r.Round, r.Duration)
		fmt.Fprintf(os.Stdout, "  queries: %s\n", strings.Join(r.Queries, "; "))
		fmt.Fprintf(os.Stdout, "  papers: %d new, %d total; adequacy %.2f\n",
			r.PapersFound, r.TotalPapers, r.AdequacyScore)
		if len(r.MissingAreas) > 0 {
			fmt.Fprintf(os.Stdout, "  gaps: %s\n", strings.Join(r.MissingAreas, "; "))
		}
		verdict := "stop"
		if r.Continue {
			verdict = "continue"
		}
		fmt.Fprintf(os.Stdout, "  decision: %s (%s)\n", verdict, r.Reason)
	}
	return nil
}
