// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deep-research CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/internal/source"
	"github.com/pdiddy/deep-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the deep-research CLI.
var rootCmd = &cobra.Command{
	Use:   "deep-research",
	Short: "Automated multi-round literature review",
	Long: `deep-research runs an automated literature review: it generates search
queries for a topic, retrieves papers from multiple academic sources,
analyzes them with a language model, and repeats with refined queries
until coverage is judged adequate.

Use the research subcommand for the full loop, search for a one-shot
multi-source query, and archive to browse past runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		httputil.LogWriter = os.Stderr
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deep-research.yaml or ~/.config/deep-research/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deep-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deep-research"))
		}
	}

	viper.SetEnvPrefix("DEEP_RESEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration: built-in defaults,
// overridden by config-file/env keys, with API keys filled from secrets.
func loadConfig() types.Config {
	cfg := types.DefaultConfig()

	setString(&cfg.LLM.BaseURL, "llm.base_url")
	setString(&cfg.LLM.Model, "llm.model")
	setString(&cfg.LLM.SummaryModel, "llm.summary_model")
	setInt(&cfg.LLM.MaxRetries, "llm.max_retries")
	setInt(&cfg.LLM.MaxTokens, "llm.max_tokens")
	setDuration(&cfg.LLM.Timeout, "llm.timeout")

	setInt(&cfg.Search.PapersPerQuery, "search.papers_per_query")
	setInt(&cfg.Search.MaxPages, "search.max_pages")
	setInt(&cfg.Search.MaxPasses, "search.max_passes")
	setInt(&cfg.Search.MinTotalResults, "search.min_total_results")
	setDuration(&cfg.Search.InterQueryDelay, "search.inter_query_delay")
	setDuration(&cfg.Search.Timeout, "search.timeout")

	setInt(&cfg.Research.MaxRounds, "research.max_rounds")
	setInt(&cfg.Research.QueriesPerRound, "research.queries_per_round")
	setInt(&cfg.Research.MinPapersForContinue, "research.min_papers_for_continue")
	setFloat(&cfg.Research.AdequacyThreshold, "research.adequacy_threshold")
	setInt(&cfg.Research.AnalysisWorkers, "research.analysis_workers")

	setString(&cfg.Process.DownloadDir, "process.download_dir")
	setInt(&cfg.Process.ChunkSize, "process.chunk_size")
	setInt(&cfg.Process.MaxChunks, "process.max_chunks")

	setString(&cfg.Archive.Path, "archive.path")

	cfg.LLM.APIKeys = secrets.LLMKeys(loadedSecrets)
	if k, ok := loadedSecrets["llm-summary-api-key"]; ok {
		cfg.LLM.APIKeys = append(cfg.LLM.APIKeys, k)
	}
	if k, ok := loadedSecrets["scholarly-api-key"]; ok {
		cfg.Search.ScholarlyAPIKey = k
	}

	return cfg
}

func setString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setFloat(dst *float64, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func setDuration(dst *time.Duration, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}

// buildAdapters assembles the source waterfall: the scraped primary first,
// then the API fallbacks in fixed order.
func buildAdapters(cfg types.SearchSourceConfig) (source.Adapter, []source.Adapter) {
	client := &http.Client{Timeout: cfg.Timeout}
	primary := &source.ScholarAdapter{Client: client, Cfg: cfg}
	fallbacks := []source.Adapter{
		&source.ScholarlyAdapter{Client: client, Cfg: cfg},
		&source.DBLPAdapter{Client: client, Cfg: cfg},
		&source.ArxivAdapter{Client: client, Cfg: cfg},
	}
	return primary, fallbacks
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
