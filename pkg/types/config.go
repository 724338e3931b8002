// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMConfig holds settings for the language-model API client.
type LLMConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the OpenAI-compatible chat completions endpoint base
	// (e.g. "https://api.deepseek.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the model used for query generation and per-paper
	// analysis.
	Model string `json:"model" yaml:"model"`

	// SummaryModel is the higher-capacity model used for summarization
	// and adequacy evaluation. Empty falls back to Model.
	SummaryModel string `json:"summary_model,omitempty" yaml:"summary_model,omitempty"`

	// APIKeys is the credential rotation pool. Calls rotate to the next
	// key on rate-limit responses.
	APIKeys []string `json:"api_keys,omitempty" yaml:"api_keys,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxTokens is the completion token budget per call (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxPromptChars truncates prompt text beyond this many characters
	// before sending (default 120000).
	MaxPromptChars int `json:"max_prompt_chars" yaml:"max_prompt_chars"`
}

// SearchSourceConfig holds settings shared by the paper sources and the
// retrieval orchestrator.
type SearchSourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// PapersPerQuery is the target result count per query (default 10).
	PapersPerQuery int `json:"papers_per_query" yaml:"papers_per_query"`

	// MaxPages bounds pagination for the scrape-style source (default 3).
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// PageDelayMin and PageDelayMax bound the randomized delay between
	// paginated requests within one source call.
	PageDelayMin time.Duration `json:"page_delay_min" yaml:"page_delay_min"`
	PageDelayMax time.Duration `json:"page_delay_max" yaml:"page_delay_max"`

	// RecordDelay is the fixed per-record delay for the scholarly
	// library source.
	RecordDelay time.Duration `json:"record_delay" yaml:"record_delay"`

	// InterQueryDelay is the delay between distinct queries in one pass.
	InterQueryDelay time.Duration `json:"inter_query_delay" yaml:"inter_query_delay"`

	// InterPassDelay is the delay between retry passes over the full
	// query list.
	InterPassDelay time.Duration `json:"inter_pass_delay" yaml:"inter_pass_delay"`

	// MaxPasses caps full-list retry passes when a pass yields too few
	// results (default 3).
	MaxPasses int `json:"max_passes" yaml:"max_passes"`

	// MinTotalResults is the floor below which another pass is attempted
	// (default 1).
	MinTotalResults int `json:"min_total_results" yaml:"min_total_results"`

	// ScholarlyAPIKey authenticates the scholarly library source, when
	// required.
	ScholarlyAPIKey string `json:"scholarly_api_key,omitempty" yaml:"scholarly_api_key,omitempty"`
}

// ResearchConfig holds settings for the round controller.
type ResearchConfig struct {
	// MaxRounds is the search round budget (default 3).
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`

	// QueriesPerRound is the number of queries generated each round
	// (default 3).
	QueriesPerRound int `json:"queries_per_round" yaml:"queries_per_round"`

	// MinPapersForContinue: a round that finds fewer new papers than
	// this forces another round regardless of the adequacy score
	// (default 3).
	MinPapersForContinue int `json:"min_papers_for_continue" yaml:"min_papers_for_continue"`

	// AdequacyThreshold is the score in [0,1] at or above which coverage
	// counts as sufficient (default 0.75).
	AdequacyThreshold float64 `json:"adequacy_threshold" yaml:"adequacy_threshold"`

	// MaxMissingAreas caps the gap topics carried into the next round
	// (default 5).
	MaxMissingAreas int `json:"max_missing_areas" yaml:"max_missing_areas"`

	// AnalysisWorkers bounds the per-paper analysis pool (default 3,
	// further capped by the credential count).
	AnalysisWorkers int `json:"analysis_workers" yaml:"analysis_workers"`

	// AnalysisBatchSize caps the papers analyzed per round (default 10).
	AnalysisBatchSize int `json:"analysis_batch_size" yaml:"analysis_batch_size"`

	// AnalysisDelay is the minimum delay between analysis task starts.
	AnalysisDelay time.Duration `json:"analysis_delay" yaml:"analysis_delay"`
}

// ProcessConfig holds settings for the paper processing stage.
type ProcessConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDir is the base directory for downloaded PDFs; each run
	// gets a "<topic>_<timestamp>" subdirectory.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// ChunkSize is the character length of extracted-text chunks
	// (default 8000).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// MaxChunks caps the chunks kept per paper (default 5).
	MaxChunks int `json:"max_chunks" yaml:"max_chunks"`

	// DownloadDelay is the delay between consecutive downloads
	// (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}

// ArchiveConfig holds settings for the run archive.
type ArchiveConfig struct {
	// Path is the SQLite database file (default "research.db").
	Path string `json:"path" yaml:"path"`
}

// Config groups all component configurations.
type Config struct {
	LLM      LLMConfig          `json:"llm" yaml:"llm"`
	Search   SearchSourceConfig `json:"search" yaml:"search"`
	Research ResearchConfig     `json:"research" yaml:"research"`
	Process  ProcessConfig      `json:"process" yaml:"process"`
	Archive  ArchiveConfig      `json:"archive" yaml:"archive"`
}

// DefaultConfig returns the configuration used when no overrides are set.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			HTTPConfig:     HTTPConfig{Timeout: 120 * time.Second, UserAgent: "deep-research/0.1"},
			BaseURL:        "https://api.deepseek.com",
			Model:          "deepseek-chat",
			SummaryModel:   "deepseek-reasoner",
			MaxRetries:     3,
			MaxTokens:      4096,
			MaxPromptChars: 120000,
		},
		Search: SearchSourceConfig{
			HTTPConfig:      HTTPConfig{Timeout: 30 * time.Second, UserAgent: "deep-research/0.1"},
			PapersPerQuery:  10,
			MaxPages:        3,
			PageDelayMin:    2 * time.Second,
			PageDelayMax:    5 * time.Second,
			RecordDelay:     1 * time.Second,
			InterQueryDelay: 2 * time.Second,
			InterPassDelay:  5 * time.Second,
			MaxPasses:       3,
			MinTotalResults: 1,
		},
		Research: ResearchConfig{
			MaxRounds:            3,
			QueriesPerRound:      3,
			MinPapersForContinue: 3,
			AdequacyThreshold:    0.75,
			MaxMissingAreas:      5,
			AnalysisWorkers:      3,
			AnalysisBatchSize:    10,
			AnalysisDelay:        1 * time.Second,
		},
		Process: ProcessConfig{
			HTTPConfig:    HTTPConfig{Timeout: 60 * time.Second, UserAgent: "deep-research/0.1"},
			DownloadDir:   "downloads",
			ChunkSize:     8000,
			MaxChunks:     5,
			DownloadDelay: 1 * time.Second,
		},
		Archive: ArchiveConfig{Path: "research.db"},
	}
}
