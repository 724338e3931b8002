// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store archives completed research runs in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Store manages the run archive SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at cfg.Path, creating the
// schema if it does not exist.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "research.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			rounds INTEGER,
			total_papers INTEGER,
			final_adequacy REAL,
			early_termination INTEGER,
			all_queries TEXT,
			final_summary TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			round INTEGER NOT NULL,
			queries TEXT,
			papers_found INTEGER,
			papers_processed INTEGER,
			papers_analyzed INTEGER,
			total_papers INTEGER,
			adequacy_score REAL,
			missing_areas TEXT,
			continue_decision INTEGER,
			reason TEXT,
			duration_ms INTEGER,
			PRIMARY KEY (run_id, round)
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			title TEXT NOT NULL,
			authors TEXT,
			published TEXT,
			citations INTEGER,
			venue TEXT,
			source TEXT,
			arxiv_id TEXT,
			doi TEXT,
			paper_url TEXT,
			analysis TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_run_id ON papers(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_topic ON runs(topic)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun archives one completed research run and returns its id.
func (s *Store) SaveRun(ctx context.Context, result *types.ResearchResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	queriesJSON, _ := json.Marshal(result.AllQueries)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (topic, started_at, finished_at, rounds, total_papers,
			final_adequacy, early_termination, all_queries, final_summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Topic,
		result.StartedAt.UTC().Format(time.RFC3339),
		result.FinishedAt.UTC().Format(time.RFC3339),
		len(result.Rounds),
		result.TotalPapersAnalyzed,
		result.FinalAdequacy,
		boolInt(result.EarlyTermination),
		string(queriesJSON),
		result.FinalSummary,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, rr := range result.Rounds {
		rQueries, _ := json.Marshal(rr.Queries)
		rMissing, _ := json.Marshal(rr.MissingAreas)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rounds (run_id, round, queries, papers_found, papers_processed,
				papers_analyzed, total_papers, adequacy_score, missing_areas,
				continue_decision, reason, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, rr.Round, string(rQueries), rr.PapersFound, rr.PapersProcessed,
			rr.PapersAnalyzed, rr.TotalPapers, rr.AdequacyScore, string(rMissing),
			boolInt(rr.Continue), rr.Reason, rr.Duration.Milliseconds(),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting round %d: %w", rr.Round, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (run_id, title, authors, published, citations, venue,
			source, arxiv_id, doi, paper_url, analysis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing paper insert: %w", err)
	}
	defer stmt.Close()

	for i := range result.Papers {
		p := &result.Papers[i]
		authorsJSON, _ := json.Marshal(p.Authors)
		_, err := stmt.ExecContext(ctx,
			runID, p.Title, string(authorsJSON), p.PublishedText, p.Citations,
			p.Venue, string(p.Source), p.ArxivID, p.DOI, p.PaperURL, p.Analysis,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %q: %w", p.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RunSummary is one archived run as listed by ListRuns.
type RunSummary struct {
	ID               int64
	Topic            string
	StartedAt        time.Time
	Rounds           int
	TotalPapers      int
	FinalAdequacy    float64
	EarlyTermination bool
}

// ListRuns returns archived runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, started_at, rounds, total_papers, final_adequacy, early_termination
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started string
		var early int
		if err := rows.Scan(&r.ID, &r.Topic, &started, &r.Rounds, &r.TotalPapers, &r.FinalAdequacy, &early); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.EarlyTermination = early != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunRounds returns the round audit trail for one archived run.
func (s *Store) RunRounds(ctx context.Context, runID int64) ([]types.SearchRoundResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round, queries, papers_found, papers_processed, papers_analyzed,
			total_papers, adequacy_score, missing_areas, continue_decision, reason, duration_ms
		 FROM rounds WHERE run_id = ? ORDER BY round`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying rounds: %w", err)
	}
	defer rows.Close()

	var out []types.SearchRoundResult
	for rows.Next() {
		var rr types.SearchRoundResult
		var queries, missing string
		var cont int
		var durationMS int64
		if err := rows.Scan(&rr.Round, &queries, &rr.PapersFound, &rr.PapersProcessed,
			&rr.PapersAnalyzed, &rr.TotalPapers, &rr.AdequacyScore, &missing,
			&cont, &rr.Reason, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning round: %w", err)
		}
		json.Unmarshal([]byte(queries), &rr.Queries)
		json.Unmarshal([]byte(missing), &rr.MissingAreas)
		rr.Continue = cont != 0
		rr.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rr)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
