// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Session is a saved search: the queries issued, the filters applied, and
// the deduplicated, ranked records they produced.
type Session struct {
	Queries []string            `yaml:"queries"`
	SavedAt time.Time           `yaml:"saved_at"`
	Filters types.SearchFilters `yaml:"filters"`
	Papers  []types.PaperRecord `yaml:"papers"`
}

// SaveSession writes a search session to a YAML file.
func SaveSession(path string, s Session) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// LoadSession reads a search session previously written by SaveSession.
func LoadSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("reading session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("parsing session %s: %w", path, err)
	}
	return s, nil
}
