// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: llm-api-key (plus llm-api-key-2, llm-api-key-3, ... for the
// rotation pool), llm-summary-api-key, scholarly-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LLMKeys assembles the language-model key rotation pool in order:
// llm-api-key first, then llm-api-key-2, llm-api-key-3, and so on until
// the first gap in the numbering.
func LLMKeys(secrets map[string]string) []string {
	var keys []string
	if k, ok := secrets["llm-api-key"]; ok {
		keys = append(keys, k)
	}
	for i := 2; ; i++ {
		k, ok := secrets[fmt.Sprintf("llm-api-key-%d", i)]
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	return keys
}
