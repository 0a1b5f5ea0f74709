// Package mappings persists counterparty-to-category assignments as a JSON object.
package mappings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store holds the learned counterparty mappings. A mapping is created when
// the user assigns a category to a transaction with a counterparty name, and
// from then on every transaction of that counterparty inherits it.
type Store struct {
	path   string
	byName map[string]string
}

// Open loads the mapping file at path, or starts an empty store when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("mapping file path cannot be empty")
	}

	s := &Store{
		path:   path,
		byName: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &s.byName); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}
	if s.byName == nil {
		s.byName = make(map[string]string)
	}

	return s, nil
}

// Get returns the category mapped to the counterparty name, if any.
func (s *Store) Get(counterpartyName string) (string, bool) {
	category, ok := s.byName[counterpartyName]
	return category, ok
}

// Set records a mapping and persists it before returning. A failed write
// leaves the in-memory state unchanged.
func (s *Store) Set(counterpartyName, category string) error {
	if strings.TrimSpace(counterpartyName) == "" {
		return fmt.Errorf("counterparty name cannot be empty")
	}
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("category cannot be empty")
	}

	previous, existed := s.byName[counterpartyName]
	s.byName[counterpartyName] = category

	if err := s.save(); err != nil {
		if existed {
			s.byName[counterpartyName] = previous
		} else {
			delete(s.byName, counterpartyName)
		}
		return err
	}

	return nil
}

// Len reports the number of stored mappings.
func (s *Store) Len() int {
	return len(s.byName)
}

// Names returns the mapped counterparty names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// save atomically writes the mappings to disk.
// Uses atomic write pattern: write to temp file, then rename.
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(s.byName, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mappings: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
