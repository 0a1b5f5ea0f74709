package parser

import (
	"fmt"
	"time"
)

// Metadata contains context about the file being parsed.
//
// Create instances using NewMetadata(filePath, detectedAt). Optional fields
// (the account hint inferred from the directory layout) can be set after
// construction. An empty AccountHint is not an error; it only means the file
// sat directly under the input root.
type Metadata struct {
	filePath    string
	accountHint string // Inferred from directory (e.g., "salary-account")
	detectedAt  time.Time
}

// NewMetadata creates a new Metadata instance with validated required fields.
func NewMetadata(filePath string, detectedAt time.Time) (*Metadata, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if detectedAt.IsZero() {
		return nil, fmt.Errorf("detected time cannot be zero")
	}
	return &Metadata{
		filePath:   filePath,
		detectedAt: detectedAt,
	}, nil
}

// FilePath returns the file path
func (m *Metadata) FilePath() string {
	return m.filePath
}

// AccountHint returns the account name inferred from the directory structure.
// Returns empty string if the path didn't match the expected structure.
func (m *Metadata) AccountHint() string {
	return m.accountHint
}

// DetectedAt returns the timestamp when the file was detected
func (m *Metadata) DetectedAt() time.Time {
	return m.detectedAt
}

// SetAccountHint sets the account hint
func (m *Metadata) SetAccountHint(hint string) {
	m.accountHint = hint
}
