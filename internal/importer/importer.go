// Package importer orchestrates scanning, parsing, and merging bank exports
// into the ledger.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Kontses/NBG-Analytics/internal/ledger"
	"github.com/Kontses/NBG-Analytics/internal/parser"
	"github.com/Kontses/NBG-Analytics/internal/registry"
	"github.com/Kontses/NBG-Analytics/internal/rules"
	"github.com/Kontses/NBG-Analytics/internal/scanner"
	"github.com/Kontses/NBG-Analytics/internal/transform"
)

// Stats aggregates the outcome of one import run.
type Stats struct {
	Files      int
	Rows       int
	Added      int
	Duplicates int
	RuleHits   int
	RuleMisses int
	// Unmatched holds a few example texts that no rule matched, for
	// tuning the rule table.
	Unmatched []string
}

const maxUnmatchedExamples = 10

// FileError records a file that failed to parse. The run continues past it.
type FileError struct {
	Path string
	Err  error
}

// Importer wires the parser registry, rule engine, and ledger into one
// import run.
type Importer struct {
	registry *registry.Registry
	engine   *rules.Engine
	ledger   *ledger.Ledger
	logger   *logrus.Logger
}

// New creates an importer. All collaborators are required.
func New(reg *registry.Registry, engine *rules.Engine, lgr *ledger.Ledger, logger *logrus.Logger) (*Importer, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("rule engine cannot be nil")
	}
	if lgr == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Importer{
		registry: reg,
		engine:   engine,
		ledger:   lgr,
		logger:   logger,
	}, nil
}

// Run scans inputPath (a directory tree or a single workbook) and merges
// every export found into the ledger. Parse failures are collected per file
// and do not abort the run; the context is checked between files.
func (i *Importer) Run(ctx context.Context, inputPath string) (*Stats, []FileError, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat input: %w", err)
	}

	var found []scanner.ScanResult
	if info.IsDir() {
		found, err = scanner.New(inputPath).Scan()
		if err != nil {
			return nil, nil, err
		}
	} else {
		meta, err := parser.NewMetadata(inputPath, info.ModTime())
		if err != nil {
			return nil, nil, err
		}
		found = []scanner.ScanResult{{Path: inputPath, Metadata: meta}}
	}

	stats := &Stats{}
	var failures []FileError

	for _, f := range found {
		select {
		case <-ctx.Done():
			return stats, failures, ctx.Err()
		default:
		}

		if err := i.importFile(ctx, f, stats); err != nil {
			i.logger.WithFields(logrus.Fields{
				"file":  filepath.Base(f.Path),
				"error": err,
			}).Warn("Skipping unparseable file")
			failures = append(failures, FileError{Path: f.Path, Err: err})
			continue
		}
		stats.Files++
	}

	i.logger.WithFields(logrus.Fields{
		"files":      stats.Files,
		"rows":       stats.Rows,
		"added":      stats.Added,
		"duplicates": stats.Duplicates,
	}).Info("Import run finished")

	return stats, failures, nil
}

// importFile parses one workbook and merges its rows.
func (i *Importer) importFile(ctx context.Context, found scanner.ScanResult, stats *Stats) error {
	p, err := i.registry.FindParser(found.Path)
	if err != nil {
		return err
	}

	f, err := os.Open(found.Path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheet, err := p.Parse(ctx, f, found.Metadata)
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}

	batch := transform.NewBatch()
	txns := transform.NormalizeSheet(sheet, batch)
	stats.Rows += len(txns)

	for _, txn := range txns {
		if _, ok := i.engine.Match(txn.Description, txn.CounterpartyName); ok {
			stats.RuleHits++
		} else {
			stats.RuleMisses++
			if len(stats.Unmatched) < maxUnmatchedExamples {
				text := txn.Description
				if text == "" {
					text = txn.CounterpartyName
				}
				stats.Unmatched = append(stats.Unmatched, text)
			}
		}
	}

	added, err := i.ledger.AddBatch(txns)
	if err != nil {
		return err
	}
	stats.Added += added
	stats.Duplicates += len(txns) - added

	i.logger.WithFields(logrus.Fields{
		"file":   filepath.Base(found.Path),
		"parser": p.Name(),
		"rows":   len(txns),
		"added":  added,
	}).Debug("Imported file")

	return nil
}
