// Package ledger maintains the persisted, deduplicated transaction store.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kontses/NBG-Analytics/internal/domain"
	"github.com/Kontses/NBG-Analytics/internal/mappings"
	"github.com/Kontses/NBG-Analytics/internal/rules"
)

// Ledger owns the transaction collection and its persistence. All mutating
// operations write the full serialized ledger back before returning; the
// collection is kept sorted by date descending after every mutation.
//
// Single writer by design. Callers that want multi-process access need their
// own coordination.
type Ledger struct {
	path   string
	store  *mappings.Store
	engine *rules.Engine
	logger *logrus.Logger

	txns []domain.Transaction
	refs map[string]struct{}
}

// Open loads the ledger file at path, or starts empty when no file exists.
// The mapping store takes precedence over the rule engine whenever a
// transaction's category is determined.
func Open(path string, store *mappings.Store, engine *rules.Engine, logger *logrus.Logger) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger file path cannot be empty")
	}
	if store == nil {
		return nil, fmt.Errorf("mapping store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("rule engine cannot be nil")
	}
	if logger == nil {
		logger = logrus.New()
	}

	l := &Ledger{
		path:   path,
		store:  store,
		engine: engine,
		logger: logger,
		refs:   make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &l.txns); err != nil {
		return nil, fmt.Errorf("failed to parse ledger file: %w", err)
	}
	for _, t := range l.txns {
		if t.ReferenceNumber != "" {
			l.refs[t.ReferenceNumber] = struct{}{}
		}
	}
	domain.SortByDateDesc(l.txns)

	return l, nil
}

// Len reports the number of stored transactions.
func (l *Ledger) Len() int {
	return len(l.txns)
}

// Transactions returns a copy of the ledger, sorted by date descending.
func (l *Ledger) Transactions() []domain.Transaction {
	out := make([]domain.Transaction, len(l.txns))
	copy(out, l.txns)
	return out
}

// AddBatch categorizes and merges a batch of normalized transactions.
// Incoming transactions whose reference number already exists are dropped
// silently; re-imports of overlapping export ranges are expected. Returns
// the count of genuinely new entries.
func (l *Ledger) AddBatch(batch []domain.Transaction) (int, error) {
	added := 0
	for _, txn := range batch {
		if txn.ReferenceNumber != "" {
			if _, dup := l.refs[txn.ReferenceNumber]; dup {
				continue
			}
		}

		txn.CustomCategory = l.categorize(txn)

		l.txns = append(l.txns, txn)
		if txn.ReferenceNumber != "" {
			l.refs[txn.ReferenceNumber] = struct{}{}
		}
		added++
	}

	if added > 0 {
		domain.SortByDateDesc(l.txns)
		if err := l.save(); err != nil {
			return 0, err
		}
	}

	l.logger.WithFields(logrus.Fields{
		"batch":      len(batch),
		"added":      added,
		"duplicates": len(batch) - added,
		"total":      len(l.txns),
	}).Info("Merged transaction batch")

	return added, nil
}

// categorize resolves a transaction's category with the saved mapping taking
// precedence, then any category already present on the record, then the rule
// engine.
func (l *Ledger) categorize(txn domain.Transaction) string {
	if category, ok := l.store.Get(txn.CounterpartyName); ok {
		return category
	}
	if txn.CustomCategory != "" {
		return txn.CustomCategory
	}
	return l.engine.Categorize(txn.Description, txn.CounterpartyName)
}

// UpdateCategory records a counterparty mapping and rewrites the category on
// every ledger transaction sharing that counterparty name. Categorization is
// a property of the counterparty, not the individual transaction. When the
// counterparty name is empty only the targeted transaction is updated and no
// mapping is stored.
func (l *Ledger) UpdateCategory(transactionID, category, counterpartyName string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("category cannot be empty")
	}

	if counterpartyName != "" {
		// Mapping first, so the decision survives a later refresh.
		if err := l.store.Set(counterpartyName, category); err != nil {
			return fmt.Errorf("failed to save mapping: %w", err)
		}
	}

	updated := 0
	for i := range l.txns {
		match := l.txns[i].ID == transactionID ||
			(counterpartyName != "" && l.txns[i].CounterpartyName == counterpartyName)
		if match && l.txns[i].CustomCategory != category {
			l.txns[i].CustomCategory = category
			updated++
		}
	}

	if updated > 0 {
		domain.SortByDateDesc(l.txns)
		if err := l.save(); err != nil {
			return err
		}
	}

	l.logger.WithFields(logrus.Fields{
		"counterparty": counterpartyName,
		"category":     category,
		"updated":      updated,
	}).Info("Updated transaction category")

	return nil
}

// RefreshCategories re-resolves every transaction's category from the mapping
// store and the rule engine. Categories not backed by a mapping are
// recomputed from scratch, which lets rule table updates heal old imports.
// Persists and returns true only when at least one category changed.
func (l *Ledger) RefreshCategories() (bool, error) {
	changed := 0
	for i := range l.txns {
		category, ok := l.store.Get(l.txns[i].CounterpartyName)
		if !ok {
			category = l.engine.Categorize(l.txns[i].Description, l.txns[i].CounterpartyName)
		}
		if l.txns[i].CustomCategory != category {
			l.txns[i].CustomCategory = category
			changed++
		}
	}

	if changed == 0 {
		return false, nil
	}
	if err := l.save(); err != nil {
		return false, err
	}

	l.logger.WithField("changed", changed).Info("Refreshed transaction categories")
	return true, nil
}

// Clear empties the ledger. Counterparty mappings are retained; they
// represent the user's categorization preferences, not the data.
func (l *Ledger) Clear() error {
	l.txns = nil
	l.refs = make(map[string]struct{})
	if err := l.save(); err != nil {
		return err
	}

	l.logger.Info("Cleared transaction ledger")
	return nil
}

// save atomically writes the ledger to disk.
// Uses atomic write pattern: write to temp file, then rename.
func (l *Ledger) save() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	txns := l.txns
	if txns == nil {
		txns = []domain.Transaction{}
	}
	data, err := json.MarshalIndent(txns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	tempFile := l.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, l.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
