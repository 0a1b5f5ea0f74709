// Package validate checks a ledger snapshot for integrity problems.
package validate

import (
	"fmt"

	"github.com/Kontses/NBG-Analytics/internal/domain"
)

// ValidationResult contains all validation errors and warnings for a ledger
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a validation error
type ValidationError struct {
	ID      string
	Field   string
	Value   string
	Message string
}

// ValidationWarning represents a non-critical validation issue
type ValidationWarning struct {
	ID      string
	Field   string
	Value   string
	Message string
}

// OK reports whether no errors were found. Warnings do not fail validation.
func (r *ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// ValidateLedger checks individual transaction constraints and ledger-wide
// integrity. The snapshot is expected in ledger order, date descending; an
// out-of-order pair is a warning since reads assume that ordering.
func ValidateLedger(txns []domain.Transaction) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	ids := make(map[string]bool)
	refs := make(map[string]bool)

	for i, txn := range txns {
		if txn.ID == "" {
			result.Errors = append(result.Errors, ValidationError{
				ID:      txn.ID,
				Field:   "ID",
				Value:   "",
				Message: "transaction ID cannot be empty",
			})
		}

		if !domain.ValidateTxnType(txn.Type) {
			result.Errors = append(result.Errors, ValidationError{
				ID:      txn.ID,
				Field:   "Type",
				Value:   string(txn.Type),
				Message: fmt.Sprintf("invalid transaction type: %s (must be debit or credit)", txn.Type),
			})
		}

		// Check for duplicate IDs
		if txn.ID != "" {
			if ids[txn.ID] {
				result.Errors = append(result.Errors, ValidationError{
					ID:      txn.ID,
					Field:   "ID",
					Value:   txn.ID,
					Message: "duplicate transaction ID",
				})
			}
			ids[txn.ID] = true
		}

		// The reference number is the dedup key; a duplicate means the
		// merge invariant was broken.
		if txn.ReferenceNumber == "" {
			result.Warnings = append(result.Warnings, ValidationWarning{
				ID:      txn.ID,
				Field:   "ReferenceNumber",
				Value:   "",
				Message: "missing reference number, transaction is not protected against re-import",
			})
		} else {
			if refs[txn.ReferenceNumber] {
				result.Errors = append(result.Errors, ValidationError{
					ID:      txn.ID,
					Field:   "ReferenceNumber",
					Value:   txn.ReferenceNumber,
					Message: "duplicate reference number",
				})
			}
			refs[txn.ReferenceNumber] = true
		}

		if txn.DateEstimated {
			result.Warnings = append(result.Warnings, ValidationWarning{
				ID:      txn.ID,
				Field:   "Date",
				Value:   txn.Date.Format("2006-01-02"),
				Message: "date could not be parsed from the export and was estimated at import time",
			})
		}

		if i > 0 && txns[i-1].Date.Before(txn.Date) {
			result.Warnings = append(result.Warnings, ValidationWarning{
				ID:      txn.ID,
				Field:   "Date",
				Value:   txn.Date.Format("2006-01-02"),
				Message: "ledger is not sorted by date descending at this position",
			})
		}
	}

	return result
}
