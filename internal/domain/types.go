// Package domain defines the canonical transaction record and category vocabulary.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// TxnType is the debit/credit classification derived once at normalization
// time and never recomputed. Use ValidateTxnType to ensure validity before use.
type TxnType string

const (
	TypeDebit  TxnType = "debit"
	TypeCredit TxnType = "credit"
)

// ValidateTxnType checks if the transaction type is valid
func ValidateTxnType(t TxnType) bool {
	return t == TypeDebit || t == TypeCredit
}

// Category labels are free strings; these are the standard ones the rule table
// produces. Μεταφορές has no keyword rule and is only ever user-assigned.
const (
	CategoryHealth        = "Υγεία & Φαρμακεία"
	CategorySupermarket   = "Σούπερ Μάρκετ"
	CategoryFoodAndDrink  = "Φαγητό & Ποτό"
	CategoryTransport     = "Μεταφορικά"
	CategoryEntertainment = "Ψυχαγωγία"
	CategoryClothing      = "Ρούχα & Αξεσουάρ"
	CategoryBills         = "Λογαριασμοί"
	CategoryPayroll       = "Μισθοδοσία"
	CategoryTransfers     = "Μεταφορές"
	CategoryCash          = "Ανάληψη μετρητών"
	CategoryOther         = "Άλλο"
)

// DefaultCategories returns the standard category labels in display order.
func DefaultCategories() []string {
	return []string{
		CategoryFoodAndDrink,
		CategorySupermarket,
		CategoryTransport,
		CategoryEntertainment,
		CategoryHealth,
		CategoryClothing,
		CategoryBills,
		CategoryPayroll,
		CategoryTransfers,
		CategoryCash,
		CategoryOther,
	}
}

// Transaction is one bank ledger entry. Field names and JSON tags follow the
// NBG account-movement export vocabulary; passthrough metadata (branch,
// channel, card info) is carried opaquely. Date is the only typed temporal
// field; Time, Valeur and the card fields stay free text as the bank delivers
// them.
type Transaction struct {
	ID                  string    `json:"id"`
	TransactionNumber   string    `json:"transactionNumber"`
	Date                time.Time `json:"date"`
	Time                string    `json:"time"`
	Valeur              string    `json:"valeur"`
	Branch              string    `json:"branch"`
	TransactionCategory string    `json:"transactionCategory"`
	WorkType            string    `json:"workType"`
	// Sign convention: negative magnitude for debits, positive for credits,
	// exactly as the bank reports it. Type is derived from the export's
	// debit/credit marker column, never from this sign.
	Amount      float64 `json:"amount"`
	OrderAmount float64 `json:"orderAmount"`
	Currency    string  `json:"currency"`
	Type        TxnType `json:"type"`
	ExchangeRate string `json:"exchangeRate"`
	Description  string `json:"description"`
	// AccountBalance is the running balance as reported by the bank at the
	// moment of this transaction, not computed locally.
	AccountBalance      float64 `json:"accountBalance"`
	AccountHolderName   string  `json:"accountHolderName"`
	CounterpartyName    string  `json:"counterpartyName"`
	CounterpartyAccount string  `json:"counterpartyAccount"`
	CounterpartyBank    string  `json:"counterpartyBank"`
	AdditionalInfo      string  `json:"additionalInfo"`
	ReferenceNumber     string  `json:"referenceNumber"`
	Channel             string  `json:"channel"`
	AgentName           string  `json:"agentName"`
	CommissionType      string  `json:"commissionType"`
	MerchantCode        string  `json:"merchantCode"`
	TransactionPurpose  string  `json:"transactionPurpose"`
	CardTransactionDate string  `json:"cardTransactionDate"`
	CardTransactionTime string  `json:"cardTransactionTime"`
	DebitCard           string  `json:"debitCard"`
	CustomCategory      string  `json:"customCategory,omitempty"`
	// DateEstimated marks records whose export date could not be parsed and
	// was substituted with the import time. The substitution is deliberate
	// (one bad row must never block an import); the flag makes it observable.
	DateEstimated bool `json:"dateEstimated,omitempty"`
}

// AbsAmount returns the unsigned magnitude of the transaction amount.
func (t *Transaction) AbsAmount() float64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// Category returns the effective category label, defaulting lazily to Άλλο.
func (t *Transaction) Category() string {
	if t.CustomCategory == "" {
		return CategoryOther
	}
	return t.CustomCategory
}

// MonthKey returns the calendar year-month bucket key, e.g. "2024-01".
func (t *Transaction) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", t.Date.Year(), t.Date.Month())
}

// DayKey returns the calendar day bucket key, e.g. "2024-01-05".
func (t *Transaction) DayKey() string {
	return t.Date.Format("2006-01-02")
}

// SortByDateDesc sorts transactions newest-first in place. The sort is stable
// so same-day entries keep their relative order across re-sorts.
func SortByDateDesc(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})
}

// SortByDateAsc sorts transactions oldest-first in place (stable).
func SortByDateAsc(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
}
