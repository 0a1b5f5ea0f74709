// Package parser defines the strategy interface for workbook parsers and the
// fixed column schema of the bank's export vocabulary.
package parser

import (
	"context"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Parser is the strategy interface for all file format parsers
type Parser interface {
	// Name returns parser identifier (e.g., "xlsx-nbg")
	Name() string

	// CanParse checks if parser can handle this file
	// Returns true if this parser should be used for the file
	CanParse(path string, header []byte) bool

	// Parse extracts raw rows from the file. It fails only on structurally
	// malformed input; per-row oddities are left for the normalizer.
	Parse(ctx context.Context, r io.Reader, meta *Metadata) (*RawSheet, error)
}

// Column identifies one known export column. The set is closed: unknown
// header labels are ignored at read time and every known column has a defined
// default, which eliminates open-record "unknown key" bugs.
type Column string

const (
	ColTransactionNumber   Column = "transactionNumber"
	ColDate                Column = "date"
	ColTime                Column = "time"
	ColValeur              Column = "valeur"
	ColBranch              Column = "branch"
	ColTransactionCategory Column = "transactionCategory"
	ColWorkType            Column = "workType"
	ColAmount              Column = "amount"
	ColOrderAmount         Column = "orderAmount"
	ColCurrency            Column = "currency"
	ColType                Column = "type"
	ColExchangeRate        Column = "exchangeRate"
	ColDescription         Column = "description"
	ColAccountBalance      Column = "accountBalance"
	ColAccountHolderName   Column = "accountHolderName"
	ColCounterpartyName    Column = "counterpartyName"
	ColCounterpartyAccount Column = "counterpartyAccount"
	ColCounterpartyBank    Column = "counterpartyBank"
	ColAdditionalInfo      Column = "additionalInfo"
	ColReferenceNumber     Column = "referenceNumber"
	ColChannel             Column = "channel"
	ColAgentName           Column = "agentName"
	ColCommissionType      Column = "commissionType"
	ColMerchantCode        Column = "merchantCode"
	ColTransactionPurpose  Column = "transactionPurpose"
	ColCardTransactionDate Column = "cardTransactionDate"
	ColCardTransactionTime Column = "cardTransactionTime"
	ColDebitCard           Column = "debitCard"
)

// columnLabels maps the bank's Greek header labels to columns. The labels are
// the fixed vocabulary of the NBG account-movement export.
var columnLabels = map[string]Column{
	"Α/Α Συναλλαγής":                            ColTransactionNumber,
	"Ημερομηνία":                                ColDate,
	"Ώρα":                                       ColTime,
	"Valeur":                                    ColValeur,
	"Κατάστημα":                                 ColBranch,
	"Κατηγορία συναλλαγής":                      ColTransactionCategory,
	"Είδος εργασίας":                            ColWorkType,
	"Ποσό συναλλαγής":                           ColAmount,
	"Ποσό εντολής":                              ColOrderAmount,
	"Νόμισμα":                                   ColCurrency,
	"Χρέωση / Πίστωση":                          ColType,
	"Ισοτιμία":                                  ColExchangeRate,
	"Περιγραφή":                                 ColDescription,
	"Λογιστικό Υπόλοιπο":                        ColAccountBalance,
	"Ονοματεπώνυμο συμβαλλόμενου":               ColAccountHolderName,
	"Ονοματεπώνυμο αντισυμβαλλόμενου":           ColCounterpartyName,
	"Λογαριασμός αντισυμβαλλόμενου":             ColCounterpartyAccount,
	"Τράπεζα αντισυμβαλλόμενου":                 ColCounterpartyBank,
	"Επιπρόσθετες πληροφορίες":                  ColAdditionalInfo,
	"Αριθμός αναφοράς":                          ColReferenceNumber,
	"Κανάλι":                                    ColChannel,
	"Ονοματεπώνυμο αντιπροσώπου":                ColAgentName,
	"Είδος προμήθειας":                          ColCommissionType,
	"Κωδικός εμπόρου/οργανισμού":                ColMerchantCode,
	"Σκοπός συναλλαγής":                         ColTransactionPurpose,
	"Ημερομηνία Συναλλαγής με χρεωστική κάρτα":  ColCardTransactionDate,
	"Ώρα Συναλλαγής με χρεωστική κάρτα":         ColCardTransactionTime,
	"Χρεωστική Κάρτα":                           ColDebitCard,
}

// foldedLabels is columnLabels re-keyed by FoldLabel, built once at init.
var foldedLabels = func() map[string]Column {
	m := make(map[string]Column, len(columnLabels))
	for label, col := range columnLabels {
		m[FoldLabel(label)] = col
	}
	return m
}()

// FoldLabel normalizes a header label for matching: unicode-decomposed,
// diacritics stripped, lowercased and trimmed. Exports differ cosmetically
// (tonos marks, casing, padding) between e-banking versions; folding keeps
// the column mapping stable across them.
func FoldLabel(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, label)
	if err != nil {
		folded = label
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// ColumnForLabel resolves a raw header label to a known column.
// Returns false for labels outside the closed vocabulary.
func ColumnForLabel(label string) (Column, bool) {
	col, ok := foldedLabels[FoldLabel(label)]
	return col, ok
}

// Labels returns the known header labels (for diagnostics).
func Labels() []string {
	labels := make([]string, 0, len(columnLabels))
	for label := range columnLabels {
		labels = append(labels, label)
	}
	return labels
}

// Row is one spreadsheet row keyed by known column. Missing known columns
// read as the empty string via Get.
type Row map[Column]string

// Get returns the raw cell value for a column, or "" when absent.
func (r Row) Get(col Column) string {
	return r[col]
}

// RawSheet is the parsed content of one workbook before normalization.
type RawSheet struct {
	SheetName string
	Rows      []Row
}
