// Package transform converts raw export rows into canonical transactions.
package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/Kontses/NBG-Analytics/internal/domain"
	"github.com/Kontses/NBG-Analytics/internal/parser"
)

// debitMarker is the single character the export uses in the debit/credit
// column to flag a debit. Any other value, including an absent cell, means
// credit. Preserve exactly: the amount's own sign also comes from the bank,
// so inferring type from the sign would break round-tripping.
const debitMarker = "Χ"

// fallbackLayouts are tried, in order, for dates that are not in the primary
// DD/MM/YYYY shape.
var fallbackLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	time.RFC3339,
}

// Normalize converts one raw row into a canonical Transaction. It is pure and
// total: per-row oddities (bad date, bad number, missing field) degrade to
// documented defaults and never fail the import.
func Normalize(row parser.Row, index int, batch *Batch) domain.Transaction {
	date, estimated := parseDate(row.Get(parser.ColDate), batch.StartedAt())

	return domain.Transaction{
		ID:                  batch.RowID(index),
		TransactionNumber:   row.Get(parser.ColTransactionNumber),
		Date:                date,
		Time:                row.Get(parser.ColTime),
		Valeur:              row.Get(parser.ColValeur),
		Branch:              row.Get(parser.ColBranch),
		TransactionCategory: row.Get(parser.ColTransactionCategory),
		WorkType:            row.Get(parser.ColWorkType),
		Amount:              parseAmount(row.Get(parser.ColAmount)),
		OrderAmount:         parseAmount(row.Get(parser.ColOrderAmount)),
		Currency:            row.Get(parser.ColCurrency),
		Type:                deriveType(row.Get(parser.ColType)),
		ExchangeRate:        row.Get(parser.ColExchangeRate),
		Description:         row.Get(parser.ColDescription),
		AccountBalance:      parseAmount(row.Get(parser.ColAccountBalance)),
		AccountHolderName:   row.Get(parser.ColAccountHolderName),
		CounterpartyName:    row.Get(parser.ColCounterpartyName),
		CounterpartyAccount: row.Get(parser.ColCounterpartyAccount),
		CounterpartyBank:    row.Get(parser.ColCounterpartyBank),
		AdditionalInfo:      row.Get(parser.ColAdditionalInfo),
		ReferenceNumber:     row.Get(parser.ColReferenceNumber),
		Channel:             row.Get(parser.ColChannel),
		AgentName:           row.Get(parser.ColAgentName),
		CommissionType:      row.Get(parser.ColCommissionType),
		MerchantCode:        row.Get(parser.ColMerchantCode),
		TransactionPurpose:  row.Get(parser.ColTransactionPurpose),
		CardTransactionDate: row.Get(parser.ColCardTransactionDate),
		CardTransactionTime: row.Get(parser.ColCardTransactionTime),
		DebitCard:           row.Get(parser.ColDebitCard),
		DateEstimated:       estimated,
	}
}

// NormalizeSheet normalizes every row of a parsed sheet under one batch.
func NormalizeSheet(sheet *parser.RawSheet, batch *Batch) []domain.Transaction {
	txns := make([]domain.Transaction, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		txns = append(txns, Normalize(row, i, batch))
	}
	return txns
}

// parseDate parses the export's DD/MM/YYYY date. Two-digit years are promoted
// to the 2000s. Other textual shapes go through the fallback layouts. A value
// that still fails parses as "now" with the estimated flag raised.
func parseDate(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now, true
	}

	if parts := strings.Split(value, "/"); len(parts) == 3 {
		day, dayErr := strconv.Atoi(strings.TrimSpace(parts[0]))
		month, monthErr := strconv.Atoi(strings.TrimSpace(parts[1]))
		year, yearErr := strconv.Atoi(strings.TrimSpace(parts[2]))
		if dayErr == nil && monthErr == nil && yearErr == nil &&
			day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			if year < 100 {
				year += 2000
			}
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), false
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, false
		}
	}

	return now, true
}

// parseAmount parses a comma-decimal numeric cell, defaulting to 0 on any
// failure. No currency-symbol stripping is performed beyond the comma swap.
func parseAmount(value string) float64 {
	value = strings.Replace(strings.TrimSpace(value), ",", ".", 1)
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

// deriveType applies the single-marker debit check.
func deriveType(value string) domain.TxnType {
	if strings.TrimSpace(value) == debitMarker {
		return domain.TypeDebit
	}
	return domain.TypeCredit
}
