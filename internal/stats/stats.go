// Package stats derives aggregate views from a transaction snapshot.
// All operations are pure reads; callers pass the ledger snapshot in.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/Kontses/NBG-Analytics/internal/domain"
)

// Filter optionally restricts a snapshot to an inclusive date range and a
// single category. The end of the range is extended to the end of its day so
// a plain calendar date includes that day's transactions.
type Filter struct {
	From     *time.Time
	To       *time.Time
	Category string
}

// Apply returns the transactions matching the filter, preserving order.
func (f Filter) Apply(txns []domain.Transaction) []domain.Transaction {
	if f.From == nil && f.To == nil && f.Category == "" {
		out := make([]domain.Transaction, len(txns))
		copy(out, txns)
		return out
	}

	var end time.Time
	if f.To != nil {
		end = time.Date(f.To.Year(), f.To.Month(), f.To.Day(), 23, 59, 59, int(999*time.Millisecond), f.To.Location())
	}

	out := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if f.From != nil && t.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && t.Date.After(end) {
			continue
		}
		if f.Category != "" && t.Category() != f.Category {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MonthlyStat is one calendar month's income and expense totals.
type MonthlyStat struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

// Monthly groups transactions by calendar year-month, ascending by month key.
// Income sums credit magnitudes, expenses sums debit magnitudes.
func Monthly(txns []domain.Transaction) []MonthlyStat {
	byMonth := make(map[string]*MonthlyStat)
	for _, t := range txns {
		key := t.MonthKey()
		stat, ok := byMonth[key]
		if !ok {
			stat = &MonthlyStat{Month: key}
			byMonth[key] = stat
		}
		switch t.Type {
		case domain.TypeCredit:
			stat.Income += t.AbsAmount()
		case domain.TypeDebit:
			stat.Expenses += t.AbsAmount()
		}
	}

	out := make([]MonthlyStat, 0, len(byMonth))
	for _, stat := range byMonth {
		stat.Balance = stat.Income - stat.Expenses
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CategoryStat is one category's debit total.
type CategoryStat struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Categories sums debit magnitudes per category, descending by amount.
// Payroll is excluded entirely; it is income mis-flagged as a category and
// must never appear in an expense breakdown.
func Categories(txns []domain.Transaction) []CategoryStat {
	byCategory := make(map[string]float64)
	for _, t := range txns {
		if t.Type != domain.TypeDebit {
			continue
		}
		category := t.Category()
		if category == domain.CategoryPayroll {
			continue
		}
		byCategory[category] += t.AbsAmount()
	}

	out := make([]CategoryStat, 0, len(byCategory))
	for category, amount := range byCategory {
		out = append(out, CategoryStat{Category: category, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TotalBalance returns the bank-reported balance of the most recent
// transaction. The snapshot is expected in ledger order, date descending.
func TotalBalance(txns []domain.Transaction) float64 {
	if len(txns) == 0 {
		return 0
	}
	return txns[0].AccountBalance
}

// TotalIncome sums credit magnitudes across the snapshot.
func TotalIncome(txns []domain.Transaction) float64 {
	var sum float64
	for _, t := range txns {
		if t.Type == domain.TypeCredit {
			sum += t.AbsAmount()
		}
	}
	return sum
}

// TotalExpenses sums debit magnitudes across the snapshot.
func TotalExpenses(txns []domain.Transaction) float64 {
	var sum float64
	for _, t := range txns {
		if t.Type == domain.TypeDebit {
			sum += t.AbsAmount()
		}
	}
	return sum
}

// greekMonthShort maps time.Month to the short Greek label used on
// month-start trend markers.
var greekMonthShort = [...]string{
	"Ιαν", "Φεβ", "Μαρ", "Απρ", "Μαϊ", "Ιουν",
	"Ιουλ", "Αυγ", "Σεπ", "Οκτ", "Νοε", "Δεκ",
}

// MonthLabel returns the short Greek label for a month.
func MonthLabel(m time.Month) string {
	return greekMonthShort[int(m)-1]
}

// TrendPoint is one day's closing balance on the running-balance series.
type TrendPoint struct {
	Date       string  `json:"date"`
	Balance    float64 `json:"balance"`
	MonthStart bool    `json:"monthStart,omitempty"`
	MonthLabel string  `json:"monthLabel,omitempty"`
}

// BalanceTrend produces one point per distinct calendar day, ascending. When
// several transactions share a day the last one's bank-reported balance wins.
// A day whose month differs from the previous distinct day's carries a marker
// with the short Greek month label so the presentation layer can annotate it.
// The first day of the series is never marked; markers announce month
// changes, not months.
func BalanceTrend(txns []domain.Transaction) []TrendPoint {
	if len(txns) == 0 {
		return nil
	}

	asc := make([]domain.Transaction, len(txns))
	copy(asc, txns)
	domain.SortByDateAsc(asc)

	var points []TrendPoint
	prevMonth := asc[0].MonthKey()
	for _, t := range asc {
		key := t.DayKey()
		if n := len(points); n > 0 && points[n-1].Date == key {
			points[n-1].Balance = t.AccountBalance
			continue
		}

		point := TrendPoint{Date: key, Balance: t.AccountBalance}
		month := t.MonthKey()
		if month != prevMonth {
			point.MonthStart = true
			point.MonthLabel = MonthLabel(t.Date.Month())
			prevMonth = month
		}
		points = append(points, point)
	}
	return points
}

// MerchantMonth is one month's slice of a merchant's history.
type MerchantMonth struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// MerchantStat describes recurring spend at one merchant.
type MerchantStat struct {
	Name          string                   `json:"name"`
	Category      string                   `json:"category"`
	Count         int                      `json:"count"`
	TotalAmount   float64                  `json:"totalAmount"`
	AverageAmount float64                  `json:"averageAmount"`
	Monthly       map[string]MerchantMonth `json:"monthly"`
}

// SortKey selects the merchant report ordering.
type SortKey string

const (
	SortByAmount SortKey = "amount"
	SortByCount  SortKey = "count"
)

// Merchants builds the merchant-recurrence report: debit-only, payroll
// excluded, optionally restricted to one category. Transactions group by the
// normalized counterparty name, falling back to the description when the
// counterparty is blank. Merchants seen fewer than twice are dropped; the
// report is specifically about recurring spend.
func Merchants(txns []domain.Transaction, filterCategory string, sortBy SortKey) []MerchantStat {
	byName := make(map[string]*MerchantStat)
	for _, t := range txns {
		if t.Type != domain.TypeDebit {
			continue
		}
		category := t.Category()
		if category == domain.CategoryPayroll {
			continue
		}
		if filterCategory != "" && category != filterCategory {
			continue
		}

		name := t.CounterpartyName
		if strings.TrimSpace(name) == "" {
			name = t.Description
		}
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		stat, ok := byName[name]
		if !ok {
			stat = &MerchantStat{Name: name, Monthly: make(map[string]MerchantMonth)}
			byName[name] = stat
		}
		stat.Category = category
		stat.Count++
		stat.TotalAmount += t.AbsAmount()

		month := stat.Monthly[t.MonthKey()]
		month.Count++
		month.Amount += t.AbsAmount()
		stat.Monthly[t.MonthKey()] = month
	}

	out := make([]MerchantStat, 0, len(byName))
	for _, stat := range byName {
		if stat.Count < 2 {
			continue
		}
		stat.AverageAmount = stat.TotalAmount / float64(stat.Count)
		out = append(out, *stat)
	}

	sort.Slice(out, func(i, j int) bool {
		if sortBy == SortByCount {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
		} else {
			if out[i].TotalAmount != out[j].TotalAmount {
				return out[i].TotalAmount > out[j].TotalAmount
			}
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MerchantSummary is the headline figures over a merchant report.
type MerchantSummary struct {
	TotalRepeatedSpend float64 `json:"totalRepeatedSpend"`
	FrequentMerchants  int     `json:"frequentMerchants"`
}

// Summarize totals the recurring spend and counts merchants with five or
// more transactions.
func Summarize(merchants []MerchantStat) MerchantSummary {
	var summary MerchantSummary
	for _, m := range merchants {
		summary.TotalRepeatedSpend += m.TotalAmount
		if m.Count >= 5 {
			summary.FrequentMerchants++
		}
	}
	return summary
}
