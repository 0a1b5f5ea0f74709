// Package output serializes aggregate reports for downstream consumers.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Kontses/NBG-Analytics/internal/domain"
	"github.com/Kontses/NBG-Analytics/internal/stats"
)

// Report bundles every aggregate view over one ledger snapshot. It is what a
// chart or export consumer reads instead of the raw ledger.
type Report struct {
	GeneratedAt     time.Time             `json:"generatedAt"`
	Transactions    int                   `json:"transactions"`
	TotalBalance    float64               `json:"totalBalance"`
	TotalIncome     float64               `json:"totalIncome"`
	TotalExpenses   float64               `json:"totalExpenses"`
	Monthly         []stats.MonthlyStat   `json:"monthly"`
	Categories      []stats.CategoryStat  `json:"categories"`
	Merchants       []stats.MerchantStat  `json:"merchants"`
	MerchantSummary stats.MerchantSummary `json:"merchantSummary"`
	BalanceTrend    []stats.TrendPoint    `json:"balanceTrend"`
}

// WriteOptions configures how the report is written
type WriteOptions struct {
	FilePath string // Output path (empty = stdout)
	SortBy   stats.SortKey
	Filter   stats.Filter
}

// BuildReport derives every aggregate view from a ledger snapshot. The
// snapshot must be in ledger order, date descending; totals come from the
// full snapshot while the view series honor the filter.
func BuildReport(txns []domain.Transaction, filter stats.Filter, sortBy stats.SortKey) *Report {
	filtered := filter.Apply(txns)
	merchants := stats.Merchants(filtered, filter.Category, sortBy)

	return &Report{
		GeneratedAt:     time.Now(),
		Transactions:    len(filtered),
		TotalBalance:    stats.TotalBalance(txns),
		TotalIncome:     stats.TotalIncome(txns),
		TotalExpenses:   stats.TotalExpenses(txns),
		Monthly:         stats.Monthly(filtered),
		Categories:      stats.Categories(filtered),
		Merchants:       merchants,
		MerchantSummary: stats.Summarize(merchants),
		BalanceTrend:    stats.BalanceTrend(filtered),
	}
}

// WriteReport serializes a report as JSON with 2-space indentation
func WriteReport(report *Report, w io.Writer) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}

	return nil
}

// WriteReportToFile writes the report to a file or stdout based on options
func WriteReportToFile(report *Report, opts WriteOptions) (err error) {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if opts.FilePath == "" {
		return WriteReport(report, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteReport(report, f); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", opts.FilePath, err)
	}

	return nil
}
