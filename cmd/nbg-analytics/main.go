package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kontses/NBG-Analytics/internal/config"
	"github.com/Kontses/NBG-Analytics/internal/importer"
	"github.com/Kontses/NBG-Analytics/internal/ledger"
	"github.com/Kontses/NBG-Analytics/internal/logging"
	"github.com/Kontses/NBG-Analytics/internal/mappings"
	"github.com/Kontses/NBG-Analytics/internal/output"
	"github.com/Kontses/NBG-Analytics/internal/registry"
	"github.com/Kontses/NBG-Analytics/internal/rules"
	"github.com/Kontses/NBG-Analytics/internal/scanner"
	"github.com/Kontses/NBG-Analytics/internal/stats"
	"github.com/Kontses/NBG-Analytics/internal/ui"
	"github.com/Kontses/NBG-Analytics/internal/validate"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")

	// Core CLI flags
	inputPath = flag.String("input", "", "Export workbook or directory to import")
	dryRun    = flag.Bool("dry-run", false, "Show what would be imported without writing")
	verbose   = flag.Bool("verbose", false, "Show detailed logs")
	dataDir   = flag.String("data", "", "Data directory for the ledger and mappings (default: $NBG_DATA_DIR or ~/.nbg-analytics)")
	rulesFile = flag.String("rules", "", "Category rules file (default: embedded rules)")

	// Report flags
	reportFlag     = flag.Bool("report", false, "Write the aggregate report")
	reportFile     = flag.String("report-file", "", "Report output file (default: stdout)")
	fromFlag       = flag.String("from", "", "Report range start, YYYY-MM-DD (inclusive)")
	toFlag         = flag.String("to", "", "Report range end, YYYY-MM-DD (inclusive)")
	filterCategory = flag.String("filter-category", "", "Restrict report views to one category")
	sortFlag       = flag.String("sort", "amount", "Merchant sort order: amount or count")

	// Mutation flags
	setCategory  = flag.String("set-category", "", "Assign this category (requires -txn and/or -counterparty)")
	txnID        = flag.String("txn", "", "Transaction id for -set-category")
	counterparty = flag.String("counterparty", "", "Counterparty name for -set-category")
	refreshFlag  = flag.Bool("refresh", false, "Re-resolve every transaction's category")
	clearAll     = flag.Bool("clear-all", false, "Empty the ledger (mappings are kept)")
	yesFlag      = flag.Bool("yes", false, "Skip the -clear-all confirmation")
	validateFlag = flag.Bool("validate", false, "Check the ledger for integrity problems")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `nbg-analytics - NBG export ingestion and spending analytics

Usage:
  nbg-analytics [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Import every export under a directory
  nbg-analytics -input ~/exports

  # Import one workbook with verbose logs
  nbg-analytics -input statement.xlsx -verbose

  # Aggregate report for one month, merchants by visit count
  nbg-analytics -report -from 2024-03-01 -to 2024-03-31 -sort count

  # Re-categorize every LIDL transaction
  nbg-analytics -set-category "Σούπερ Μάρκετ" -counterparty "LIDL"

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("nbg-analytics version %s\n", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.ProcessEnvironmentVariables()
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *rulesFile != "" {
		cfg.RulesFile = *rulesFile
	}
	if *inputPath == "" && os.Getenv("NBG_INPUT_DIR") != "" {
		*inputPath = cfg.InputDir
	}

	logger := logging.SetupLogging(*verbose)

	engine, err := loadEngine(cfg.RulesFile)
	if err != nil {
		return err
	}

	store, err := mappings.Open(cfg.MappingsPath())
	if err != nil {
		return fmt.Errorf("failed to open mapping store: %w", err)
	}

	lgr, err := ledger.Open(cfg.LedgerPath(), store, engine, logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}

	switch {
	case *clearAll:
		return runClear(lgr)
	case *setCategory != "":
		return runSetCategory(lgr)
	case *refreshFlag:
		return runRefresh(lgr)
	case *validateFlag:
		return runValidate(lgr)
	case *reportFlag:
		return runReport(lgr)
	case *inputPath != "":
		return runImport(ctx, lgr, engine, logger)
	default:
		fmt.Fprintf(os.Stderr, "Error: nothing to do\n\n")
		flag.Usage()
		os.Exit(1)
		return nil
	}
}

func loadEngine(path string) (*rules.Engine, error) {
	if path != "" {
		engine, err := rules.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules file: %w", err)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d custom rules from %s\n", len(engine.GetRules()), path)
		}
		return engine, nil
	}

	engine, err := rules.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules: %w", err)
	}
	return engine, nil
}

func runImport(ctx context.Context, lgr *ledger.Ledger, engine *rules.Engine, logger *logrus.Logger) error {
	if !*verbose {
		ui.Header("Importing Bank Exports")
		ui.Step(1, 2, "Scanning for workbooks")
	} else {
		fmt.Fprintf(os.Stderr, "Scanning %s\n", *inputPath)
	}

	if *dryRun {
		info, err := os.Stat(*inputPath)
		if err != nil {
			return fmt.Errorf("failed to stat input: %w", err)
		}
		count := 1
		if info.IsDir() {
			found, err := scanner.New(*inputPath).Scan()
			if err != nil {
				return err
			}
			count = len(found)
			for _, f := range found {
				ui.BlueText(fmt.Sprintf("  - %s", f.Path))
			}
		}
		fmt.Printf("Dry run complete. Would process %d files.\n", count)
		return nil
	}

	imp, err := importer.New(registry.New(), engine, lgr, logger)
	if err != nil {
		return err
	}

	if !*verbose {
		ui.Step(2, 2, "Parsing and merging transactions")
	}

	runStats, failures, err := imp.Run(ctx, *inputPath)
	if err != nil {
		return err
	}

	for _, f := range failures {
		ui.Warning(fmt.Sprintf("Skipped %s: %v", filepath.Base(f.Path), f.Err))
	}
	if runStats.Files == 0 {
		return fmt.Errorf("no importable workbooks found in %s\n\nPlease check:\n  - The path is correct\n  - Files have a supported extension (.xlsx)\n  - Legacy .xls exports need re-exporting as .xlsx", *inputPath)
	}

	ui.Success(fmt.Sprintf("%d new transactions imported (%d duplicates skipped, %d files)",
		runStats.Added, runStats.Duplicates, runStats.Files))

	if total := runStats.RuleHits + runStats.RuleMisses; total > 0 {
		coverage := float64(runStats.RuleHits) / float64(total) * 100
		ui.Info(fmt.Sprintf("Rule coverage: %.1f%% (%d/%d matched)", coverage, runStats.RuleHits, total))
		if coverage < 80.0 {
			ui.Warning(fmt.Sprintf("Rule coverage below 80%% target (%d unmatched)", runStats.RuleMisses))
			for _, example := range runStats.Unmatched {
				ui.YellowText(fmt.Sprintf("    - %s", example))
			}
		}
	}

	return nil
}

func runReport(lgr *ledger.Ledger) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	sortBy := stats.SortByAmount
	switch *sortFlag {
	case "amount":
	case "count":
		sortBy = stats.SortByCount
	default:
		return fmt.Errorf("invalid -sort value %q (must be amount or count)", *sortFlag)
	}

	report := output.BuildReport(lgr.Transactions(), filter, sortBy)
	opts := output.WriteOptions{FilePath: *reportFile, SortBy: sortBy, Filter: filter}
	if err := output.WriteReportToFile(report, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if *reportFile != "" {
		ui.Success(fmt.Sprintf("Report written to %s", *reportFile))
	}
	return nil
}

func buildFilter() (stats.Filter, error) {
	var filter stats.Filter
	filter.Category = *filterCategory

	if *fromFlag != "" {
		from, err := time.Parse("2006-01-02", *fromFlag)
		if err != nil {
			return filter, fmt.Errorf("invalid -from date %q (expected YYYY-MM-DD): %w", *fromFlag, err)
		}
		filter.From = &from
	}
	if *toFlag != "" {
		to, err := time.Parse("2006-01-02", *toFlag)
		if err != nil {
			return filter, fmt.Errorf("invalid -to date %q (expected YYYY-MM-DD): %w", *toFlag, err)
		}
		filter.To = &to
	}
	return filter, nil
}

func runSetCategory(lgr *ledger.Ledger) error {
	if *txnID == "" && *counterparty == "" {
		return fmt.Errorf("-set-category needs -txn and/or -counterparty")
	}

	if err := lgr.UpdateCategory(*txnID, *setCategory, *counterparty); err != nil {
		return err
	}

	if *counterparty != "" {
		ui.Success(fmt.Sprintf("All %q transactions set to %q", *counterparty, *setCategory))
	} else {
		ui.Success(fmt.Sprintf("Transaction %s set to %q", *txnID, *setCategory))
	}
	return nil
}

func runRefresh(lgr *ledger.Ledger) error {
	changed, err := lgr.RefreshCategories()
	if err != nil {
		return err
	}
	if changed {
		ui.Success("Categories refreshed")
	} else {
		ui.Info("Categories already up to date")
	}
	return nil
}

func runClear(lgr *ledger.Ledger) error {
	if !*yesFlag {
		fmt.Printf("This deletes all %d transactions (mappings are kept). Continue? [y/N] ", lgr.Len())
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			ui.Info("Aborted")
			return nil
		}
	}

	if err := lgr.Clear(); err != nil {
		return err
	}
	ui.Success("Ledger cleared")
	return nil
}

func runValidate(lgr *ledger.Ledger) error {
	result := validate.ValidateLedger(lgr.Transactions())

	for _, w := range result.Warnings {
		ui.Warning(fmt.Sprintf("%s [%s]: %s", w.ID, w.Field, w.Message))
	}
	if !result.OK() {
		for _, e := range result.Errors {
			ui.Error(fmt.Sprintf("%s [%s]: %s", e.ID, e.Field, e.Message))
		}
		return fmt.Errorf("validation failed with %d errors", len(result.Errors))
	}

	ui.Success(fmt.Sprintf("Ledger valid (%d transactions, %d warnings)", lgr.Len(), len(result.Warnings)))
	return nil
}
