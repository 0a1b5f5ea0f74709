package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/Kontses/NBG-Analytics/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func debit(date time.Time, amount float64, category, counterparty string) domain.Transaction {
	return domain.Transaction{
		Date:             date,
		Amount:           -amount,
		Type:             domain.TypeDebit,
		CustomCategory:   category,
		CounterpartyName: counterparty,
	}
}

func credit(date time.Time, amount float64, category string) domain.Transaction {
	return domain.Transaction{
		Date:           date,
		Amount:         amount,
		Type:           domain.TypeCredit,
		CustomCategory: category,
	}
}

func TestMonthly(t *testing.T) {
	txns := []domain.Transaction{
		credit(day(2024, 1, 5), 1000, domain.CategoryPayroll),
		debit(day(2024, 1, 20), 200, domain.CategorySupermarket, "LIDL"),
		debit(day(2024, 2, 2), 50, domain.CategoryTransport, "SHELL"),
	}

	got := Monthly(txns)
	want := []MonthlyStat{
		{Month: "2024-01", Income: 1000, Expenses: 200, Balance: 800},
		{Month: "2024-02", Income: 0, Expenses: 50, Balance: -50},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Monthly() = %+v, want %+v", got, want)
	}
}

func TestMonthly_Empty(t *testing.T) {
	if got := Monthly(nil); len(got) != 0 {
		t.Errorf("Monthly(nil) = %+v, want empty", got)
	}
}

func TestCategories_ExcludesPayrollAndCredits(t *testing.T) {
	txns := []domain.Transaction{
		debit(day(2024, 1, 5), 120, domain.CategorySupermarket, "LIDL"),
		debit(day(2024, 1, 6), 80, domain.CategorySupermarket, "SKLAVENITIS"),
		debit(day(2024, 1, 7), 60, domain.CategoryTransport, "SHELL"),
		debit(day(2024, 1, 8), 500, domain.CategoryPayroll, "EMPLOYER"),
		credit(day(2024, 1, 9), 900, domain.CategorySupermarket),
	}

	got := Categories(txns)
	want := []CategoryStat{
		{Category: domain.CategorySupermarket, Amount: 200},
		{Category: domain.CategoryTransport, Amount: 60},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %+v, want %+v", got, want)
	}
}

func TestCategories_LazyDefault(t *testing.T) {
	txns := []domain.Transaction{
		debit(day(2024, 1, 5), 10, "", ""),
	}
	got := Categories(txns)
	if len(got) != 1 || got[0].Category != domain.CategoryOther {
		t.Errorf("Categories() = %+v, want single %q bucket", got, domain.CategoryOther)
	}
}

func TestTotals(t *testing.T) {
	txns := []domain.Transaction{
		// Ledger order, date descending; balances as reported by the bank.
		func() domain.Transaction {
			t := credit(day(2024, 2, 6), 1000, domain.CategoryPayroll)
			t.AccountBalance = 1750.50
			return t
		}(),
		func() domain.Transaction {
			t := debit(day(2024, 1, 5), 200, domain.CategorySupermarket, "LIDL")
			t.AccountBalance = 750.50
			return t
		}(),
	}

	if got := TotalBalance(txns); got != 1750.50 {
		t.Errorf("TotalBalance() = %v, want 1750.50", got)
	}
	if got := TotalIncome(txns); got != 1000 {
		t.Errorf("TotalIncome() = %v, want 1000", got)
	}
	if got := TotalExpenses(txns); got != 200 {
		t.Errorf("TotalExpenses() = %v, want 200", got)
	}
	if got := TotalBalance(nil); got != 0 {
		t.Errorf("TotalBalance(nil) = %v, want 0", got)
	}
}

func TestBalanceTrend(t *testing.T) {
	mk := func(date time.Time, balance float64) domain.Transaction {
		txn := debit(date, 10, domain.CategoryOther, "X")
		txn.AccountBalance = balance
		return txn
	}

	// Out of order on purpose; the trend sorts ascending itself.
	txns := []domain.Transaction{
		mk(day(2024, 2, 1), 300),
		mk(day(2024, 1, 10), 500),
		mk(day(2024, 1, 10), 450),
		mk(day(2024, 1, 25), 400),
	}

	got := BalanceTrend(txns)
	want := []TrendPoint{
		{Date: "2024-01-10", Balance: 450},
		{Date: "2024-01-25", Balance: 400},
		{Date: "2024-02-01", Balance: 300, MonthStart: true, MonthLabel: "Φεβ"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BalanceTrend() = %+v, want %+v", got, want)
	}
}

func TestBalanceTrend_FirstDayUnmarked(t *testing.T) {
	mk := func(date time.Time, balance float64) domain.Transaction {
		txn := debit(date, 10, domain.CategoryOther, "X")
		txn.AccountBalance = balance
		return txn
	}

	txns := []domain.Transaction{
		mk(day(2024, 3, 10), 900),
		mk(day(2024, 4, 2), 850),
	}

	got := BalanceTrend(txns)
	want := []TrendPoint{
		{Date: "2024-03-10", Balance: 900},
		{Date: "2024-04-02", Balance: 850, MonthStart: true, MonthLabel: "Απρ"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BalanceTrend() = %+v, want %+v", got, want)
	}
}

func TestBalanceTrend_Empty(t *testing.T) {
	if got := BalanceTrend(nil); len(got) != 0 {
		t.Errorf("BalanceTrend(nil) = %+v, want empty", got)
	}
}

func TestMonthLabel(t *testing.T) {
	if got := MonthLabel(time.May); got != "Μαϊ" {
		t.Errorf("MonthLabel(May) = %q, want Μαϊ", got)
	}
	if got := MonthLabel(time.December); got != "Δεκ" {
		t.Errorf("MonthLabel(December) = %q, want Δεκ", got)
	}
}

func TestMerchants(t *testing.T) {
	txns := []domain.Transaction{
		debit(day(2024, 1, 5), 20, domain.CategorySupermarket, "Lidl "),
		debit(day(2024, 1, 12), 30, domain.CategorySupermarket, "LIDL"),
		debit(day(2024, 2, 3), 25, domain.CategorySupermarket, "lidl"),
		debit(day(2024, 1, 6), 40, domain.CategoryTransport, "SHELL"),
		debit(day(2024, 1, 7), 45, domain.CategoryTransport, "SHELL"),
		// Seen once; below the recurrence threshold.
		debit(day(2024, 1, 8), 99, domain.CategoryOther, "ONE-OFF"),
		// Payroll debits never count.
		debit(day(2024, 1, 9), 500, domain.CategoryPayroll, "EMPLOYER"),
		debit(day(2024, 1, 10), 500, domain.CategoryPayroll, "EMPLOYER"),
		// Credits never count.
		credit(day(2024, 1, 11), 80, domain.CategorySupermarket),
		// Blank counterparty falls back to the description.
		{Date: day(2024, 1, 13), Amount: -5, Type: domain.TypeDebit, CustomCategory: domain.CategoryFoodAndDrink, Description: "cafe corner"},
		{Date: day(2024, 1, 14), Amount: -6, Type: domain.TypeDebit, CustomCategory: domain.CategoryFoodAndDrink, Description: "CAFE CORNER "},
	}

	got := Merchants(txns, "", SortByAmount)
	if len(got) != 3 {
		t.Fatalf("Merchants() count = %d, want 3: %+v", len(got), got)
	}

	if got[0].Name != "SHELL" || got[0].TotalAmount != 85 || got[0].Count != 2 {
		t.Errorf("top merchant = %+v, want SHELL 85/2", got[0])
	}
	if got[1].Name != "LIDL" || got[1].TotalAmount != 75 || got[1].Count != 3 {
		t.Errorf("second merchant = %+v, want LIDL 75/3", got[1])
	}
	if got[2].Name != "CAFE CORNER" || got[2].TotalAmount != 11 {
		t.Errorf("third merchant = %+v, want CAFE CORNER 11", got[2])
	}

	if got[1].AverageAmount != 25 {
		t.Errorf("LIDL average = %v, want 25", got[1].AverageAmount)
	}
	wantMonthly := map[string]MerchantMonth{
		"2024-01": {Count: 2, Amount: 50},
		"2024-02": {Count: 1, Amount: 25},
	}
	if !reflect.DeepEqual(got[1].Monthly, wantMonthly) {
		t.Errorf("LIDL monthly = %+v, want %+v", got[1].Monthly, wantMonthly)
	}

	byCount := Merchants(txns, "", SortByCount)
	if byCount[0].Name != "LIDL" {
		t.Errorf("count-sorted top = %s, want LIDL", byCount[0].Name)
	}

	supermarketsOnly := Merchants(txns, domain.CategorySupermarket, SortByAmount)
	if len(supermarketsOnly) != 1 || supermarketsOnly[0].Name != "LIDL" {
		t.Errorf("filtered = %+v, want only LIDL", supermarketsOnly)
	}
}

func TestSummarize(t *testing.T) {
	merchants := []MerchantStat{
		{Name: "LIDL", Count: 6, TotalAmount: 300},
		{Name: "SHELL", Count: 2, TotalAmount: 85},
	}
	got := Summarize(merchants)
	if got.TotalRepeatedSpend != 385 {
		t.Errorf("TotalRepeatedSpend = %v, want 385", got.TotalRepeatedSpend)
	}
	if got.FrequentMerchants != 1 {
		t.Errorf("FrequentMerchants = %d, want 1", got.FrequentMerchants)
	}
}

func TestFilter(t *testing.T) {
	txns := []domain.Transaction{
		debit(day(2024, 1, 5), 10, domain.CategorySupermarket, "LIDL"),
		debit(day(2024, 1, 31), 20, domain.CategoryTransport, "SHELL"),
		debit(day(2024, 2, 1), 30, domain.CategorySupermarket, "LIDL"),
	}

	from := day(2024, 1, 5)
	to := day(2024, 1, 31)

	// Range bounds are inclusive; the end extends to end of day.
	got := Filter{From: &from, To: &to}.Apply(txns)
	if len(got) != 2 {
		t.Fatalf("filtered count = %d, want 2", len(got))
	}

	got = Filter{Category: domain.CategorySupermarket}.Apply(txns)
	if len(got) != 2 {
		t.Fatalf("category-filtered count = %d, want 2", len(got))
	}

	got = Filter{From: &from, To: &to, Category: domain.CategoryTransport}.Apply(txns)
	if len(got) != 1 || got[0].CounterpartyName != "SHELL" {
		t.Fatalf("combined filter = %+v, want only SHELL", got)
	}

	// Empty filter copies the snapshot.
	got = Filter{}.Apply(txns)
	if len(got) != 3 {
		t.Fatalf("empty filter count = %d, want 3", len(got))
	}
	got[0].CounterpartyName = "tampered"
	if txns[0].CounterpartyName == "tampered" {
		t.Error("Apply() exposed the input slice")
	}
}

func TestFilter_EndOfDayTransactions(t *testing.T) {
	late := domain.Transaction{
		Date:   time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC),
		Amount: -10,
		Type:   domain.TypeDebit,
	}
	to := day(2024, 1, 31)

	got := Filter{To: &to}.Apply([]domain.Transaction{late})
	if len(got) != 1 {
		t.Errorf("transaction later in the end day was excluded")
	}
}
