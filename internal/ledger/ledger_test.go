package ledger

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kontses/NBG-Analytics/internal/domain"
	"github.com/Kontses/NBG-Analytics/internal/mappings"
	"github.com/Kontses/NBG-Analytics/internal/rules"
)

func newTestLedger(t *testing.T) (*Ledger, *mappings.Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := mappings.Open(filepath.Join(dir, "mappings.json"))
	if err != nil {
		t.Fatalf("mappings.Open() error = %v", err)
	}
	engine, err := rules.LoadEmbedded()
	if err != nil {
		t.Fatalf("rules.LoadEmbedded() error = %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	path := filepath.Join(dir, "ledger.json")
	l, err := Open(path, store, engine, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return l, store, path
}

func txn(id, ref string, date time.Time, amount float64, txnType domain.TxnType, description, counterparty string) domain.Transaction {
	return domain.Transaction{
		ID:               id,
		ReferenceNumber:  ref,
		Date:             date,
		Amount:           amount,
		Type:             txnType,
		Description:      description,
		CounterpartyName: counterparty,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddBatch_CategorizesAndSorts(t *testing.T) {
	l, _, _ := newTestLedger(t)

	batch := []domain.Transaction{
		txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL HELLAS", "LIDL"),
		txn("b", "R2", day(2024, 3, 1), -15, domain.TypeDebit, "PHARMACY ATHENS", ""),
		txn("c", "R3", day(2024, 2, 10), 1000, domain.TypeCredit, "ΑΓΝΩΣΤΗ ΚΙΝΗΣΗ", ""),
	}

	added, err := l.AddBatch(batch)
	if err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}

	got := l.Transactions()
	if got[0].ID != "b" || got[1].ID != "c" || got[2].ID != "a" {
		t.Errorf("order = %s,%s,%s; want b,c,a", got[0].ID, got[1].ID, got[2].ID)
	}

	if got[2].CustomCategory != domain.CategorySupermarket {
		t.Errorf("LIDL category = %q, want %q", got[2].CustomCategory, domain.CategorySupermarket)
	}
	if got[0].CustomCategory != domain.CategoryHealth {
		t.Errorf("pharmacy category = %q, want %q", got[0].CustomCategory, domain.CategoryHealth)
	}
	if got[1].CustomCategory != domain.CategoryOther {
		t.Errorf("unmatched category = %q, want %q", got[1].CustomCategory, domain.CategoryOther)
	}
}

func TestAddBatch_DropsDuplicateReferences(t *testing.T) {
	l, _, _ := newTestLedger(t)

	first := []domain.Transaction{
		txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL"),
		txn("b", "R2", day(2024, 1, 6), -30, domain.TypeDebit, "SHELL", "SHELL"),
	}
	if _, err := l.AddBatch(first); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	// Overlapping re-import plus an in-batch duplicate.
	second := []domain.Transaction{
		txn("c", "R2", day(2024, 1, 6), -30, domain.TypeDebit, "SHELL", "SHELL"),
		txn("d", "R3", day(2024, 1, 7), -5, domain.TypeDebit, "CAFE", ""),
		txn("e", "R3", day(2024, 1, 7), -5, domain.TypeDebit, "CAFE", ""),
	}
	added, err := l.AddBatch(second)
	if err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
}

func TestAddBatch_EmptyReferenceAlwaysKept(t *testing.T) {
	l, _, _ := newTestLedger(t)

	batch := []domain.Transaction{
		txn("a", "", day(2024, 1, 5), -20, domain.TypeDebit, "CASH", ""),
		txn("b", "", day(2024, 1, 6), -25, domain.TypeDebit, "CASH", ""),
	}
	added, err := l.AddBatch(batch)
	if err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
}

func TestAddBatch_MappingBeatsRulesAndPreexisting(t *testing.T) {
	l, store, _ := newTestLedger(t)

	if err := store.Set("LIDL", domain.CategoryEntertainment); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	preexisting := txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL")
	preexisting.CustomCategory = domain.CategoryBills

	if _, err := l.AddBatch([]domain.Transaction{preexisting}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	got := l.Transactions()[0]
	if got.CustomCategory != domain.CategoryEntertainment {
		t.Errorf("category = %q, want mapped %q", got.CustomCategory, domain.CategoryEntertainment)
	}
}

func TestAddBatch_PreexistingBeatsRules(t *testing.T) {
	l, _, _ := newTestLedger(t)

	preexisting := txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL")
	preexisting.CustomCategory = domain.CategoryBills

	if _, err := l.AddBatch([]domain.Transaction{preexisting}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if got := l.Transactions()[0].CustomCategory; got != domain.CategoryBills {
		t.Errorf("category = %q, want pre-existing %q", got, domain.CategoryBills)
	}
}

func TestUpdateCategory_RewritesAllCounterpartyTransactions(t *testing.T) {
	l, store, _ := newTestLedger(t)

	batch := []domain.Transaction{
		txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL"),
		txn("b", "R2", day(2024, 1, 6), -30, domain.TypeDebit, "LIDL", "LIDL"),
		txn("c", "R3", day(2024, 1, 7), -10, domain.TypeDebit, "SHELL", "SHELL"),
	}
	if _, err := l.AddBatch(batch); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	if err := l.UpdateCategory("a", domain.CategoryFoodAndDrink, "LIDL"); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}

	for _, got := range l.Transactions() {
		switch got.CounterpartyName {
		case "LIDL":
			if got.CustomCategory != domain.CategoryFoodAndDrink {
				t.Errorf("txn %s category = %q, want %q", got.ID, got.CustomCategory, domain.CategoryFoodAndDrink)
			}
		case "SHELL":
			if got.CustomCategory != domain.CategoryTransport {
				t.Errorf("txn %s category = %q, want untouched %q", got.ID, got.CustomCategory, domain.CategoryTransport)
			}
		}
	}

	mapped, ok := store.Get("LIDL")
	if !ok || mapped != domain.CategoryFoodAndDrink {
		t.Errorf("mapping = %q, %v; want %q, true", mapped, ok, domain.CategoryFoodAndDrink)
	}
}

func TestUpdateCategory_EmptyCounterpartyUpdatesSingleTransaction(t *testing.T) {
	l, store, _ := newTestLedger(t)

	batch := []domain.Transaction{
		txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "ATM", ""),
		txn("b", "R2", day(2024, 1, 6), -30, domain.TypeDebit, "ATM", ""),
	}
	if _, err := l.AddBatch(batch); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	if err := l.UpdateCategory("a", domain.CategoryOther, ""); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}

	for _, got := range l.Transactions() {
		want := domain.CategoryCash
		if got.ID == "a" {
			want = domain.CategoryOther
		}
		if got.CustomCategory != want {
			t.Errorf("txn %s category = %q, want %q", got.ID, got.CustomCategory, want)
		}
	}
	if store.Len() != 0 {
		t.Errorf("mapping count = %d, want 0", store.Len())
	}
}

func TestRefreshCategories(t *testing.T) {
	l, store, _ := newTestLedger(t)

	preexisting := txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "ΑΓΝΩΣΤΗ", "SOMECO")
	preexisting.CustomCategory = domain.CategoryBills

	if _, err := l.AddBatch([]domain.Transaction{preexisting}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	// Free-standing category with no mapping behind it is recomputed away.
	changed, err := l.RefreshCategories()
	if err != nil {
		t.Fatalf("RefreshCategories() error = %v", err)
	}
	if !changed {
		t.Error("RefreshCategories() = false, want true")
	}
	if got := l.Transactions()[0].CustomCategory; got != domain.CategoryOther {
		t.Errorf("category = %q, want %q", got, domain.CategoryOther)
	}

	// Second refresh is a no-op.
	changed, err = l.RefreshCategories()
	if err != nil {
		t.Fatalf("RefreshCategories() error = %v", err)
	}
	if changed {
		t.Error("RefreshCategories() = true, want false")
	}

	// A mapping wins over the recomputed value.
	if err := store.Set("SOMECO", domain.CategoryClothing); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	changed, err = l.RefreshCategories()
	if err != nil {
		t.Fatalf("RefreshCategories() error = %v", err)
	}
	if !changed {
		t.Error("RefreshCategories() after mapping = false, want true")
	}
	if got := l.Transactions()[0].CustomCategory; got != domain.CategoryClothing {
		t.Errorf("category = %q, want %q", got, domain.CategoryClothing)
	}
}

func TestClear_RetainsMappings(t *testing.T) {
	l, store, _ := newTestLedger(t)

	if _, err := l.AddBatch([]domain.Transaction{
		txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL"),
	}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if err := l.UpdateCategory("a", domain.CategoryFoodAndDrink, "LIDL"); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	if _, ok := store.Get("LIDL"); !ok {
		t.Error("mapping lost after Clear()")
	}

	// Same reference can be re-imported after a clear.
	added, err := l.AddBatch([]domain.Transaction{
		txn("b", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL"),
	})
	if err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
}

func TestOpen_RoundTrip(t *testing.T) {
	l, store, path := newTestLedger(t)

	batch := []domain.Transaction{
		txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL"),
		txn("b", "R2", day(2024, 2, 6), 1000, domain.TypeCredit, "SALARY", "EMPLOYER"),
	}
	if _, err := l.AddBatch(batch); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	engine, err := rules.LoadEmbedded()
	if err != nil {
		t.Fatalf("rules.LoadEmbedded() error = %v", err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reopened, err := Open(path, store, engine, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if reopened.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reopened.Len())
	}

	got := reopened.Transactions()
	if got[0].ID != "b" {
		t.Errorf("first transaction = %s, want b (date descending)", got[0].ID)
	}
	if !got[0].Date.Equal(day(2024, 2, 6)) {
		t.Errorf("date = %v, want %v", got[0].Date, day(2024, 2, 6))
	}

	// Duplicate detection survives the reload.
	added, err := reopened.AddBatch([]domain.Transaction{
		txn("c", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL"),
	})
	if err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if added != 0 {
		t.Errorf("added = %d, want 0", added)
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := mappings.Open(filepath.Join(dir, "mappings.json"))
	if err != nil {
		t.Fatalf("mappings.Open() error = %v", err)
	}
	engine, err := rules.LoadEmbedded()
	if err != nil {
		t.Fatalf("rules.LoadEmbedded() error = %v", err)
	}

	if _, err := Open(path, store, engine, nil); err == nil {
		t.Error("Open() expected error for corrupt ledger file")
	}
}

func TestTransactions_DefensiveCopy(t *testing.T) {
	l, _, _ := newTestLedger(t)

	if _, err := l.AddBatch([]domain.Transaction{
		txn("a", "R1", day(2024, 1, 5), -20, domain.TypeDebit, "LIDL", "LIDL"),
	}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}

	snapshot := l.Transactions()
	snapshot[0].CustomCategory = "tampered"

	if got := l.Transactions()[0].CustomCategory; got == "tampered" {
		t.Error("Transactions() exposed internal state")
	}
}
