package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"panel/internal/core"
	"panel/internal/records"
)

func november() core.DateRange {
	return core.NewDateRange(core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 30), "")
}

func TestStoreFetchBundleFiltersByRange(t *testing.T) {
	s := New(core.DefaultDateParser(), records.Bundle{
		Services: records.Collection{
			{"id": 1, "date": "2025-11-02"},
			{"id": 2, "date": "2025-10-31"},
			{"id": 3},
		},
		Expenses: records.Collection{
			{"id": 4, "created_at": "30/11/2025"},
		},
		FixedExpenses: records.Collection{
			{"id": 5, "dueDay": 1},
		},
	}, nil)

	b, err := s.FetchBundle(context.Background(), november())
	if err != nil {
		t.Fatalf("FetchBundle() error = %v", err)
	}
	if len(b.Services) != 1 || b.Services[0]["id"] != 1 {
		t.Fatalf("unexpected services: %v", b.Services)
	}
	if len(b.Expenses) != 1 {
		t.Fatalf("unexpected expenses: %v", b.Expenses)
	}
	if len(b.FixedExpenses) != 1 {
		t.Fatalf("fixed expenses are not range bound: %v", b.FixedExpenses)
	}

	s.Add(records.Bundle{Services: records.Collection{{"id": 6, "date": "2025-11-20"}}})
	b, _ = s.FetchBundle(context.Background(), november())
	if len(b.Services) != 2 {
		t.Fatalf("expected added service to be visible, got %v", b.Services)
	}
}

func TestStoreFetchBundleRejectsInvalidRange(t *testing.T) {
	s := New(core.DefaultDateParser(), records.Bundle{}, nil)
	_, err := s.FetchBundle(context.Background(), core.DateRange{})
	if !errors.Is(err, core.ErrEmptyRange) {
		t.Fatalf("FetchBundle() error = %v, want ErrEmptyRange", err)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()

	// No files -> empty store
	s, err := NewFromFiles(dir, core.DefaultDateParser())
	if err != nil {
		t.Fatalf("NewFromFiles() error = %v", err)
	}
	cats, _ := s.FetchCategories(context.Background())
	if len(cats) != 0 {
		t.Fatalf("expected no categories, got %v", cats)
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite(ServicesFile, `[{"id":1,"price":100,"date":"2025-11-05"}]`)
	mustWrite(ExpensesFile, `{"items":[{"id":2,"amount":10,"date":"2025-11-06"}]}`)
	mustWrite(FixedExpensesFile, `[{"id":3,"amount":50,"due_day":10,"status":"active"}]`)
	mustWrite(CategoriesFile, `[{"id":1,"name":"Insumos"}]`)

	s, err = NewFromFiles(dir, core.DefaultDateParser())
	if err != nil {
		t.Fatalf("NewFromFiles() error = %v", err)
	}
	b, err := s.FetchBundle(context.Background(), november())
	if err != nil {
		t.Fatalf("FetchBundle() error = %v", err)
	}
	if len(b.Services) != 1 || len(b.Expenses) != 1 || len(b.FixedExpenses) != 1 {
		t.Fatalf("unexpected bundle: %+v", b)
	}
	cats, _ = s.FetchCategories(context.Background())
	if len(cats) != 1 || cats[0]["name"] != "Insumos" {
		t.Fatalf("unexpected categories: %v", cats)
	}

	mustWrite(ServicesFile, `[{"id":`)
	if _, err := NewFromFiles(dir, core.DefaultDateParser()); err == nil {
		t.Fatalf("expected error for malformed seed file")
	}
}
