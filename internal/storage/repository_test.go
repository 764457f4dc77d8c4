package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"panel/internal/core"
	"panel/internal/records"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "panel.db"), core.DefaultDateParser())
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestImportAndFetchBundle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	bundle := records.Bundle{
		Services: records.Collection{
			{"id": "s1", "price": 100.0, "date": "2025-11-03"},
			{"id": "s2", "price": 200.0, "date": "19/11/2025"},
			{"id": "s3", "price": 300.0, "date": "2025-12-01"},
			{"id": "s4", "price": 400.0},
		},
		Expenses: records.Collection{
			{"id": "e1", "amount": 50.0, "created_at": "2025-11-30T20:00:00-03:00"},
		},
		FixedExpenses: records.Collection{
			{"id": "f1", "amount": 45000.0, "dueDay": 15.0, "status": "active"},
		},
	}
	categories := records.Collection{{"id": 1.0, "name": "Insumos"}}

	stats, err := repo.Import(ctx, "test", bundle, categories)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Services != 4 || stats.Expenses != 1 || stats.FixedExpenses != 1 || stats.Categories != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Total() != 7 || stats.BatchID == 0 {
		t.Fatalf("unexpected totals: %+v", stats)
	}

	rng := core.NewDateRange(core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 30), "")
	got, err := repo.FetchBundle(ctx, rng)
	if err != nil {
		t.Fatalf("FetchBundle() error = %v", err)
	}
	if len(got.Services) != 2 {
		t.Fatalf("expected 2 services in range, got %d", len(got.Services))
	}
	if got.Services[0]["id"] != "s1" || got.Services[1]["id"] != "s2" {
		t.Fatalf("unexpected services order: %v", got.Services)
	}
	if len(got.Expenses) != 1 {
		t.Fatalf("expected 1 expense in range, got %d", len(got.Expenses))
	}
	if len(got.FixedExpenses) != 1 || got.FixedExpenses[0]["dueDay"] != 15.0 {
		t.Fatalf("unexpected fixed expenses: %v", got.FixedExpenses)
	}

	cats, err := repo.FetchCategories(ctx)
	if err != nil {
		t.Fatalf("FetchCategories() error = %v", err)
	}
	if len(cats) != 1 || cats[0]["name"] != "Insumos" {
		t.Fatalf("unexpected categories: %v", cats)
	}
}

func TestInsertAndCount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Insert(ctx, KindExpense, records.Raw{"amount": 10.0, "date": "2025-01-02"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := repo.Insert(ctx, KindExpense, records.Raw{"amount": 20.0}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	n, err := repo.Count(ctx, KindExpense)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Count() = %d, want 2", n)
	}

	all, err := repo.List(ctx, KindExpense, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() without range = %d records, want 2", len(all))
	}
}

func TestUnknownKind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Insert(ctx, Kind("customer"), records.Raw{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("Insert() error = %v, want ErrUnknownKind", err)
	}
	if _, err := repo.List(ctx, Kind("customer"), nil); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("List() error = %v, want ErrUnknownKind", err)
	}
}

func TestListRejectsInvalidRange(t *testing.T) {
	repo := newTestRepo(t)
	bad := core.NewDateRange(core.NewDate(2025, 2, 1), core.NewDate(2025, 1, 1), "")
	if _, err := repo.List(context.Background(), KindService, &bad); !errors.Is(err, core.ErrInvalidRange) {
		t.Fatalf("List() error = %v, want ErrInvalidRange", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.db")
	repo, err := NewSQLiteRepository(path, core.DefaultDateParser())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}
}

func TestRecordAlertsDeduplicates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	rng := core.MonthRange(2025, 11, "Noviembre")
	alerts := []core.Alert{
		{Tone: core.ToneDanger, Title: "Periodo en pérdida", Description: "La utilidad del periodo es negativa."},
		{Tone: core.ToneWarning, Title: "Gastos fijos próximos", Description: "1 gasto fijo vence en los próximos 7 días."},
	}
	raised := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

	n, err := repo.RecordAlerts(ctx, rng, alerts, raised)
	if err != nil {
		t.Fatalf("RecordAlerts() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("first RecordAlerts() inserted %d, want 2", n)
	}

	n, err = repo.RecordAlerts(ctx, rng, alerts[:1], raised.Add(time.Hour))
	if err != nil {
		t.Fatalf("RecordAlerts() error = %v", err)
	}
	if n != 0 {
		t.Errorf("repeated alert inserted %d rows, want 0", n)
	}

	entries, err := repo.RecentAlerts(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAlerts() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Title != "Gastos fijos próximos" || entries[0].Tone != core.ToneWarning {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].Range != rng {
		t.Errorf("stored range = %v, want %v", entries[1].Range, rng)
	}
	if !entries[1].RaisedAt.Equal(raised) {
		t.Errorf("raisedAt = %v, want %v", entries[1].RaisedAt, raised)
	}
}

func TestRecordAlertsRejectsInvalidRange(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.RecordAlerts(context.Background(), core.DateRange{}, []core.Alert{{Title: "x", Tone: core.ToneDanger}}, time.Now())
	if !errors.Is(err, core.ErrEmptyRange) {
		t.Errorf("RecordAlerts() error = %v, want ErrEmptyRange", err)
	}
}
