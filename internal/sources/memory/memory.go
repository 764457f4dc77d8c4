package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"panel/internal/core"
	"panel/internal/records"
	"panel/internal/sources"
)

// Seed file names read by NewFromFiles.
const (
	ServicesFile      = "services.json"
	ExpensesFile      = "expenses.json"
	FixedExpensesFile = "fixed_expenses.json"
	CategoriesFile    = "categories.json"
)

var (
	_ sources.RecordSource = (*Store)(nil)
	_ sources.Pinger       = (*Store)(nil)
)

// Store keeps raw records in memory.
type Store struct {
	mu         sync.RWMutex
	dates      core.DateParser
	bundle     records.Bundle
	categories records.Collection
}

func New(dates core.DateParser, bundle records.Bundle, categories records.Collection) *Store {
	return &Store{dates: dates, bundle: bundle, categories: categories}
}

// NewFromFiles seeds a store from the JSON files in base. Missing files are
// treated as empty lists; each file may hold an array or an {"items": [...]}
// object.
func NewFromFiles(base string, dates core.DateParser) (*Store, error) {
	var b records.Bundle
	var cats records.Collection
	files := []struct {
		name string
		dst  *records.Collection
	}{
		{ServicesFile, &b.Services},
		{ExpensesFile, &b.Expenses},
		{FixedExpensesFile, &b.FixedExpenses},
		{CategoriesFile, &cats},
	}
	for _, f := range files {
		c, err := readCollection(filepath.Join(base, f.name))
		if err != nil {
			return nil, err
		}
		*f.dst = c
	}
	return New(dates, b, cats), nil
}

func readCollection(path string) (records.Collection, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return records.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var c records.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Add appends raw records to the bundle.
func (s *Store) Add(b records.Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundle.Services = append(s.bundle.Services, b.Services...)
	s.bundle.Expenses = append(s.bundle.Expenses, b.Expenses...)
	s.bundle.FixedExpenses = append(s.bundle.FixedExpenses, b.FixedExpenses...)
}

func (s *Store) FetchBundle(_ context.Context, rng core.DateRange) (records.Bundle, error) {
	if err := rng.Validate(); err != nil {
		return records.Bundle{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return records.Bundle{
		Services:      records.WithinRange(s.bundle.Services, rng, s.dates),
		Expenses:      records.WithinRange(s.bundle.Expenses, rng, s.dates),
		FixedExpenses: append(records.Collection{}, s.bundle.FixedExpenses...),
	}, nil
}

func (s *Store) FetchCategories(_ context.Context) (records.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(records.Collection{}, s.categories...), nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}
