package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"panel/internal/core"
	"panel/internal/records"

	_ "modernc.org/sqlite"
)

// Kind identifies which record list a stored row belongs to.
type Kind string

const (
	KindService      Kind = "service"
	KindExpense      Kind = "expense"
	KindFixedExpense Kind = "fixed_expense"
	KindCategory     Kind = "category"
)

var ErrUnknownKind = errors.New("unknown record kind")

func (k Kind) IsValid() bool {
	switch k {
	case KindService, KindExpense, KindFixedExpense, KindCategory:
		return true
	}
	return false
}

// dated reports whether rows of this kind carry a record date.
func (k Kind) dated() bool {
	return k == KindService || k == KindExpense
}

// ImportStats counts the rows written by one import.
type ImportStats struct {
	BatchID       int64 `json:"batchId"`
	Services      int   `json:"services"`
	Expenses      int   `json:"expenses"`
	FixedExpenses int   `json:"fixedExpenses"`
	Categories    int   `json:"categories"`
}

func (s ImportStats) Total() int {
	return s.Services + s.Expenses + s.FixedExpenses + s.Categories
}

// SQLiteRepository stores raw records as JSON payloads, indexed by kind and
// calendar date.
type SQLiteRepository struct {
	db    *sql.DB
	dates core.DateParser
}

func NewSQLiteRepository(dbPath string, dates core.DateParser) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, dates: dates}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteRepository) insert(ctx context.Context, ex execer, kind Kind, raw records.Raw, batchID sql.NullInt64) (int64, error) {
	if !kind.IsValid() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return 0, fmt.Errorf("encode %s payload: %w", kind, err)
	}

	var recordDate sql.NullString
	if kind.dated() {
		if d, ok := records.RecordDate(raw, r.dates); ok {
			recordDate = sql.NullString{String: d.String(), Valid: true}
		}
	}

	res, err := ex.ExecContext(ctx,
		`INSERT INTO raw_records (kind, record_date, payload, batch_id) VALUES (?, ?, ?, ?)`,
		string(kind), recordDate, string(payload), batchID)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", kind, err)
	}
	return res.LastInsertId()
}

// Insert stores a single raw record.
func (r *SQLiteRepository) Insert(ctx context.Context, kind Kind, raw records.Raw) (int64, error) {
	return r.insert(ctx, r.db, kind, raw, sql.NullInt64{})
}

// Import writes a bundle and its categories in one transaction, tagged
// with a new import batch.
func (r *SQLiteRepository) Import(ctx context.Context, source string, b records.Bundle, categories records.Collection) (ImportStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO import_batches (source) VALUES (?)`, source)
	if err != nil {
		return ImportStats{}, fmt.Errorf("create import batch: %w", err)
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return ImportStats{}, fmt.Errorf("import batch id: %w", err)
	}
	batch := sql.NullInt64{Int64: batchID, Valid: true}

	stats := ImportStats{BatchID: batchID}
	groups := []struct {
		kind  Kind
		items records.Collection
		count *int
	}{
		{KindService, b.Services, &stats.Services},
		{KindExpense, b.Expenses, &stats.Expenses},
		{KindFixedExpense, b.FixedExpenses, &stats.FixedExpenses},
		{KindCategory, categories, &stats.Categories},
	}
	for _, g := range groups {
		for _, raw := range g.items {
			if _, err := r.insert(ctx, tx, g.kind, raw, batch); err != nil {
				return ImportStats{}, err
			}
			*g.count++
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE import_batches SET services = ?, expenses = ?, fixed = ?, categories = ? WHERE id = ?`,
		stats.Services, stats.Expenses, stats.FixedExpenses, stats.Categories, batchID); err != nil {
		return ImportStats{}, fmt.Errorf("update import batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Records imported to SQLite",
		"batch_id", batchID,
		"source", source,
		"services", stats.Services,
		"expenses", stats.Expenses,
		"fixed_expenses", stats.FixedExpenses,
		"categories", stats.Categories)

	return stats, nil
}

// List returns the records of kind in insertion order. When rng is set,
// only dated kinds whose date falls inside it are returned.
func (r *SQLiteRepository) List(ctx context.Context, kind Kind, rng *core.DateRange) (records.Collection, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	query := `SELECT payload FROM raw_records WHERE kind = ? ORDER BY id`
	args := []any{string(kind)}
	if rng != nil && kind.dated() {
		if err := rng.Validate(); err != nil {
			return nil, err
		}
		query = `SELECT payload FROM raw_records WHERE kind = ? AND record_date BETWEEN ? AND ? ORDER BY id`
		args = append(args, rng.From.String(), rng.To.String())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	out := records.Collection{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		var raw records.Raw
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			slog.WarnContext(ctx, "Skipping undecodable stored record", "kind", kind, "error", err)
			continue
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return out, nil
}

// Count returns the number of stored records of kind.
func (r *SQLiteRepository) Count(ctx context.Context, kind Kind) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_records WHERE kind = ?`, string(kind)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// FetchBundle returns the services and expenses dated inside rng and every
// fixed expense.
func (r *SQLiteRepository) FetchBundle(ctx context.Context, rng core.DateRange) (records.Bundle, error) {
	var b records.Bundle
	var err error
	if b.Services, err = r.List(ctx, KindService, &rng); err != nil {
		return records.Bundle{}, err
	}
	if b.Expenses, err = r.List(ctx, KindExpense, &rng); err != nil {
		return records.Bundle{}, err
	}
	if b.FixedExpenses, err = r.List(ctx, KindFixedExpense, nil); err != nil {
		return records.Bundle{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) FetchCategories(ctx context.Context) (records.Collection, error) {
	return r.List(ctx, KindCategory, nil)
}
