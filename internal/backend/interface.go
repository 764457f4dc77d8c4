package backend

import (
	"context"

	"panel/internal/core"
	"panel/internal/sources"
)

// CleanupFunc releases resources held by a source.
type CleanupFunc func() error

// BackendResult contains the record source and an optional cleanup function.
type BackendResult struct {
	Source  sources.RecordSource
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates record sources based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for source creation.
type Config struct {
	Type BackendType

	// Every source reads record dates with this parser.
	Dates core.DateParser

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleServicesSheet      string
	GoogleExpensesSheet      string
	GoogleFixedExpensesSheet string
	GoogleCategoriesSheet    string
	GoogleCredentialsFile    string
	GoogleCredentialsJSON    string

	// Memory source specific
	DataDirectory string
}

// BackendType names a record source implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
