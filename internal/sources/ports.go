package sources

import (
	"context"

	"panel/internal/core"
	"panel/internal/records"
)

// Ports for inbound record sources.
type (
	// BundleReader returns the services and expenses dated inside a range,
	// plus every fixed expense.
	BundleReader interface {
		FetchBundle(ctx context.Context, rng core.DateRange) (records.Bundle, error)
	}

	// CategoryReader returns the expense category catalog.
	CategoryReader interface {
		FetchCategories(ctx context.Context) (records.Collection, error)
	}

	RecordSource interface {
		BundleReader
		CategoryReader
	}

	// Pinger is implemented by sources that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
