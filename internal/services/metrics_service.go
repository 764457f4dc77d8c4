package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"panel/internal/amqp"
	"panel/internal/cache"
	"panel/internal/core"
	"panel/internal/metrics"
	"panel/internal/records"
	"panel/internal/sources"
)

const DefaultFetchTimeout = 10 * time.Second

var ErrRangeTooLong = errors.New("date range too long")

// AlertPublisher fans snapshot alerts out to other processes.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, msg *amqp.AlertsMessage) error
}

// ComputeRequest is a self-contained snapshot request: the caller supplies
// every record, nothing is fetched.
type ComputeRequest struct {
	Range      core.DateRange           `json:"range"`
	Current    records.Bundle           `json:"current"`
	Previous   *metrics.PreviousContext `json:"previous,omitempty"`
	Categories records.Collection       `json:"categories"`
}

// SnapshotResult is a computed snapshot plus how it was obtained.
type SnapshotResult struct {
	Snapshot core.Snapshot
	CacheHit bool
}

// MetricsService fetches records from a source and assembles snapshots.
type MetricsService struct {
	source       sources.RecordSource
	assembler    *metrics.Assembler
	cache        *cache.SnapshotCache
	publisher    AlertPublisher
	fetchTimeout time.Duration
	maxRangeDays int
}

type MetricsOption func(*MetricsService)

func WithSnapshotCache(c *cache.SnapshotCache) MetricsOption {
	return func(s *MetricsService) { s.cache = c }
}

func WithAlertPublisher(p AlertPublisher) MetricsOption {
	return func(s *MetricsService) { s.publisher = p }
}

func WithFetchTimeout(d time.Duration) MetricsOption {
	return func(s *MetricsService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithMaxRangeDays rejects ranges longer than n days. Zero disables the
// check.
func WithMaxRangeDays(n int) MetricsOption {
	return func(s *MetricsService) { s.maxRangeDays = n }
}

func NewMetricsService(source sources.RecordSource, assembler *metrics.Assembler, opts ...MetricsOption) *MetricsService {
	if assembler == nil {
		assembler = metrics.NewAssembler()
	}
	s := &MetricsService{
		source:       source,
		assembler:    assembler,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MetricsService) checkRange(rng core.DateRange) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	if s.maxRangeDays > 0 && rng.Days() > s.maxRangeDays {
		return fmt.Errorf("%w: %d days, max %d", ErrRangeTooLong, rng.Days(), s.maxRangeDays)
	}
	return nil
}

// Snapshot returns the snapshot for rng built from the configured source.
// With compare set, the previous period of equal length is fetched as well
// and deltas are filled in.
func (s *MetricsService) Snapshot(ctx context.Context, rng core.DateRange, compare bool) (SnapshotResult, error) {
	if err := s.checkRange(rng); err != nil {
		return SnapshotResult{}, err
	}

	if s.cache != nil {
		if snap, ok := s.cache.Lookup(rng, compare); ok {
			return SnapshotResult{Snapshot: snap, CacheHit: true}, nil
		}
	}

	if s.source == nil {
		return SnapshotResult{}, fmt.Errorf("no record source configured")
	}

	current, prev, categories, err := s.fetch(ctx, rng, compare)
	if err != nil {
		return SnapshotResult{}, err
	}

	snap := s.assembler.Assemble(rng, current, prev, categories)

	if s.cache != nil {
		s.cache.Store(rng, compare, snap)
	}
	s.publishAlerts(ctx, snap)

	return SnapshotResult{Snapshot: snap}, nil
}

func (s *MetricsService) fetch(ctx context.Context, rng core.DateRange, compare bool) (records.Bundle, *metrics.PreviousContext, records.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	var (
		current    records.Bundle
		prev       *metrics.PreviousContext
		categories records.Collection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.source.FetchBundle(gctx, rng)
		if err != nil {
			return fmt.Errorf("fetch current period: %w", err)
		}
		current = b
		return nil
	})
	if compare {
		prevRange := core.PreviousRange(rng)
		g.Go(func() error {
			b, err := s.source.FetchBundle(gctx, prevRange)
			if err != nil {
				return fmt.Errorf("fetch previous period: %w", err)
			}
			prev = &metrics.PreviousContext{Range: prevRange, Current: b}
			return nil
		})
	}
	g.Go(func() error {
		c, err := s.source.FetchCategories(gctx)
		if err != nil {
			return fmt.Errorf("fetch categories: %w", err)
		}
		categories = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return records.Bundle{}, nil, nil, err
	}

	slog.DebugContext(ctx, "Fetched records",
		"from", rng.From.String(),
		"to", rng.To.String(),
		"records", current.Len(),
		"categories", len(categories),
		"compare", compare)

	return current, prev, categories, nil
}

// Compute assembles a snapshot from the records in req.
func (s *MetricsService) Compute(req ComputeRequest) (core.Snapshot, error) {
	if err := s.checkRange(req.Range); err != nil {
		return core.Snapshot{}, err
	}
	if req.Previous != nil {
		if err := s.checkRange(req.Previous.Range); err != nil {
			return core.Snapshot{}, fmt.Errorf("previous period: %w", err)
		}
	}
	return s.assembler.Assemble(req.Range, req.Current, req.Previous, req.Categories), nil
}

func (s *MetricsService) publishAlerts(ctx context.Context, snap core.Snapshot) {
	if len(snap.Alerts) == 0 {
		return
	}
	if s.publisher == nil {
		slog.DebugContext(ctx, "Alert publisher not available, skipping alerts message")
		return
	}
	if err := s.publisher.PublishAlerts(ctx, amqp.NewAlertsMessage(snap)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish alerts message",
			"from", snap.Range.From.String(),
			"to", snap.Range.To.String(),
			"error", err)
	}
}

// Ping reports whether the record source is reachable. Sources without a
// health check are always ready.
func (s *MetricsService) Ping(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("no record source configured")
	}
	if p, ok := s.source.(sources.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// DateParser exposes the assembler's date parser so request parsing reads
// dates the same way records are read.
func (s *MetricsService) DateParser() core.DateParser {
	return s.assembler.DateParser()
}
