package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"panel/internal/amqp"
	"panel/internal/cache"
	"panel/internal/core"
	"panel/internal/metrics"
	"panel/internal/records"
	"panel/internal/sources/memory"
)

type countingSource struct {
	*memory.Store
	bundleCalls   atomic.Int32
	categoryCalls atomic.Int32
	err           error
}

func (s *countingSource) FetchBundle(ctx context.Context, rng core.DateRange) (records.Bundle, error) {
	s.bundleCalls.Add(1)
	if s.err != nil {
		return records.Bundle{}, s.err
	}
	return s.Store.FetchBundle(ctx, rng)
}

func (s *countingSource) FetchCategories(ctx context.Context) (records.Collection, error) {
	s.categoryCalls.Add(1)
	return s.Store.FetchCategories(ctx)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.AlertsMessage
	err  error
}

func (p *recordingPublisher) PublishAlerts(ctx context.Context, msg *amqp.AlertsMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

func newTestSource() *countingSource {
	bundle := records.Bundle{
		Services: records.Collection{
			{"id": "s1", "price": 100000.0, "date": "2025-10-20"},
			{"id": "s2", "price": 50000.0, "date": "2025-11-05"},
		},
		Expenses: records.Collection{
			{"id": "e1", "amount": 80000.0, "date": "2025-11-06", "category_id": "1"},
		},
	}
	cats := records.Collection{{"id": "1", "name": "Insumos"}}
	return &countingSource{Store: memory.New(core.DefaultDateParser(), bundle, cats)}
}

func november() core.DateRange {
	return core.NewDateRange(core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 30), "Noviembre")
}

func TestMetricsService_Snapshot(t *testing.T) {
	src := newTestSource()
	pub := &recordingPublisher{}
	svc := NewMetricsService(src, nil, WithAlertPublisher(pub))

	res, err := svc.Snapshot(context.Background(), november(), false)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	snap := res.Snapshot

	if res.CacheHit {
		t.Error("first Snapshot() should not be a cache hit")
	}
	if snap.KPIs.Income != 50000 || snap.KPIs.Expenses != 80000 {
		t.Errorf("KPIs = %+v, want income 50000 expenses 80000", snap.KPIs)
	}
	if snap.KPIs.Deltas != nil {
		t.Error("Deltas should be nil without compare")
	}
	if len(snap.Series.ExpensesByCategory) != 1 || snap.Series.ExpensesByCategory[0].Name != "Insumos" {
		t.Errorf("ExpensesByCategory = %v", snap.Series.ExpensesByCategory)
	}
	if src.bundleCalls.Load() != 1 || src.categoryCalls.Load() != 1 {
		t.Errorf("fetch calls = %d bundles, %d categories", src.bundleCalls.Load(), src.categoryCalls.Load())
	}
	if len(snap.Alerts) != 2 {
		t.Fatalf("expected 2 danger alerts, got %v", snap.Alerts)
	}
	if pub.count() != 1 {
		t.Errorf("published %d messages, want 1", pub.count())
	}
}

func TestMetricsService_SnapshotCompare(t *testing.T) {
	src := newTestSource()
	svc := NewMetricsService(src, nil)

	res, err := svc.Snapshot(context.Background(), november(), true)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if src.bundleCalls.Load() != 2 {
		t.Errorf("bundle fetches = %d, want 2", src.bundleCalls.Load())
	}
	deltas := res.Snapshot.KPIs.Deltas
	if deltas == nil {
		t.Fatal("Deltas should be set with compare")
	}
	// previous period (Oct 2-31) has 100000 income
	if deltas.Income != -0.5 {
		t.Errorf("Deltas.Income = %v, want -0.5", deltas.Income)
	}
	// no previous expenses
	if deltas.Expenses != 0 {
		t.Errorf("Deltas.Expenses = %v, want 0", deltas.Expenses)
	}
}

func TestMetricsService_SnapshotUsesCache(t *testing.T) {
	src := newTestSource()
	pub := &recordingPublisher{}
	svc := NewMetricsService(src, nil,
		WithSnapshotCache(cache.NewSnapshotCache(time.Minute)),
		WithAlertPublisher(pub))

	first, err := svc.Snapshot(context.Background(), november(), false)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	second, err := svc.Snapshot(context.Background(), november(), false)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if !second.CacheHit {
		t.Error("second Snapshot() should hit the cache")
	}
	if first.Snapshot.KPIs != second.Snapshot.KPIs {
		t.Error("cached snapshot differs")
	}
	if src.bundleCalls.Load() != 1 {
		t.Errorf("bundle fetches = %d, want 1", src.bundleCalls.Load())
	}
	if pub.count() != 1 {
		t.Errorf("cache hits should not republish alerts, got %d messages", pub.count())
	}
}

func TestMetricsService_SnapshotErrors(t *testing.T) {
	sourceErr := errors.New("sheet unavailable")

	tests := []struct {
		name    string
		svc     *MetricsService
		rng     core.DateRange
		wantErr error
	}{
		{
			name:    "empty range",
			svc:     NewMetricsService(newTestSource(), nil),
			rng:     core.DateRange{},
			wantErr: core.ErrEmptyRange,
		},
		{
			name:    "reversed range",
			svc:     NewMetricsService(newTestSource(), nil),
			rng:     core.NewDateRange(core.NewDate(2025, 12, 1), core.NewDate(2025, 11, 1), ""),
			wantErr: core.ErrInvalidRange,
		},
		{
			name:    "range too long",
			svc:     NewMetricsService(newTestSource(), nil, WithMaxRangeDays(31)),
			rng:     core.NewDateRange(core.NewDate(2025, 1, 1), core.NewDate(2025, 12, 31), ""),
			wantErr: ErrRangeTooLong,
		},
		{
			name:    "source failure",
			svc:     NewMetricsService(&countingSource{Store: memory.New(core.DefaultDateParser(), records.Bundle{}, nil), err: sourceErr}, nil),
			rng:     november(),
			wantErr: sourceErr,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Snapshot(context.Background(), tt.rng, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Snapshot() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetricsService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewMetricsService(newTestSource(), nil, WithAlertPublisher(pub))

	if _, err := svc.Snapshot(context.Background(), november(), false); err != nil {
		t.Fatalf("Snapshot() should not fail when publishing fails: %v", err)
	}
	if pub.count() != 1 {
		t.Errorf("published %d messages, want 1", pub.count())
	}
}

func TestMetricsService_Compute(t *testing.T) {
	svc := NewMetricsService(nil, metrics.NewAssembler())

	req := ComputeRequest{
		Range: november(),
		Current: records.Bundle{
			Services: records.Collection{{"price": 1000.0, "date": "2025-11-02"}},
		},
	}
	snap, err := svc.Compute(req)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if snap.KPIs.Income != 1000 || snap.KPIs.Margin != 1 {
		t.Errorf("KPIs = %+v", snap.KPIs)
	}

	req.Previous = &metrics.PreviousContext{Range: core.DateRange{}}
	if _, err := svc.Compute(req); !errors.Is(err, core.ErrEmptyRange) {
		t.Errorf("Compute() with empty previous range error = %v", err)
	}

	capped := NewMetricsService(nil, metrics.NewAssembler(), WithMaxRangeDays(31))
	req.Previous = &metrics.PreviousContext{
		Range: core.NewDateRange(core.NewDate(1700, 1, 1), core.NewDate(2025, 10, 31), ""),
	}
	if _, err := capped.Compute(req); !errors.Is(err, ErrRangeTooLong) {
		t.Errorf("Compute() with long previous range error = %v, want ErrRangeTooLong", err)
	}

	req.Previous.Range = core.MonthRange(2025, 10, "")
	if _, err := capped.Compute(req); err != nil {
		t.Errorf("Compute() with October as previous period error = %v", err)
	}
}

func TestMetricsService_Ping(t *testing.T) {
	if err := NewMetricsService(newTestSource(), nil).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := NewMetricsService(nil, nil).Ping(context.Background()); err == nil {
		t.Error("Ping() without source should fail")
	}
}
