package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"panel/internal/core"
)

type stubProvider struct {
	mu     sync.Mutex
	ranges []core.DateRange
	alerts int
	err    error
}

func (p *stubProvider) Snapshot(ctx context.Context, rng core.DateRange, compare bool) (SnapshotResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ranges = append(p.ranges, rng)
	if p.err != nil {
		return SnapshotResult{}, p.err
	}
	return SnapshotResult{Snapshot: core.Snapshot{Range: rng, Alerts: make([]core.Alert, p.alerts)}}, nil
}

func (p *stubProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ranges)
}

func TestDefaultAlertSchedulerConfig(t *testing.T) {
	config := DefaultAlertSchedulerConfig()

	if config.PollInterval != 15*time.Minute {
		t.Errorf("expected PollInterval 15m, got %v", config.PollInterval)
	}
	if config.Compare {
		t.Error("expected Compare false by default")
	}
	if config.Location != time.UTC {
		t.Errorf("expected UTC location, got %v", config.Location)
	}
}

func TestAlertScheduler_MonthToDate(t *testing.T) {
	s := NewAlertScheduler(&stubProvider{}, AlertSchedulerConfig{PollInterval: time.Minute})
	s.now = func() time.Time { return time.Date(2025, 11, 19, 23, 30, 0, 0, time.UTC) }

	rng := s.MonthToDate()
	want := core.NewDateRange(core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 19), "")
	if rng != want {
		t.Errorf("MonthToDate() = %v, want %v", rng, want)
	}

	santiago := time.FixedZone("CLT", -3*60*60)
	s = NewAlertScheduler(&stubProvider{}, AlertSchedulerConfig{PollInterval: time.Minute, Location: santiago})
	s.now = func() time.Time { return time.Date(2025, 12, 1, 1, 0, 0, 0, time.UTC) }
	if got := s.MonthToDate(); !got.To.Equal(core.NewDate(2025, 11, 30)) {
		t.Errorf("MonthToDate() in CLT ends %v, want 2025-11-30", got.To)
	}
}

func TestAlertScheduler_Evaluate(t *testing.T) {
	provider := &stubProvider{alerts: 2}
	s := NewAlertScheduler(provider, DefaultAlertSchedulerConfig())

	run := s.Evaluate(context.Background())
	if run.Err != nil || run.Alerts != 2 {
		t.Errorf("Evaluate() = %+v", run)
	}
	if s.LastRun().Alerts != 2 {
		t.Errorf("LastRun() = %+v", s.LastRun())
	}

	provider.err = errors.New("source down")
	run = s.Evaluate(context.Background())
	if !errors.Is(run.Err, provider.err) {
		t.Errorf("Evaluate() error = %v, want %v", run.Err, provider.err)
	}
}

func TestAlertScheduler_StartStop(t *testing.T) {
	provider := &stubProvider{}
	s := NewAlertScheduler(provider, AlertSchedulerConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting already running scheduler")
	}

	deadline := time.Now().Add(time.Second)
	for provider.calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if provider.calls() < 2 {
		t.Errorf("expected at least 2 evaluations, got %d", provider.calls())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}

type blockingProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingProvider) Snapshot(ctx context.Context, rng core.DateRange, compare bool) (SnapshotResult, error) {
	p.once.Do(func() { close(p.started) })
	<-p.release
	return SnapshotResult{Snapshot: core.Snapshot{Range: rng}}, nil
}

func TestAlertScheduler_StopAfterTimeout(t *testing.T) {
	provider := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	s := NewAlertScheduler(provider, AlertSchedulerConfig{PollInterval: time.Hour})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-provider.started

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		err := s.Stop(ctx)
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Stop() attempt %d error = %v, want deadline exceeded", i+1, err)
		}
	}
	if !s.IsRunning() {
		t.Error("scheduler should still be running while an evaluation is stuck")
	}

	close(provider.release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() after release error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}

	// the loop is gone, so a fresh start works
	provider2 := &stubProvider{}
	s.provider = provider2
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() after restart error = %v", err)
	}
}

func TestAlertScheduler_StopNotRunning(t *testing.T) {
	s := NewAlertScheduler(&stubProvider{}, DefaultAlertSchedulerConfig())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestAlertScheduler_RejectsZeroInterval(t *testing.T) {
	s := NewAlertScheduler(&stubProvider{}, AlertSchedulerConfig{})
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for zero poll interval")
	}
}
