package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"panel/internal/core"
)

// AlertSchedulerConfig holds configuration for the alert scheduler
type AlertSchedulerConfig struct {
	// PollInterval is how often the month-to-date snapshot is evaluated (default: 15m)
	PollInterval time.Duration

	// Compare also fetches the previous period (default: false)
	Compare bool

	// Location decides what "today" is (default: UTC)
	Location *time.Location
}

func DefaultAlertSchedulerConfig() AlertSchedulerConfig {
	return AlertSchedulerConfig{
		PollInterval: 15 * time.Minute,
		Location:     time.UTC,
	}
}

// SnapshotProvider computes snapshots, publishing their alerts as a side
// effect.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, rng core.DateRange, compare bool) (SnapshotResult, error)
}

// AlertRun records the outcome of one evaluation.
type AlertRun struct {
	At     time.Time
	Range  core.DateRange
	Alerts int
	Err    error
}

// AlertScheduler periodically evaluates the month-to-date snapshot so
// alerts reach consumers even when nobody opens the panel.
type AlertScheduler struct {
	provider SnapshotProvider
	config   AlertSchedulerConfig
	now      func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	last    AlertRun
}

func NewAlertScheduler(provider SnapshotProvider, config AlertSchedulerConfig) *AlertScheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &AlertScheduler{
		provider: provider,
		config:   config,
		now:      time.Now,
	}
}

// Start begins the evaluation loop. Returns an error if already running.
func (s *AlertScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("alert scheduler is already running")
	}
	if s.config.PollInterval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("alert scheduler poll interval must be positive")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Alert scheduler started",
		"poll_interval", s.config.PollInterval,
		"compare", s.config.Compare)

	return nil
}

// Stop gracefully stops the scheduler and waits for completion. Calling it
// again after a timeout keeps waiting for the same loop.
func (s *AlertScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Alert scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Alert scheduler stop timed out")
		return ctx.Err()
	}

	return nil
}

func (s *AlertScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns the most recent evaluation, zero before the first one.
func (s *AlertScheduler) LastRun() AlertRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *AlertScheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.stopCh = nil
		s.mu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Evaluate immediately on startup
	s.Evaluate(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evaluate(ctx)
		}
	}
}

// MonthToDate is the range from the first of today's month to today.
func (s *AlertScheduler) MonthToDate() core.DateRange {
	today := core.DateOf(s.now().In(s.config.Location))
	return core.NewDateRange(core.NewDate(today.Year(), today.Month(), 1), today, "")
}

// Evaluate computes the month-to-date snapshot once.
func (s *AlertScheduler) Evaluate(ctx context.Context) AlertRun {
	rng := s.MonthToDate()
	run := AlertRun{At: s.now(), Range: rng}

	res, err := s.provider.Snapshot(ctx, rng, s.config.Compare)
	if err != nil {
		run.Err = err
		slog.ErrorContext(ctx, "Alert evaluation failed",
			"from", rng.From.String(),
			"to", rng.To.String(),
			"error", err)
	} else {
		run.Alerts = len(res.Snapshot.Alerts)
		slog.InfoContext(ctx, "Alert evaluation completed",
			"from", rng.From.String(),
			"to", rng.To.String(),
			"alerts", run.Alerts,
			"cache_hit", res.CacheHit)
	}

	s.mu.Lock()
	s.last = run
	s.mu.Unlock()
	return run
}
