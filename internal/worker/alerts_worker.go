package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"panel/internal/amqp"
	"panel/internal/core"
	"panel/internal/storage"
)

// AlertStore journals alerts. Already known alerts are not counted as new.
type AlertStore interface {
	RecordAlerts(ctx context.Context, rng core.DateRange, alerts []core.Alert, raisedAt time.Time) (int, error)
}

var _ AlertStore = (*storage.SQLiteRepository)(nil)

// AlertsWorker consumes alerts messages published by the panel server,
// logs them and keeps a journal when a store is configured.
type AlertsWorker struct {
	store AlertStore

	received  int64
	journaled int64
}

// NewAlertsWorker creates a worker. A nil store only logs.
func NewAlertsWorker(store AlertStore) *AlertsWorker {
	return &AlertsWorker{store: store}
}

// Stats reports how many messages were handled and how many alerts were
// new to the journal.
type Stats struct {
	Received  int64
	Journaled int64
}

func (w *AlertsWorker) Stats() Stats {
	return Stats{
		Received:  atomic.LoadInt64(&w.received),
		Journaled: atomic.LoadInt64(&w.journaled),
	}
}

// HandleAlertsMessage processes a single alerts message from AMQP.
// A returned error makes the message go back to the queue.
func (w *AlertsWorker) HandleAlertsMessage(ctx context.Context, msg *amqp.AlertsMessage) error {
	atomic.AddInt64(&w.received, 1)
	rng := msg.Range()

	slog.InfoContext(ctx, "Processing alerts message",
		"from", rng.From.String(),
		"to", rng.To.String(),
		"label", rng.Label,
		"alerts", len(msg.Alerts),
		"timestamp", msg.Timestamp)

	for _, a := range msg.Alerts {
		level := slog.LevelWarn
		if a.Tone == core.ToneDanger {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "Alert raised",
			"tone", string(a.Tone),
			"title", a.Title,
			"description", a.Description,
			"from", rng.From.String(),
			"to", rng.To.String())
	}

	if w.store == nil || len(msg.Alerts) == 0 {
		return nil
	}

	raisedAt := msg.Timestamp
	if raisedAt.IsZero() {
		raisedAt = time.Now()
	}
	n, err := w.store.RecordAlerts(ctx, rng, msg.Alerts, raisedAt)
	if err != nil {
		if rng.Validate() != nil {
			// an unusable range will never store; drop it instead of requeueing
			slog.ErrorContext(ctx, "Dropping alerts message with invalid range", "error", err)
			return nil
		}
		return fmt.Errorf("journal alerts: %w", err)
	}
	atomic.AddInt64(&w.journaled, int64(n))

	slog.InfoContext(ctx, "Alerts journaled",
		"new", n,
		"duplicates", len(msg.Alerts)-n)

	return nil
}

// Handler adapts HandleAlertsMessage to the AMQP consumer callback.
func (w *AlertsWorker) Handler(ctx context.Context) func(*amqp.AlertsMessage) error {
	return func(msg *amqp.AlertsMessage) error {
		return w.HandleAlertsMessage(ctx, msg)
	}
}
