package storage

import (
	"context"
	"fmt"
	"time"

	"panel/internal/core"
)

// AlertEntry is one journaled alert.
type AlertEntry struct {
	ID          int64          `json:"id"`
	Range       core.DateRange `json:"range"`
	Tone        core.AlertTone `json:"tone"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	RaisedAt    time.Time      `json:"raisedAt"`
	ReceivedAt  time.Time      `json:"receivedAt"`
}

// RecordAlerts journals the alerts raised for rng. An alert already stored
// for the same range and title is skipped; the number of new rows is
// returned.
func (r *SQLiteRepository) RecordAlerts(ctx context.Context, rng core.DateRange, alerts []core.Alert, raisedAt time.Time) (int, error) {
	if err := rng.Validate(); err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin alert log: %w", err)
	}
	defer tx.Rollback()

	var inserted int
	for _, a := range alerts {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO alert_log (range_from, range_to, label, tone, title, description, raised_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rng.From.String(), rng.To.String(), rng.Label,
			string(a.Tone), a.Title, a.Description, raisedAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("insert alert %q: %w", a.Title, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("alert rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit alert log: %w", err)
	}
	return inserted, nil
}

// RecentAlerts returns up to limit journaled alerts, newest first.
func (r *SQLiteRepository) RecentAlerts(ctx context.Context, limit int) ([]AlertEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, range_from, range_to, label, tone, title, description, raised_at, received_at
		 FROM alert_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	out := []AlertEntry{}
	for rows.Next() {
		var (
			e        AlertEntry
			from, to string
			tone     string
		)
		if err := rows.Scan(&e.ID, &from, &to, &e.Range.Label, &tone, &e.Title, &e.Description, &e.RaisedAt, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		e.Tone = core.AlertTone(tone)
		if e.Range.From, err = parseStoredDate(from); err != nil {
			return nil, err
		}
		if e.Range.To, err = parseStoredDate(to); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

func parseStoredDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("stored date %q: %w", s, core.ErrInvalidDate)
	}
	return core.DateOf(t), nil
}
