package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"panel/internal/backend"
	"panel/internal/core"
	"panel/internal/metrics"
	"panel/internal/services"
)

type snapshotOptions struct {
	From       string
	To         string
	Label      string
	Year       int
	Month      int
	Compare    bool
	Request    string
	AlertsOnly bool
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute a dashboard snapshot",
		Long: `Compute the snapshot for a date range and print it as JSON.

With --request the records come from a compute request file (the body
accepted by POST /api/metrics/compute) and nothing is fetched. Otherwise
records are read from the configured source (memory, sqlite or sheets).

Without --from and --to the range is the calendar month given by --year and
--month, defaulting to the current month.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := snapshotOptions{
				From:       viper.GetString("snapshot.from"),
				To:         viper.GetString("snapshot.to"),
				Label:      viper.GetString("snapshot.label"),
				Year:       viper.GetInt("snapshot.year"),
				Month:      viper.GetInt("snapshot.month"),
				Compare:    viper.GetBool("snapshot.compare"),
				Request:    viper.GetString("snapshot.request"),
				AlertsOnly: viper.GetBool("snapshot.alerts_only"),
			}
			return runSnapshot(cmd.Context(), cmd.OutOrStdout(), opts, time.Now())
		},
	}

	cmd.Flags().String("from", "", "range start (any supported date format)")
	cmd.Flags().String("to", "", "range end (any supported date format)")
	cmd.Flags().String("label", "", "label echoed in the snapshot range")
	cmd.Flags().Int("year", 0, "calendar year when no explicit range is given")
	cmd.Flags().Int("month", 0, "calendar month (1-12) when no explicit range is given")
	cmd.Flags().Bool("compare", false, "compare against the previous period of equal length")
	cmd.Flags().StringP("request", "r", "", "compute request JSON file ('-' for stdin)")
	cmd.Flags().Bool("alerts-only", false, "print only the alerts")

	_ = viper.BindPFlag("snapshot.from", cmd.Flags().Lookup("from"))
	_ = viper.BindPFlag("snapshot.to", cmd.Flags().Lookup("to"))
	_ = viper.BindPFlag("snapshot.label", cmd.Flags().Lookup("label"))
	_ = viper.BindPFlag("snapshot.year", cmd.Flags().Lookup("year"))
	_ = viper.BindPFlag("snapshot.month", cmd.Flags().Lookup("month"))
	_ = viper.BindPFlag("snapshot.compare", cmd.Flags().Lookup("compare"))
	_ = viper.BindPFlag("snapshot.request", cmd.Flags().Lookup("request"))
	_ = viper.BindPFlag("snapshot.alerts_only", cmd.Flags().Lookup("alerts-only"))

	return cmd
}

func runSnapshot(ctx context.Context, out io.Writer, opts snapshotOptions, now time.Time) error {
	dates, err := dateParser()
	if err != nil {
		return err
	}
	assembler := metrics.NewAssembler(metrics.WithDateParser(dates))

	var snap core.Snapshot
	if opts.Request != "" {
		snap, err = snapshotFromRequest(opts, dates, assembler, now)
	} else {
		snap, err = snapshotFromSource(ctx, opts, dates, assembler, now)
	}
	if err != nil {
		return err
	}

	slog.Info("Snapshot computed",
		"from", snap.Range.From.String(),
		"to", snap.Range.To.String(),
		"alerts", len(snap.Alerts),
		"empty", snap.Empty)

	if opts.AlertsOnly {
		return writeJSON(out, snap.Alerts)
	}
	return writeJSON(out, snap)
}

func snapshotFromRequest(opts snapshotOptions, dates core.DateParser, assembler *metrics.Assembler, now time.Time) (core.Snapshot, error) {
	data, err := readInput(opts.Request)
	if err != nil {
		return core.Snapshot{}, err
	}
	var req services.ComputeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse compute request: %w", err)
	}

	if opts.hasRange() {
		if req.Range, err = resolveRange(opts, dates, now); err != nil {
			return core.Snapshot{}, err
		}
	} else if opts.Label != "" {
		req.Range.Label = opts.Label
	}

	return services.NewMetricsService(nil, assembler).Compute(req)
}

func snapshotFromSource(ctx context.Context, opts snapshotOptions, dates core.DateParser, assembler *metrics.Assembler, now time.Time) (core.Snapshot, error) {
	cfg, err := sourceConfig()
	if err != nil {
		return core.Snapshot{}, err
	}
	rng, err := resolveRange(opts, dates, now)
	if err != nil {
		return core.Snapshot{}, err
	}

	src, err := backend.NewFactory(slog.Default()).CreateBackend(ctx, cfg)
	if err != nil {
		return core.Snapshot{}, err
	}
	defer src.Close()

	res, err := services.NewMetricsService(src.Source, assembler).Snapshot(ctx, rng, opts.Compare)
	if err != nil {
		return core.Snapshot{}, err
	}
	return res.Snapshot, nil
}

func (o snapshotOptions) hasRange() bool {
	return o.From != "" || o.To != "" || o.Year != 0 || o.Month != 0
}

// resolveRange turns the range flags into a date range. The default month
// is taken from now in the configured timezone.
func resolveRange(opts snapshotOptions, dates core.DateParser, now time.Time) (core.DateRange, error) {
	from := strings.TrimSpace(opts.From)
	to := strings.TrimSpace(opts.To)

	switch {
	case from != "" && to != "":
		f, ok := dates.Parse(from)
		if !ok {
			return core.DateRange{}, fmt.Errorf("--from %q is not a date", from)
		}
		t, ok := dates.Parse(to)
		if !ok {
			return core.DateRange{}, fmt.Errorf("--to %q is not a date", to)
		}
		rng := core.NewDateRange(f, t, opts.Label)
		return rng, rng.Validate()
	case from != "" || to != "":
		return core.DateRange{}, fmt.Errorf("--from and --to must be given together")
	}

	loc, err := location()
	if err != nil {
		return core.DateRange{}, err
	}
	local := now.In(loc)
	year, month := local.Year(), int(local.Month())
	if opts.Year != 0 {
		year = opts.Year
	}
	if opts.Month != 0 {
		if opts.Month < 1 || opts.Month > 12 {
			return core.DateRange{}, fmt.Errorf("--month %d is out of range", opts.Month)
		}
		month = opts.Month
	}
	return core.MonthRange(year, month, opts.Label), nil
}
