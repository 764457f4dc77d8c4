package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"panel/internal/storage"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List the alerts journaled by the alerts worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAlerts(cmd.Context(), cmd.OutOrStdout(),
				viper.GetString("sqlite_db_path"), viper.GetInt("alerts.limit"))
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of alerts to print, newest first")
	_ = viper.BindPFlag("alerts.limit", cmd.Flags().Lookup("limit"))

	return cmd
}

func runAlerts(ctx context.Context, out io.Writer, dbPath string, limit int) error {
	dates, err := dateParser()
	if err != nil {
		return err
	}
	repo, err := storage.NewSQLiteRepository(dbPath, dates)
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.RecentAlerts(ctx, limit)
	if err != nil {
		return err
	}
	return writeJSON(out, entries)
}
