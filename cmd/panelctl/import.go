package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"panel/internal/storage"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a record bundle into the SQLite store",
		Long: `Import services, expenses, fixed expenses and categories from a JSON file
into the SQLite database used by the sqlite source. The file holds an object
with "services", "expenses" (or "dailyExpenses"), "fixedExpenses" and
"categories" lists; each list may also be an {"items": [...]} object.

Records are stored as given and tagged with a new import batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), args[0],
				viper.GetString("sqlite_db_path"), viper.GetBool("import.dry_run"))
		},
	}

	cmd.Flags().Bool("dry-run", false, "count the records without writing them")

	_ = viper.BindPFlag("import.dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runImport(ctx context.Context, out io.Writer, path, dbPath string, dryRun bool) error {
	f, err := readRecordFile(path)
	if err != nil {
		return err
	}

	if dryRun {
		return writeJSON(out, storage.ImportStats{
			Services:      len(f.Bundle.Services),
			Expenses:      len(f.Bundle.Expenses),
			FixedExpenses: len(f.Bundle.FixedExpenses),
			Categories:    len(f.Categories),
		})
	}

	if dbPath == "" {
		return fmt.Errorf("a SQLite database path is required")
	}
	dates, err := dateParser()
	if err != nil {
		return err
	}
	repo, err := storage.NewSQLiteRepository(dbPath, dates)
	if err != nil {
		return err
	}
	defer repo.Close()

	stats, err := repo.Import(ctx, filepath.Base(path), f.Bundle, f.Categories)
	if err != nil {
		return err
	}
	slog.Info("Import finished", "db_path", dbPath, "records", stats.Total())

	return writeJSON(out, stats)
}
