package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	applog "panel/internal/log"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "panelctl",
		Short: "Compute and manage business panel snapshots from the command line",
		Long: `panelctl computes dashboard snapshots offline, imports record bundles
into the SQLite store and lists the alerts journaled by the alerts worker.

Settings come from flags, PANEL_* environment variables or a panelctl.yaml
config file.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./panelctl.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", applog.FormatText, "log format (text, json)")
	rootCmd.PersistentFlags().String("slash-order", "", "slash date order (day-first-unless-impossible, day-first, month-first)")
	rootCmd.PersistentFlags().String("source", "", "record source (memory, sqlite, sheets)")
	rootCmd.PersistentFlags().String("data-dir", "", "seed directory for the memory source")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("slash_order", rootCmd.PersistentFlags().Lookup("slash-order"))
	_ = viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("sqlite_db_path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(alertsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("panelctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PANEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return setupLogging()
}

func setupLogging() error {
	level, err := applog.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	format := viper.GetString("logging.format")
	if format != applog.FormatText && format != applog.FormatJSON {
		return fmt.Errorf("invalid log format: %s", format)
	}

	applog.SetDefault(applog.New(applog.Config{
		Level:     level,
		Format:    format,
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	}))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "panelctl", version)
		},
	}
}
