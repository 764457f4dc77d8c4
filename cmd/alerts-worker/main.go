package main

import (
	"context"
	"os"
	"time"

	"panel/internal/amqp"
	"panel/internal/cli"
	applog "panel/internal/log"
	"panel/internal/storage"
	"panel/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting alerts worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alerts worker")
		os.Exit(1)
	}

	// The journal lives next to the SQLite source; it is optional.
	var store worker.AlertStore
	var repo *storage.SQLiteRepository
	if cfg.SQLiteDBPath != "" {
		dates, err := cfg.DateParser()
		if err != nil {
			logger.Error("Invalid slash date order", applog.FieldError, err)
			os.Exit(1)
		}
		repo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath, dates)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		store = repo
		logger.Info("Alert journal enabled", "path", cfg.SQLiteDBPath)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	alertsWorker := worker.NewAlertsWorker(store)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		stats := alertsWorker.Stats()
		logger.Info("Shutting down worker",
			"received", stats.Received,
			"journaled", stats.Journaled)
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP client close error", applog.FieldError, err)
		}
		if repo != nil {
			if err := repo.Close(); err != nil {
				logger.Error("SQLite close error", applog.FieldError, err)
			}
		}
	})

	if err := amqpClient.ConsumeAlerts(ctx, alertsWorker.Handler(ctx)); err != nil && ctx.Err() == nil {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
