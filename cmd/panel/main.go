package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"panel/internal/amqp"
	"panel/internal/backend"
	"panel/internal/cache"
	"panel/internal/cli"
	apphttp "panel/internal/http"
	applog "panel/internal/log"
	"panel/internal/metrics"
	"panel/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	logger.Info("Starting panel server",
		"data_source", cfg.DataSource,
		"slash_date_order", cfg.SlashDateOrder,
		"timezone", cfg.Timezone)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	src, err := backend.NewFactory(logger.With(applog.FieldComponent, applog.ComponentBackend).Logger).
		CreateBackend(startupCtx, backendCfg)
	cancelStartup()
	if err != nil {
		logger.Error("Failed to initialize record source", applog.FieldError, err, applog.FieldSource, cfg.DataSource)
		os.Exit(1)
	}

	opts := []services.MetricsOption{
		services.WithFetchTimeout(cfg.FetchTimeout),
		services.WithMaxRangeDays(cfg.MaxRangeDays),
	}
	if cfg.SnapshotCacheTTL > 0 {
		opts = append(opts, services.WithSnapshotCache(cache.NewSnapshotCache(cfg.SnapshotCacheTTL)))
	}

	// Alerts fan-out is optional; the server runs without a broker.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without alerts fan-out", applog.FieldError, err)
		} else {
			opts = append(opts, services.WithAlertPublisher(amqpClient))
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewMetricsService(src.Source,
		metrics.NewAssembler(metrics.WithDateParser(backendCfg.Dates)),
		opts...)

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Location:           cfg.Location(),
	})
	if err != nil {
		logger.Error("Failed to configure HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	var scheduler *services.AlertScheduler
	if cfg.AlertPollInterval > 0 {
		scheduler = services.NewAlertScheduler(svc, services.AlertSchedulerConfig{
			PollInterval: cfg.AlertPollInterval,
			Location:     cfg.Location(),
		})
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if scheduler != nil {
			if err := scheduler.Stop(shutdownCtx); err != nil {
				logger.Error("Alert scheduler shutdown error", applog.FieldError, err)
			}
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP client close error", applog.FieldError, err)
			}
		}
		if err := src.Close(); err != nil {
			logger.Error("Record source close error", applog.FieldError, err)
		}
	})

	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start alert scheduler", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Alert scheduler started", "interval", cfg.AlertPollInterval)
	}

	logger.Info("Listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
