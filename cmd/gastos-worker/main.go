package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/backend"
	"gastos/internal/cli"
	"gastos/internal/log"
	"gastos/internal/services"
	"gastos/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)
	logger.Info("Starting gastos-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Memory backend: startup reconciliation only sees this process's data")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	app, err := cli.NewApp(ctx, cfg, logger, cli.AppOptions{})
	if err != nil {
		logger.Error("Failed to initialize application", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	exporter, err := backend.NewFactory(logger).CreateExporter(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	monitorCfg := services.DefaultAlertMonitorConfig()
	monitorCfg.Interval = cfg.AlertInterval
	monitor := services.NewAlertMonitor(app.Summaries, func(ctx context.Context, a services.Alert) {
		logger.WarnContext(ctx, "Presupuesto superado",
			log.FieldCategory, a.Category.Category,
			"spent", a.Category.Total.FormatEuros(),
			"limit", a.Category.Limit.FormatEuros(),
			log.FieldYear, a.Year,
			log.FieldMonth, a.Month)
	}, monitorCfg, logger)

	syncWorker := worker.NewSyncWorker(exporter, app.Repo, monitor, logger)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, syncWorker.HandleEvent)
	})
	g.Go(func() error {
		return monitor.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		app.Close()
		amqpClient.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
