package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"gastos/internal/cli"
	apphttp "gastos/internal/http"
	"gastos/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := cli.NewApp(cmd.Context(), cfg, logger, cli.AppOptions{Publish: true})
	if err != nil {
		return err
	}
	defer app.Close()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Capture:   app.Capture,
		Expenses:  app.Expenses,
		Taxonomy:  app.Taxonomy,
		Summaries: app.Summaries,
		Storage:   app.Repo,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		DefaultPayment:     cfg.PaymentDefault(),
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting gastos server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return err
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
	return nil
}
