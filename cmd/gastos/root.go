package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gastos/internal/cli"
	"gastos/internal/config"
	"gastos/internal/log"
)

var (
	flagYear    int
	flagMonth   int
	flagVerbose bool

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:           "gastos",
	Short:         "Registro de gastos por voz y presupuestos mensuales",
	Long:          "Captura gastos dictados en español, los clasifica y compara el gasto mensual con los presupuestos.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()
		var err error
		cfg, err = cli.LoadAndValidateConfig()
		if err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		if !flagVerbose && cmd.Name() != serveCmd.Name() {
			cfg.LogLevel = "error"
		}
		logger = cli.SetupLogger(cfg)
		return nil
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at the configured level for one-shot commands")
}

// addPeriodFlags registers --year and --month; zero means the current month.
func addPeriodFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&flagYear, "year", "y", 0, "Year (default: current)")
	cmd.Flags().IntVarP(&flagMonth, "month", "m", 0, "Month 1-12 (default: current)")
}

func period() (int, int) {
	now := time.Now()
	year, month := flagYear, flagMonth
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return year, month
}

// withApp opens the application for one command and closes it afterwards.
func withApp(ctx context.Context, opts cli.AppOptions, fn func(*cli.App) error) error {
	app, err := cli.NewApp(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Close failed", log.FieldError, err)
		}
	}()
	return fn(app)
}
