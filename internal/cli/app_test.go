package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/services"
)

func testConfig(backend, dbPath string) *config.Config {
	return &config.Config{
		Port:               "8081",
		RateLimitPerMinute: 60,
		DataBackend:        backend,
		SQLiteDBPath:       dbPath,
		AcceptThreshold:    0.6,
		DefaultPayment:     string(core.Card),
		SummaryCacheSize:   8,
		SummaryCacheTTL:    time.Minute,
		AlertInterval:      time.Hour,
		LogLevel:           "error",
		LogFormat:          "text",
	}
}

func TestNewApp_Memory(t *testing.T) {
	ctx := context.Background()
	app, err := NewApp(ctx, testConfig("memory", ""), log.Discard(), AppOptions{})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer app.Close()

	if len(app.Taxonomy.ListCategories()) == 0 {
		t.Fatal("expected the default taxonomy to be seeded")
	}
	if app.Publisher != nil {
		t.Fatal("publisher should be disabled without AMQP")
	}

	cand, err := app.Capture.Capture(ctx, "cuarenta euros de gasolina con tarjeta")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	saved, err := app.Expenses.CreateExpense(ctx, cand.Expense)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	d := saved.Date
	summary, err := app.Summaries.Month(ctx, d.Year(), d.Month())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total.Cents != 4000 {
		t.Fatalf("expected total 4000, got %d", summary.Total.Cents)
	}
}

func TestNewApp_SQLiteReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("sqlite", filepath.Join(t.TempDir(), "gastos.db"))

	app, err := NewApp(ctx, cfg, log.Discard(), AppOptions{})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if _, err := app.Taxonomy.AddCategory(ctx, "Mascotas"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	app, err = NewApp(ctx, cfg, log.Discard(), AppOptions{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer app.Close()
	if _, ok := app.Taxonomy.Store().Snapshot().Category("mascotas"); !ok {
		t.Fatal("category added before restart should be loaded from the database")
	}
}

func TestNewApp_SharedDatabase(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("sqlite", filepath.Join(t.TempDir(), "gastos.db"))
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	server, err := NewApp(ctx, cfg, log.Discard(), AppOptions{})
	if err != nil {
		t.Fatalf("server app: %v", err)
	}
	defer server.Close()
	worker, err := NewApp(ctx, cfg, log.Discard(), AppOptions{})
	if err != nil {
		t.Fatalf("worker app: %v", err)
	}
	defer worker.Close()

	if _, err := server.Taxonomy.SetBudget(ctx, "Ocio", core.Money{Cents: 1000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if _, err := server.Expenses.CreateExpense(ctx, core.Expense{
		Name:          "Concierto",
		Amount:        core.Money{Cents: 5000},
		Category:      "Ocio",
		Subcategory:   "Conciertos",
		Date:          core.DateOf(now),
		PaymentMethod: core.Card,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	monitor := services.NewAlertMonitor(worker.Summaries, nil,
		services.AlertMonitorConfig{Interval: time.Hour, Now: func() time.Time { return now }}, nil)
	alerts := monitor.Check(ctx)
	if len(alerts) != 1 || alerts[0].Category.Category != "Ocio" {
		t.Fatalf("worker should alert on a budget set by another process, got %+v", alerts)
	}

	if err := server.Taxonomy.RemoveBudget(ctx, "Ocio"); err != nil {
		t.Fatalf("remove budget: %v", err)
	}
	summary, err := worker.Summaries.Month(ctx, 2026, 3)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if over := summary.OverBudget(); len(over) != 0 {
		t.Fatalf("removed budget still over: %v", over)
	}
	if got := worker.Taxonomy.ListBudgets(); len(got) != 0 {
		t.Fatalf("worker kept a removed budget: %+v", got)
	}

	if _, err := server.Taxonomy.AddCategory(ctx, "Mascotas"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, err := worker.Expenses.CreateExpense(ctx, core.Expense{
		Name:          "Pienso",
		Amount:        core.Money{Cents: 1500},
		Category:      "mascotas",
		Date:          core.DateOf(now),
		PaymentMethod: core.Cash,
	}); err != nil {
		t.Fatalf("category added by another process rejected: %v", err)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Fatal("expected validation error")
	}
	t.Setenv("PORT", "8090")
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8090" {
		t.Fatalf("port = %s", cfg.Port)
	}
}
