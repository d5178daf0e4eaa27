package cli

import (
	"context"
	"errors"
	"fmt"

	"gastos/internal/amqp"
	"gastos/internal/assist"
	"gastos/internal/budget"
	"gastos/internal/cache"
	"gastos/internal/capture"
	"gastos/internal/config"
	"gastos/internal/log"
	"gastos/internal/services"
	"gastos/internal/storage"
	"gastos/internal/taxonomy"
)

// App holds the services shared by the server, the CLI commands and the worker.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Repo      storage.Repository
	Publisher *amqp.Client

	Taxonomy  *services.TaxonomyService
	Expenses  *services.ExpenseService
	Summaries *services.SummaryService
	Capture   *services.CaptureService

	caches  *cache.Manager
	closers []func() error
}

// AppOptions switches off parts of the wiring a command does not need.
type AppOptions struct {
	// Publish connects to AMQP when a URL is configured.
	Publish bool
}

// NewApp opens storage, bootstraps the taxonomy and wires every service.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, opts AppOptions) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	res, err := InitRepository(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	app.Repo = res.Repository
	app.closers = append(app.closers, res.Cleanup)

	seed, err := taxonomy.LoadSeedFile(cfg.TaxonomySeed)
	if err != nil {
		app.Close()
		return nil, err
	}
	store := taxonomy.New()
	app.Taxonomy = services.NewTaxonomyService(store, app.Repo, logger)
	if err := app.Taxonomy.Bootstrap(ctx, seed); err != nil {
		app.Close()
		return nil, fmt.Errorf("bootstrap taxonomy: %w", err)
	}

	if opts.Publish && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			app.Publisher = client
			app.closers = append(app.closers, client.Close)
			logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	assistant, err := newAssistant(ctx, cfg, logger)
	if err != nil {
		logger.WarnContext(ctx, "Assistant disabled", log.FieldError, err)
	}

	memo := budget.NewMemo(cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	app.caches = cache.NewManager(logger.Logger.With(log.FieldComponent, log.ComponentCache))
	app.caches.Register(memo.Cache())
	if cfg.SummaryCacheTTL > 0 {
		app.caches.StartCleanup(cfg.SummaryCacheTTL)
	}

	synonyms := capture.DefaultSynonyms()
	if len(seed.Synonyms) > 0 {
		synonyms = capture.ParseSynonyms(seed.Synonyms)
	}
	pipeline := capture.NewPipeline(store, capture.Config{
		Threshold:        cfg.AcceptThreshold,
		FuzzyMaxDistance: cfg.FuzzyMaxDistance,
		DefaultPayment:   cfg.PaymentDefault(),
		Synonyms:         synonyms,
	})

	var publisher services.EventPublisher
	if app.Publisher != nil {
		publisher = app.Publisher
	}
	app.Expenses = services.NewExpenseService(app.Repo, store, publisher, logger)
	app.Summaries = services.NewSummaryService(app.Repo, store, memo, assistant, logger)
	app.Capture = services.NewCaptureService(pipeline, assistant, store, logger)
	app.Expenses.ReloadFrom(app.Taxonomy)
	app.Summaries.ReloadFrom(app.Taxonomy)
	app.Capture.ReloadFrom(app.Taxonomy)

	logger.InfoContext(ctx, "Application initialized",
		"backend", cfg.DataBackend,
		"categories", store.Snapshot().Len(),
		"events", app.Publisher != nil,
		"assistant", assistant.Enabled())
	return app, nil
}

// newAssistant returns an assistant without a model when no API key is set.
func newAssistant(ctx context.Context, cfg *config.Config, logger *log.Logger) (*assist.Assistant, error) {
	if cfg.GeminiAPIKey == "" {
		return assist.NewAssistant(nil, logger), nil
	}
	producer, err := assist.NewGeminiProducer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return assist.NewAssistant(nil, logger), err
	}
	return assist.NewAssistant(producer, logger), nil
}

// Close releases everything NewApp opened, in reverse order.
func (a *App) Close() error {
	if a.caches != nil {
		a.caches.Stop()
		a.caches = nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if a.closers[i] == nil {
			continue
		}
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
