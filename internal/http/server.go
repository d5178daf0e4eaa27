package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/middleware/ratelimit"
	"gastos/internal/middleware/security"
	"gastos/internal/middleware/trace"
	"gastos/internal/services"
)

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API.
type Deps struct {
	Capture   *services.CaptureService
	Expenses  *services.ExpenseService
	Taxonomy  *services.TaxonomyService
	Summaries *services.SummaryService
	Storage   Pinger
}

// Options tune the middleware chain.
type Options struct {
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *log.Logger
	// DefaultPayment applies when a created expense names no payment method.
	DefaultPayment core.PaymentMethod
	// Now is the clock for default periods and dates; nil means time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps    Deps
	logger  *log.Logger
	now     func() time.Time
	started time.Time
	payment core.PaymentMethod

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if !opts.DefaultPayment.IsValid() {
		opts.DefaultPayment = core.Card
	}

	detector, err := security.NewDetector(logger, opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		deps:             deps,
		logger:           logger.WithComponent(log.ComponentHTTP),
		now:              opts.Now,
		started:          opts.Now(),
		payment:          opts.DefaultPayment,
		securityDetector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		traceMiddleware: trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/capture", s.handleCapture)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /api/categories/{name}", s.handleRemoveCategory)
	mux.HandleFunc("POST /api/categories/{name}/subcategories", s.handleAddSubcategory)
	mux.HandleFunc("DELETE /api/categories/{name}/subcategories/{sub}", s.handleRemoveSubcategory)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleAddBudget)
	mux.HandleFunc("PUT /api/budgets/{category}", s.handleSetBudget)
	mux.HandleFunc("DELETE /api/budgets/{category}", s.handleRemoveBudget)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/tips", s.handleTips)
	mux.HandleFunc("GET /api/recurring", s.handleRecurring)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimit)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r))
	ErrorResponse(http.StatusTooManyRequests, "Demasiadas solicitudes, inténtalo de nuevo en un minuto").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
