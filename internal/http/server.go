package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/sheets"
)

// Repository is the storage surface the handlers use directly. The report,
// budget and fixed-expense services wrap the rest.
type Repository interface {
	CreateTransaction(ctx context.Context, record core.Record) (core.Record, error)
	DeleteTransaction(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, name string) (core.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListGroups(ctx context.Context) ([]core.ExpenseGroup, error)
	CreateGroup(ctx context.Context, name string) (core.ExpenseGroup, error)

	ListBudgets(ctx context.Context, activeOnly bool) ([]core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	SetBudgetActive(ctx context.Context, id string, active bool) error
	DeleteBudget(ctx context.Context, id string) error
}

type Server struct {
	http.Server

	repo    Repository
	reports *services.ReportService
	budgets *services.BudgetService
	fixed   *services.FixedExpenseService

	// Optional spreadsheet export target.
	exporter  sheets.SummaryExporter
	sheetName string

	rateLimiter *rateLimiter
	metrics     *securityMetrics
	logger      *log.Logger

	reportCache  *cache.LRUCache[services.MonthlyReport]
	cacheManager *cache.Manager

	shutdownOnce sync.Once

	// now is replaceable in tests.
	now func() time.Time
}

// Options carries the optional server collaborators.
type Options struct {
	Exporter  sheets.SummaryExporter
	SheetName string
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, repo Repository, reports *services.ReportService, budgets *services.BudgetService, fixed *services.FixedExpenseService, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:         repo,
		reports:      reports,
		budgets:      budgets,
		fixed:        fixed,
		exporter:     opts.Exporter,
		sheetName:    opts.SheetName,
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		logger:       log.Default(log.ComponentHTTP),
		reportCache:  cache.NewLRUCache[services.MonthlyReport](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
		now:          time.Now,
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/report", s.withSecurity(s.handleMonthlyReport))
	mux.HandleFunc("GET /api/report/export.csv", s.withSecurity(s.handleExportCSV))
	mux.HandleFunc("POST /api/report/export/sheets", s.withSecurity(s.handleExportSheets))
	mux.HandleFunc("GET /api/search", s.withSecurity(s.handleSearch))

	mux.HandleFunc("POST /api/transactions", s.withSecurity(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurity(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.withSecurity(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withSecurity(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withSecurity(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/budgets", s.withSecurity(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withSecurity(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/progress", s.withSecurity(s.handleBudgetProgress))
	mux.HandleFunc("PATCH /api/budgets/{id}/active", s.withSecurity(s.handleSetBudgetActive))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withSecurity(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/groups", s.withSecurity(s.handleListGroups))
	mux.HandleFunc("POST /api/groups", s.withSecurity(s.handleCreateGroup))

	mux.HandleFunc("GET /api/fixed-expenses", s.withSecurity(s.handleListFixedExpenses))
	mux.HandleFunc("POST /api/fixed-expenses", s.withSecurity(s.handleCreateFixedExpense))
	mux.HandleFunc("PUT /api/fixed-expenses/{id}", s.withSecurity(s.handleUpdateFixedExpense))
	mux.HandleFunc("POST /api/fixed-expenses/{id}/paid", s.withSecurity(s.handleSetFixedExpensePaid))
	mux.HandleFunc("DELETE /api/fixed-expenses/{id}", s.withSecurity(s.handleDeleteFixedExpense))

	return s
}

// withSecurity adds security headers, rate limiting and request logging.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request rejected",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.String())
			respondError(w, http.StatusBadRequest, "bad request")
			return
		}

		// Rate limiting applies to writes only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateReports drops cached reports after any write.
func (s *Server) invalidateReports() {
	s.reportCache.DeletePrefix("report:")
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
