// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/newthinker/orderdesk/internal/api/middleware"
	"github.com/newthinker/orderdesk/internal/api/response"
	"github.com/newthinker/orderdesk/internal/metrics"
	"github.com/newthinker/orderdesk/internal/router"
	"github.com/newthinker/orderdesk/internal/storage/archive"
	"github.com/newthinker/orderdesk/internal/storage/order"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the canteen backend: the admin dashboard endpoints and the
// seat-side menu and ordering pages.
type Server struct {
	httpServer *http.Server
	mux        chi.Router
	logger     *zap.Logger
	cfg        Config
	deps       Dependencies
	views      *renderer
}

// Config holds server configuration
type Config struct {
	Host             string
	Port             int
	CSRFCookieSecure bool
	MetricsPath      string // empty disables the metrics endpoint
	Templates        fs.FS  // nil uses the embedded templates
}

// Dependencies holds the collaborators the handlers need. Only Store is
// required.
type Dependencies struct {
	Store   order.Store
	Media   archive.Storage
	Router  *router.Router
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tfs := cfg.Templates
	if tfs == nil {
		tfs = embeddedTemplates()
	}
	views, err := newRenderer(tfs)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		mux:    chi.NewRouter(),
		logger: logger.With(zap.String("component", "api")),
		cfg:    cfg,
		deps:   deps,
		views:  views,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.mux
	if s.deps.Metrics != nil {
		r.Use(metrics.HTTPMiddleware(s.deps.Metrics))
	}
	r.Use(metrics.LoggingMiddleware(s.logger))
	r.Use(chimw.Recoverer)

	// Admin dashboard
	r.Get("/", s.handleDashboard)
	r.Get("/get_new_orders/", s.handleOrderList)
	r.Get("/get_order_stats/", s.handleOrderStats)
	r.With(middleware.CSRF()).Post("/mark_order_done/{orderID}/", s.handleMarkDone)

	// Seat side
	r.Get("/scan/{qrID}/", s.handleScan)
	r.With(middleware.CSRF()).Post("/place_order/{qrID}/", s.handlePlaceOrder)

	if s.deps.Media != nil {
		r.Get("/media/*", s.handleMedia)
	}

	r.Get("/api/health", s.handleHealth)
	if s.deps.Metrics != nil && s.cfg.MetricsPath != "" {
		r.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail logs err and answers with the status its code maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := response.StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	response.Error(w, status, err)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := s.views.page(w, status, page, data); err != nil {
		s.fail(w, r, err)
	}
}
