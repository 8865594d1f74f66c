package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	gosync "sync"
	"time"

	"github.com/wesm/inventoryview/internal/config"
	"github.com/wesm/inventoryview/internal/db"
	"github.com/wesm/inventoryview/internal/render"
	"github.com/wesm/inventoryview/internal/report"
	"github.com/wesm/inventoryview/internal/sync"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server that serves the report API and the
// printable report pages.
type Server struct {
	mu       gosync.RWMutex
	cfg      config.Config
	db       *db.DB
	engine   *sync.Engine
	registry *report.Registry
	nav      *report.Navigator
	renderer render.Renderer
	mux      *http.ServeMux
	httpSrv  *http.Server
	version  VersionInfo
	now      func() time.Time

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
	// eventInterval overrides pollInterval for the events
	// stream. Zero in production.
	eventInterval time.Duration
}

// New creates a new Server.
func New(
	cfg config.Config, database *db.DB, engine *sync.Engine,
	opts ...Option,
) *Server {
	s := &Server{
		cfg:      cfg,
		db:       database,
		engine:   engine,
		registry: report.Default(),
		renderer: render.New(),
		mux:      http.NewServeMux(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.nav = report.NewNavigator(s.registry)
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithRegistry replaces the report menu. Nil is ignored.
func WithRegistry(r *report.Registry) Option {
	return func(s *Server) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithRenderer overrides the report renderer, allowing tests to
// substitute a stub. Nil is ignored.
func WithRenderer(r render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithClock overrides the time source used for print pages.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *Server) routes() {
	s.mux.Handle("GET /api/v1/reports", s.withTimeout(s.handleListReports))
	s.mux.Handle("GET /api/v1/reports/current", s.withTimeout(s.handleCurrentReport))
	s.mux.Handle(
		"GET /api/v1/reports/{category}/{type}", s.withTimeout(s.handleGetReport),
	)
	s.mux.Handle(
		"GET /api/v1/reports/{category}/{type}/download", s.withTimeout(s.handleDownload),
	)
	s.mux.Handle(
		"GET /api/v1/reports/{category}/{type}/print", s.withTimeout(s.handlePrint),
	)
	s.mux.Handle("GET /api/v1/sections/{section}", s.withTimeout(s.handleGetSection))

	s.mux.Handle("GET /api/v1/selection", s.withTimeout(s.handleGetSelection))
	s.mux.Handle("PUT /api/v1/selection", s.withTimeout(s.handleSetSelection))
	s.mux.Handle(
		"PUT /api/v1/selection/time-range", s.withTimeout(s.handleSetTimeRange),
	)
	s.mux.Handle("DELETE /api/v1/selection", s.withTimeout(s.handleResetSelection))

	s.mux.Handle("GET /api/v1/stats", s.withTimeout(s.handleGetStats))
	s.mux.Handle("GET /api/v1/version", s.withTimeout(s.handleGetVersion))
	s.mux.Handle("GET /api/v1/status", s.withTimeout(s.handleStatus))
	s.mux.Handle("POST /api/v1/reload", s.withTimeout(s.handleReload))
	// SSE: Do not use timeout, as this is a long-lived connection.
	s.mux.HandleFunc("GET /api/v1/events", s.handleEvents)

	// The index page prints the current selection.
	s.mux.Handle("GET /{$}", s.withTimeout(s.handleIndex))
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

// SetPort updates the listen port (for testing).
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(logMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}
