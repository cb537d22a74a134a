package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catforge/cat-core/internal/core/ports/driving"
	"github.com/catforge/cat-core/internal/runtime"
)

// maxBodyBytes caps request bodies, exchange documents included
const maxBodyBytes = 32 << 20

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	sessionService  driving.SessionService
	tmService       driving.TMService
	termbaseService driving.TermbaseService
	clientService   driving.ClientService

	// Runtime holds the live editor profile and readiness checks
	runtime *runtime.Services
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	sessionService driving.SessionService,
	tmService driving.TMService,
	termbaseService driving.TermbaseService,
	clientService driving.ClientService,
	rt *runtime.Services,
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          logger,
		sessionService:  sessionService,
		tmService:       tmService,
		termbaseService: termbaseService,
		clientService:   clientService,
		runtime:         rt,
	}
	s.setupRoutes()

	var handler http.Handler = s.router
	handler = NewMetricsMiddleware(s.router).Handler(handler)
	handler = NewLoggingMiddleware(logger).Handler(handler)
	if len(cfg.AllowedOrigins) > 0 {
		handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	}
	handler = NewRecoveryMiddleware(logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.Handle("GET /metrics", promhttp.Handler())

	// Sessions
	s.router.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("POST /api/v1/sessions/import/xliff", s.handleImportXLIFF)
	s.router.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/snapshot", s.handleGetSnapshot)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/stats", s.handleGetStats)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/analysis", s.handleGetAnalysis)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/export/xliff", s.handleExportXLIFF)

	// Segments
	s.router.HandleFunc("GET /api/v1/sessions/{id}/segments", s.handleListSegments)
	s.router.HandleFunc("PUT /api/v1/sessions/{id}/segments/{segment}/target", s.handleUpdateTarget)
	s.router.HandleFunc("POST /api/v1/sessions/{id}/segments/{segment}/confirm", s.handleConfirm)
	s.router.HandleFunc("POST /api/v1/sessions/{id}/segments/{segment}/apply-match", s.handleApplyMatch)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/segments/{segment}/tm-matches", s.handleTMMatches)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/segments/{segment}/term-matches", s.handleTermMatches)
	s.router.HandleFunc("POST /api/v1/sessions/{id}/apply-exact-matches", s.handleApplyExactMatches)
	s.router.HandleFunc("POST /api/v1/sessions/{id}/navigate", s.handleNavigate)
	s.router.HandleFunc("PUT /api/v1/sessions/{id}/active", s.handleSetActive)
	s.router.HandleFunc("POST /api/v1/sessions/{id}/tm-entries", s.handleImportSessionEntries)

	// QA
	s.router.HandleFunc("POST /api/v1/sessions/{id}/qa", s.handleRunQA)
	s.router.HandleFunc("GET /api/v1/sessions/{id}/qa/issues", s.handleListIssues)
	s.router.HandleFunc("PUT /api/v1/sessions/{id}/qa/issues/{index}", s.handleSetIssueIgnored)

	// Translation memories
	s.router.HandleFunc("GET /api/v1/tms", s.handleListTMs)
	s.router.HandleFunc("POST /api/v1/tms", s.handleCreateTM)
	s.router.HandleFunc("GET /api/v1/tms/{id}", s.handleGetTM)
	s.router.HandleFunc("PUT /api/v1/tms/{id}", s.handleUpdateTM)
	s.router.HandleFunc("DELETE /api/v1/tms/{id}", s.handleDeleteTM)
	s.router.HandleFunc("GET /api/v1/tms/{id}/entries", s.handleListEntries)
	s.router.HandleFunc("POST /api/v1/tms/{id}/entries", s.handleAddEntry)
	s.router.HandleFunc("DELETE /api/v1/tms/{id}/entries/{entry}", s.handleDeleteEntry)
	s.router.HandleFunc("POST /api/v1/tms/{id}/import", s.handleImportEntries)
	s.router.HandleFunc("POST /api/v1/tms/{id}/import/tmx", s.handleImportTMX)
	s.router.HandleFunc("GET /api/v1/tms/{id}/export/tmx", s.handleExportTMX)

	// Termbase
	s.router.HandleFunc("GET /api/v1/termbase", s.handleListTerms)
	s.router.HandleFunc("POST /api/v1/termbase", s.handleAddTerm)
	s.router.HandleFunc("DELETE /api/v1/termbase/{id}", s.handleDeleteTerm)

	// Clients
	s.router.HandleFunc("GET /api/v1/clients", s.handleListClients)
	s.router.HandleFunc("POST /api/v1/clients", s.handleCreateClient)
	s.router.HandleFunc("GET /api/v1/clients/{id}", s.handleGetClient)
	s.router.HandleFunc("PUT /api/v1/clients/{id}", s.handleUpdateClient)
	s.router.HandleFunc("DELETE /api/v1/clients/{id}", s.handleDeleteClient)
	s.router.HandleFunc("GET /api/v1/clients/{id}/usage", s.handleClientUsage)

	// Editor profile
	s.router.HandleFunc("GET /api/v1/settings/editor", s.handleGetEditorSettings)
	s.router.HandleFunc("PUT /api/v1/settings/editor", s.handleUpdateEditorSettings)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
