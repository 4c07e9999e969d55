package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanonone/castchain/internal/server/ui"
	"github.com/sanonone/castchain/pkg/engine"
)

// Server holds the HTTP interface and the underlying Engine.
type Server struct {
	Engine *engine.Engine

	httpServer  *http.Server
	apiMux      *http.ServeMux
	taskManager *TaskManager
	logger      *slog.Logger
}

// Options configures NewServer.
type Options struct {
	Addr   string
	Logger *slog.Logger

	// MCP, when set, is served over streamable HTTP at /mcp.
	MCP *mcp.Server
}

// NewServer builds the HTTP server around an existing Engine.
func NewServer(eng *engine.Engine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		Engine:      eng,
		taskManager: NewTaskManager(),
		logger:      logger,
	}

	// Setup HTTP
	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)
	s.apiMux = mux

	// Chain middlewares: Recovery -> Logging -> RequestID -> Mux
	// Recovery must be outer-most to catch everything.
	var handler http.Handler = mux
	handler = s.RequestIDMiddleware(handler)
	handler = s.LoggingMiddleware(handler)
	handler = s.RecoveryMiddleware(handler)

	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("GET /metrics", promhttp.Handler())
	if opts.MCP != nil {
		mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return opts.MCP }, nil)
		rootMux.Handle("/mcp", s.RecoveryMiddleware(mcpHandler))
	}
	rootMux.Handle("/api/", handler)
	rootMux.Handle("/", ui.GetHandler())

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           rootMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, waiting up to 5 seconds for in-flight requests.
// Running pair tasks are cancelled.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown of HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}
	s.taskManager.CancelAll()
}
