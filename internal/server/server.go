// Package server hosts the HTTP surface in serve mode: the REST API, the
// WebSocket event stream, and the MCP endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/quaestor/internal/app"
	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/handlers"
	"github.com/ternarybob/quaestor/internal/services/mcp"
	pkgmodels "github.com/ternarybob/quaestor/pkg/models"
)

// Server manages the HTTP server and routes
type Server struct {
	app    *app.App
	router *http.ServeMux
	server *http.Server

	wsHandler    *handlers.WebSocketHandler
	apiHandler   *handlers.APIHandler
	crawlHandler *handlers.CrawlHandler
	mcpService   *mcp.Service
	logStreamer  *handlers.LogStreamer
}

// New creates the HTTP server over the given app. Crawl events are routed to
// the WebSocket broadcaster.
func New(application *app.App) *Server {
	s := &Server{
		app: application,
	}

	s.wsHandler = handlers.NewWebSocketHandler(common.GetVersion(), application.Logger)
	s.apiHandler = handlers.NewAPIHandler(application.Storage, s.statusResponse, application.Logger)
	s.crawlHandler = handlers.NewCrawlHandler(application, application.Config, application.Logger)
	s.mcpService = mcp.NewService(application.Storage, application, application.Config, application.Logger)

	application.SetEventSink(s.wsHandler)

	// Stream log lines to WebSocket clients via the arbor context channel
	s.logStreamer = handlers.NewLogStreamer(s.wsHandler, &application.Config.WebSocket)
	application.Logger.SetChannel("context", s.logStreamer.Channel())
	s.logStreamer.Start()

	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withConditionalMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// WebSocketHandler exposes the broadcaster so the log writer can be attached.
func (s *Server) WebSocketHandler() *handlers.WebSocketHandler {
	return s.wsHandler
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.app.Config.Server.Host, s.app.Config.Server.Port)

	s.app.Logger.Info().
		Str("address", addr).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logStreamer.Stop()
	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}

// statusResponse assembles the /api/status payload.
func (s *Server) statusResponse() pkgmodels.StatusResponse {
	runID := s.app.CurrentRunID()

	sites := 0
	if list, err := s.app.Storage.Sites().ListSites(context.Background()); err == nil {
		sites = len(list)
	}

	return pkgmodels.StatusResponse{
		Status:       "ok",
		Version:      common.GetVersion(),
		CrawlRunning: runID != "",
		CurrentRunID: runID,
		Sites:        sites,
		Goroutines:   common.GetGoroutineCount(),
	}
}
