package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (crawl events + log stream)
	mux.HandleFunc("/ws", s.wsHandler.HandleWebSocket)

	// API routes - crawl data
	mux.HandleFunc("/api/sites", s.apiHandler.ListSitesHandler)
	mux.HandleFunc("/api/sites/", s.apiHandler.SiteRoutesHandler) // /{id}, /{id}/pages[/{pageID}[/links]], /{id}/links
	mux.HandleFunc("/api/crawl", s.crawlHandler.StartCrawlHandler)

	// API routes - logs
	mux.HandleFunc("/api/logs/recent", s.apiHandler.RecentLogsHandler)

	// API routes - system
	mux.HandleFunc("/api/status", s.apiHandler.StatusHandler)
	mux.HandleFunc("/api/version", s.apiHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.apiHandler.HealthHandler)

	// MCP (Model Context Protocol) endpoint
	mux.Handle("/mcp", s.mcpService.Handler())

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.apiHandler.NotFoundHandler)

	return mux
}
