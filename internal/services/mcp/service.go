// Package mcp exposes the crawl store to LLM agents over the Model Context
// Protocol, served as streamable HTTP alongside the REST API.
package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

// CrawlStarter launches a background crawl run; satisfied by app.App.
type CrawlStarter interface {
	StartCrawl(opts models.CrawlOptions) (string, error)
}

// Service wraps an MCP server over the crawl storage.
type Service struct {
	storage interfaces.StorageManager
	starter CrawlStarter
	config  *common.Config
	logger  arbor.ILogger

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

// NewService builds the MCP server and registers the crawl tools.
func NewService(storage interfaces.StorageManager, starter CrawlStarter, config *common.Config, logger arbor.ILogger) *Service {
	s := &Service{
		storage: storage,
		starter: starter,
		config:  config,
		logger:  logger,
	}

	s.mcpServer = server.NewMCPServer(
		"quaestor",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	s.mcpServer.AddTool(createListSitesTool(), s.handleListSites)
	s.mcpServer.AddTool(createSearchLinksTool(), s.handleSearchLinks)
	s.mcpServer.AddTool(createListPagesTool(), s.handleListPages)
	s.mcpServer.AddTool(createGetPageTool(), s.handleGetPage)
	if starter != nil {
		s.mcpServer.AddTool(createStartCrawlTool(), s.handleStartCrawl)
	}

	s.httpServer = server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath("/mcp"),
	)

	return s
}

// Handler returns the HTTP handler serving the MCP endpoint.
func (s *Service) Handler() http.Handler {
	return s.httpServer
}
