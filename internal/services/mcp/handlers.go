package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolError(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, args...)),
		},
	}
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleListSites implements the list_sites tool
func (s *Service) handleListSites(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sites, err := s.storage.Sites().ListSites(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("MCP list_sites failed")
		return toolError("Error listing sites: %v", err), nil
	}
	return toolText(formatSites(sites)), nil
}

// handleSearchLinks implements the search_links tool
func (s *Service) handleSearchLinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	siteURL, err := request.RequireString("site_url")
	if err != nil || siteURL == "" {
		return toolError("Error: site_url parameter is required"), nil
	}

	site, err := s.storage.Sites().GetSiteByURL(ctx, siteURL)
	if err != nil {
		s.logger.Error().Err(err).Str("site_url", siteURL).Msg("MCP search_links failed")
		return toolError("Error looking up site: %v", err), nil
	}
	if site == nil {
		return toolError("Site not found: %s", siteURL), nil
	}

	keyword := request.GetString("keyword", "")
	limit := request.GetInt("limit", 20)
	if limit > 100 {
		limit = 100
	}

	links, err := s.storage.Links().ListLinksForSite(ctx, site.ID, keyword, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("site_id", site.ID).Msg("MCP search_links failed")
		return toolError("Error listing links: %v", err), nil
	}
	return toolText(formatLinks(site.URL, keyword, links)), nil
}

// handleListPages implements the list_pages tool
func (s *Service) handleListPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	siteURL, err := request.RequireString("site_url")
	if err != nil || siteURL == "" {
		return toolError("Error: site_url parameter is required"), nil
	}

	site, err := s.storage.Sites().GetSiteByURL(ctx, siteURL)
	if err != nil {
		s.logger.Error().Err(err).Str("site_url", siteURL).Msg("MCP list_pages failed")
		return toolError("Error looking up site: %v", err), nil
	}
	if site == nil {
		return toolError("Site not found: %s", siteURL), nil
	}

	pages, err := s.storage.Pages().ListPagesForSite(ctx, site.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("site_id", site.ID).Msg("MCP list_pages failed")
		return toolError("Error listing pages: %v", err), nil
	}
	return toolText(formatPages(site.URL, pages)), nil
}

// handleGetPage implements the get_page tool
func (s *Service) handleGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := request.GetInt("page_id", 0)
	if pageID <= 0 {
		return toolError("Error: page_id parameter is required"), nil
	}

	page, err := s.storage.Pages().GetPage(ctx, int64(pageID))
	if err != nil {
		s.logger.Error().Err(err).Int("page_id", pageID).Msg("MCP get_page failed")
		return toolError("Error getting page: %v", err), nil
	}
	if page == nil {
		return toolError("Page not found: %d", pageID), nil
	}

	links, err := s.storage.Links().ListLinksForPage(ctx, page.SiteID, page.ID)
	if err != nil {
		s.logger.Error().Err(err).Int("page_id", pageID).Msg("MCP get_page failed")
		return toolError("Error listing page links: %v", err), nil
	}
	return toolText(formatPage(page, links)), nil
}

// handleStartCrawl implements the start_crawl tool
func (s *Service) handleStartCrawl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seedURL, err := request.RequireString("url")
	if err != nil || seedURL == "" {
		return toolError("Error: url parameter is required"), nil
	}

	opts := s.config.CrawlOptions(seedURL)
	if maxDepth := request.GetInt("max_depth", 0); maxDepth > 0 {
		opts.MaxDepth = maxDepth
	}
	if maxCount := request.GetInt("max_count", 0); maxCount > 0 {
		opts.MaxCount = maxCount
	}
	if err := opts.Validate(); err != nil {
		return toolError("Invalid crawl options: %v", err), nil
	}

	runID, err := s.starter.StartCrawl(opts)
	if err != nil {
		s.logger.Error().Err(err).Str("url", seedURL).Msg("MCP start_crawl failed")
		return toolError("Error starting crawl: %v", err), nil
	}

	s.logger.Info().Str("run_id", runID).Str("url", seedURL).Msg("Crawl started via MCP")
	return toolText(fmt.Sprintf("Crawl accepted.\n\n- **Run ID:** %s\n- **URL:** %s\n", runID, seedURL)), nil
}
