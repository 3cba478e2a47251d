package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createListSitesTool returns the list_sites tool definition
func createListSitesTool() mcp.Tool {
	return mcp.NewTool("list_sites",
		mcp.WithDescription("List every crawled site with its last crawl time"),
	)
}

// createSearchLinksTool returns the search_links tool definition
func createSearchLinksTool() mcp.Tool {
	return mcp.NewTool("search_links",
		mcp.WithDescription("List a site's scored links ordered by descending relevance, optionally filtered by keyword"),
		mcp.WithString("site_url",
			mcp.Required(),
			mcp.Description("Base URL of the crawled site (scheme://host)"),
		),
		mcp.WithString("keyword",
			mcp.Description("Vocabulary keyword to filter by (e.g. finance, budget)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 20, max: 100)"),
		),
	)
}

// createListPagesTool returns the list_pages tool definition
func createListPagesTool() mcp.Tool {
	return mcp.NewTool("list_pages",
		mcp.WithDescription("List every crawled page of a site, including failed pages and their errors"),
		mcp.WithString("site_url",
			mcp.Required(),
			mcp.Description("Base URL of the crawled site (scheme://host)"),
		),
	)
}

// createGetPageTool returns the get_page tool definition
func createGetPageTool() mcp.Tool {
	return mcp.NewTool("get_page",
		mcp.WithDescription("Retrieve a crawled page by id together with its scored links"),
		mcp.WithNumber("page_id",
			mcp.Required(),
			mcp.Description("Numeric page id"),
		),
	)
}

// createStartCrawlTool returns the start_crawl tool definition
func createStartCrawlTool() mcp.Tool {
	return mcp.NewTool("start_crawl",
		mcp.WithDescription("Start a background crawl of a site using the configured crawler defaults"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Seed URL to crawl (must be http or https)"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Override the configured link depth limit"),
		),
		mcp.WithNumber("max_count",
			mcp.Description("Override the configured page count limit"),
		),
	)
}
