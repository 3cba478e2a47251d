package mcp

import (
	"fmt"
	"strings"

	"github.com/ternarybob/quaestor/internal/models"
)

// formatSites formats the site list for MCP
func formatSites(sites []*models.Site) string {
	if len(sites) == 0 {
		return "No sites have been crawled yet."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Sites (%d)\n\n", len(sites)))
	for _, site := range sites {
		b.WriteString(fmt.Sprintf("- **%s** (id %d, last crawled %s)\n",
			site.URL, site.ID, site.CrawlTime.Format("2006-01-02 15:04:05")))
	}
	return b.String()
}

// formatLinks formats a scored link list for MCP
func formatLinks(siteURL, keyword string, links []*models.Link) string {
	if len(links) == 0 {
		if keyword != "" {
			return fmt.Sprintf("No links found for %s matching keyword %q.", siteURL, keyword)
		}
		return fmt.Sprintf("No links found for %s.", siteURL)
	}

	var b strings.Builder
	if keyword != "" {
		b.WriteString(fmt.Sprintf("# Links for %s matching %q (%d)\n\n", siteURL, keyword, len(links)))
	} else {
		b.WriteString(fmt.Sprintf("# Links for %s (%d)\n\n", siteURL, len(links)))
	}

	for i, link := range links {
		text := link.Text
		if text == "" {
			text = "(no text)"
		}
		b.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, text))
		b.WriteString(fmt.Sprintf("- **URL:** %s\n", link.URL))
		b.WriteString(fmt.Sprintf("- **Score:** %.4f\n", link.Score))
		if keywords := strings.Trim(link.Keywords, ";"); keywords != "" {
			b.WriteString(fmt.Sprintf("- **Keywords:** %s\n", strings.ReplaceAll(keywords, ";", ", ")))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatPages formats a page list for MCP
func formatPages(siteURL string, pages []*models.Page) string {
	if len(pages) == 0 {
		return fmt.Sprintf("No pages found for %s.", siteURL)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Pages for %s (%d)\n\n", siteURL, len(pages)))
	for _, page := range pages {
		b.WriteString(fmt.Sprintf("- **%s** (id %d, crawled %s)",
			page.URL, page.ID, page.CrawlTime.Format("2006-01-02 15:04:05")))
		if page.Error != "" {
			b.WriteString(fmt.Sprintf(" (failed: %s)", page.Error))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatPage formats a single page and its links for MCP
func formatPage(page *models.Page, links []*models.Link) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# %s\n\n", page.URL))
	b.WriteString(fmt.Sprintf("**ID:** %d\n", page.ID))
	b.WriteString(fmt.Sprintf("**Site ID:** %d\n", page.SiteID))
	b.WriteString(fmt.Sprintf("**Crawled:** %s\n", page.CrawlTime.Format("2006-01-02 15:04:05")))
	if page.Hash != "" {
		b.WriteString(fmt.Sprintf("**Hash:** %s\n", page.Hash))
	}
	if page.Error != "" {
		b.WriteString(fmt.Sprintf("**Error:** %s\n", page.Error))
	}

	b.WriteString(fmt.Sprintf("\n## Links (%d)\n\n", len(links)))
	for _, link := range links {
		text := link.Text
		if text == "" {
			text = link.URL
		}
		b.WriteString(fmt.Sprintf("- [%s](%s) score %.4f\n", text, link.URL, link.Score))
	}
	return b.String()
}
