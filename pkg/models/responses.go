// Package models defines the public request and response shapes of the
// quaestor HTTP API.
package models

import "time"

// SiteResponse is one crawl root.
type SiteResponse struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	CrawlTime time.Time `json:"crawl_time"`
}

// PageResponse is one crawled URL. An empty hash means the page has not
// been successfully processed.
type PageResponse struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	URL       string    `json:"url"`
	Hash      string    `json:"hash"`
	CrawlTime time.Time `json:"crawl_time"`
	Error     string    `json:"error,omitempty"`
}

// LinkResponse is one scored outbound link. Keywords is the stored keyword
// string decoded into its ordered parts.
type LinkResponse struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	PageID    int64     `json:"page_id"`
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	Score     float64   `json:"score"`
	Keywords  []string  `json:"keywords"`
	CrawlTime time.Time `json:"crawl_time"`
}

// CrawlRequest triggers a crawl run. Zero-value option fields fall back to
// the server's configured crawler defaults; MaxURLParams is tri-state (nil
// keeps all query parameters, 0 strips them).
type CrawlRequest struct {
	URL           string `json:"url"`
	Workers       int    `json:"workers,omitempty"`
	StaleHours    int    `json:"stale_hours,omitempty"`
	MaxCount      int    `json:"max_count,omitempty"`
	MaxURLParams  *int   `json:"max_url_params,omitempty"`
	MaxComponents int    `json:"max_components,omitempty"`
	MaxDepth      int    `json:"max_depth,omitempty"`
}

// CrawlResponse acknowledges an accepted crawl run.
type CrawlResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// StatusResponse reports the server's current state. Goroutines counts the
// background tasks spawned since startup, not the live goroutine count.
type StatusResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	CrawlRunning bool   `json:"crawl_running"`
	CurrentRunID string `json:"current_run_id,omitempty"`
	Sites        int    `json:"sites"`
	Goroutines   int64  `json:"goroutines"`
}
