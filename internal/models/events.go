package models

import "time"

// Crawl event types published by the engine.
const (
	EventRunStarted  = "run_started"
	EventPageCrawled = "page_crawled"
	EventPageFailed  = "page_failed"
	EventPageSkipped = "page_skipped"
	EventLinksStored = "links_stored"
	EventRunFinished = "run_finished"
)

// CrawlEvent is one lifecycle notification from a crawl run. Delivery is
// best-effort; consumers must not block the engine.
type CrawlEvent struct {
	Type      string        `json:"type"`
	RunID     string        `json:"run_id"`
	SiteURL   string        `json:"site_url"`
	URL       string        `json:"url,omitempty"`
	Depth     int           `json:"depth,omitempty"`
	Hash      string        `json:"hash,omitempty"`
	Changed   bool          `json:"changed,omitempty"`
	LinkCount int           `json:"link_count,omitempty"`
	Error     string        `json:"error,omitempty"`
	Summary   *CrawlSummary `json:"summary,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
