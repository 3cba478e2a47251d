package models

import (
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
)

// Site is a domain-scoped crawl root. One row per canonical base URL
// (scheme://host, no path); its crawl time is refreshed at the start of
// every run against it.
type Site struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	CrawlTime time.Time `json:"crawl_time"`
}

// Page is one URL within a site. Hash is the SHA3-256 fingerprint of the
// page's extracted link list; the empty string means the page has not been
// successfully processed yet. Error carries the last failure message, if
// any.
type Page struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	URL       string    `json:"url"`
	Hash      string    `json:"hash"`
	CrawlTime time.Time `json:"crawl_time"`
	Error     string    `json:"error,omitempty"`
}

// Link is a scored outbound link discovered on a page. Keywords holds the
// ;-delimited keyword string (";finance;budget;") sorted by descending
// weighted score.
type Link struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	PageID    int64     `json:"page_id"`
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	Score     float64   `json:"score"`
	Keywords  string    `json:"keywords"`
	CrawlTime time.Time `json:"crawl_time"`
}

// ExtractedLink is one (url, text) pair mined from a rendered page, in
// document order with duplicates preserved. The JSON encoding of the full
// slice is what gets hashed for change detection, so field order matters.
type ExtractedLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// ClassifiedLink is an extracted link plus the raw keyword scores returned
// by the classifier (keyword -> score in [0,1]).
type ClassifiedLink struct {
	URL      string             `json:"url"`
	Text     string             `json:"text"`
	Keywords map[string]float64 `json:"keywords"`
}

// RankedLink is a classified link after weighting and aggregation. Links
// with a zero score are dropped before persistence.
type RankedLink struct {
	URL      string
	Text     string
	Score    float64
	Keywords string
}

// CrawlOptions carries the per-run knobs of the crawl engine. MaxURLParams
// is tri-state: nil keeps every query parameter, 0 strips them all, N>0
// keeps the first N in raw query order.
type CrawlOptions struct {
	SeedURL       string        `json:"seed_url" validate:"required,url"`
	Workers       int           `json:"workers" validate:"min=1"`
	StaleHours    int           `json:"stale_hours" validate:"min=1"`
	MaxCount      int           `json:"max_count" validate:"min=0"`
	MaxURLParams  *int          `json:"max_url_params,omitempty"`
	MaxComponents int           `json:"max_components" validate:"min=1"`
	MaxDepth      int           `json:"max_depth" validate:"min=0"`
	RequestDelay  time.Duration `json:"request_delay" validate:"min=0"`
}

// DefaultCrawlOptions returns the canonical defaults for a run against the
// given seed URL.
func DefaultCrawlOptions(seedURL string) CrawlOptions {
	return CrawlOptions{
		SeedURL:       seedURL,
		Workers:       8,
		StaleHours:    24,
		MaxComponents: 10,
		MaxDepth:      5,
	}
}

// Validate checks the option invariants using go-playground/validator tags
// plus the checks tags cannot express.
func (o *CrawlOptions) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return err
	}
	if o.MaxURLParams != nil && *o.MaxURLParams < 0 {
		return fmt.Errorf("max_url_params must be >= 0, got %d", *o.MaxURLParams)
	}
	u, err := url.Parse(o.SeedURL)
	if err != nil {
		return fmt.Errorf("invalid seed url %q: %w", o.SeedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("seed url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("seed url %q has no host", o.SeedURL)
	}
	return nil
}

// SiteBase returns the canonical scheme://host base of the seed URL.
func (o *CrawlOptions) SiteBase() (*url.URL, error) {
	u, err := url.Parse(o.SeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed url %q: %w", o.SeedURL, err)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// CrawlSummary is the terminal accounting of one run.
type CrawlSummary struct {
	RunID        string        `json:"run_id"`
	SiteID       int64         `json:"site_id"`
	SiteURL      string        `json:"site_url"`
	PagesCrawled int           `json:"pages_crawled"`
	PagesFailed  int           `json:"pages_failed"`
	PagesSkipped int           `json:"pages_skipped"`
	LinksStored  int           `json:"links_stored"`
	StalePages   int64         `json:"stale_pages_removed"`
	StaleLinks   int64         `json:"stale_links_removed"`
	Duration     time.Duration `json:"duration"`
}
