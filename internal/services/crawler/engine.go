// Package crawler implements the site-scoped crawl engine: the worker pool
// over a shared frontier, URL normalization and admission, link extraction,
// hash-based change detection, and end-of-run stale reaping.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

// EngineConfig carries the collaborators and options for one crawl run.
type EngineConfig struct {
	Options    models.CrawlOptions
	Storage    interfaces.StorageManager
	Classifier interfaces.Classifier
	// NewRenderer creates one renderer per worker; each worker reuses its
	// browser for every URL it processes.
	NewRenderer func() (interfaces.Renderer, error)
	Vocabulary  models.Vocabulary
	Events      interfaces.EventSink // nil disables event publishing
	UserAgent   string               // for the robots.txt fetch
	RunID       string               // "" = generate
	Logger      arbor.ILogger
}

// Engine executes one crawl run: seed the frontier, drain it with N
// parallel workers, then reap rows from prior runs that were not
// re-observed. Engines are single-use.
type Engine struct {
	opts       models.CrawlOptions
	store      interfaces.StorageManager
	classifier interfaces.Classifier
	newRender  func() (interfaces.Renderer, error)
	vocab      models.Vocabulary
	events     interfaces.EventSink
	userAgent  string
	logger     arbor.ILogger

	runID     string
	crawlTime time.Time
	base      *url.URL
	extractor *LinkExtractor
	gate      *Gate
	frontier  *Frontier
	site      *models.Site
	limiter   *rate.Limiter

	// cache holds each page row as it existed at run start; read-only
	// after initialization.
	cache map[string]*models.Page

	statsMu sync.Mutex
	stats   models.CrawlSummary
}

// NewEngine validates the options and assembles an engine.
func NewEngine(config EngineConfig) (*Engine, error) {
	if err := config.Options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid crawl options: %w", err)
	}

	base, err := config.Options.SiteBase()
	if err != nil {
		return nil, err
	}

	runID := config.RunID
	if runID == "" {
		runID = common.NewRunID()
	}

	vocab := config.Vocabulary
	if vocab == nil {
		vocab = models.DefaultVocabulary()
	}

	e := &Engine{
		opts:       config.Options,
		store:      config.Storage,
		classifier: config.Classifier,
		newRender:  config.NewRenderer,
		vocab:      vocab,
		events:     config.Events,
		userAgent:  config.UserAgent,
		logger:     config.Logger,
		runID:      runID,
		base:       base,
		cache:      make(map[string]*models.Page),
	}
	e.extractor = NewLinkExtractor(base, config.Options.MaxURLParams, config.Logger)
	if config.Options.RequestDelay > 0 {
		e.limiter = rate.NewLimiter(rate.Every(config.Options.RequestDelay), 1)
	}
	return e, nil
}

// Run executes the crawl and returns the run summary. Per-page failures are
// recorded on their page rows and do not fail the run; only initialization
// errors do.
func (e *Engine) Run(ctx context.Context) (*models.CrawlSummary, error) {
	start := time.Now()

	// One run-wide timestamp: every row written this run carries it (or
	// run_start minus one second on error rows). Truncated to seconds to
	// match the stored resolution.
	e.crawlTime = time.Now().UTC().Truncate(time.Second)

	e.gate = NewGate(ctx, e.base, e.userAgent, e.opts.MaxComponents, e.opts.MaxDepth, e.logger)

	site, err := e.store.Sites().UpsertSite(ctx, e.base.String(), e.crawlTime)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert site: %w", err)
	}
	e.site = site

	pages, err := e.store.Pages().ListPagesForSite(ctx, site.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to prime page cache: %w", err)
	}
	for _, p := range pages {
		e.cache[p.URL] = p
	}

	e.frontier = NewFrontier(e.opts.MaxCount)
	seed, err := NewNormalizer(e.base, e.opts.MaxURLParams).Normalize(e.opts.SeedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize seed url: %w", err)
	}
	e.frontier.Enqueue(seed, 0)

	// Each worker owns one browser; a renderer that cannot start is a
	// fatal initialization failure, not a per-page error.
	renderers := make([]interfaces.Renderer, 0, e.opts.Workers)
	defer func() {
		for _, r := range renderers {
			r.Close()
		}
	}()
	for i := 0; i < e.opts.Workers; i++ {
		renderer, err := e.newRender()
		if err != nil {
			return nil, fmt.Errorf("failed to create renderer for worker %d: %w", i, err)
		}
		renderers = append(renderers, renderer)
	}

	e.logger.Info().
		Str("run_id", e.runID).
		Str("site", e.base.String()).
		Int("workers", e.opts.Workers).
		Int("cached_pages", len(e.cache)).
		Msg("Crawl run starting")
	e.publish(models.CrawlEvent{Type: models.EventRunStarted})

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func(id int, renderer interfaces.Renderer) {
			defer wg.Done()
			e.worker(ctx, id, renderer)
		}(i, renderers[i])
	}
	wg.Wait()

	staleBefore := e.crawlTime.Add(-time.Duration(e.opts.StaleHours) * time.Hour)
	stalePages, err := e.store.Pages().DeleteStalePages(ctx, site.ID, staleBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to reap stale pages: %w", err)
	}
	staleLinks, err := e.store.Links().DeleteStaleLinks(ctx, site.ID, staleBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to reap stale links: %w", err)
	}

	e.statsMu.Lock()
	summary := e.stats
	e.statsMu.Unlock()
	summary.RunID = e.runID
	summary.SiteID = site.ID
	summary.SiteURL = site.URL
	summary.StalePages = stalePages
	summary.StaleLinks = staleLinks
	summary.Duration = time.Since(start)

	e.logger.Info().
		Str("run_id", e.runID).
		Int("pages", summary.PagesCrawled).
		Int("failed", summary.PagesFailed).
		Int("links", summary.LinksStored).
		Int64("stale_pages", stalePages).
		Int64("stale_links", staleLinks).
		Dur("duration", summary.Duration).
		Msg("Crawl run complete")
	e.publish(models.CrawlEvent{Type: models.EventRunFinished, Summary: &summary})

	return &summary, nil
}

func (e *Engine) publish(event models.CrawlEvent) {
	if e.events == nil {
		return
	}
	event.RunID = e.runID
	event.SiteURL = e.base.String()
	event.Timestamp = time.Now().UTC()
	e.events.Publish(event)
}

func (e *Engine) countCrawled()    { e.statsMu.Lock(); e.stats.PagesCrawled++; e.statsMu.Unlock() }
func (e *Engine) countFailed()     { e.statsMu.Lock(); e.stats.PagesFailed++; e.statsMu.Unlock() }
func (e *Engine) countSkipped()    { e.statsMu.Lock(); e.stats.PagesSkipped++; e.statsMu.Unlock() }
func (e *Engine) countLinks(n int) { e.statsMu.Lock(); e.stats.LinksStored += n; e.statsMu.Unlock() }
