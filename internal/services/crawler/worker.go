package crawler

import (
	"context"
	"net/url"
	"strings"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	"github.com/ternarybob/quaestor/internal/services/ranking"
)

// skipExtensions are document types the crawler does not render. Matched
// against the path portion of the normalized URL so a trailing query string
// cannot mask an extension.
var skipExtensions = []string{".pdf", ".csv", ".xml", ".md", ".txt", ".rtf"}

// worker runs the dequeue/process loop until the frontier reports
// quiescence. Processing errors are logged and recorded on the page row;
// they never stop the loop.
func (e *Engine) worker(ctx context.Context, id int, renderer interfaces.Renderer) {
	for {
		item, ok := e.frontier.Dequeue()
		if !ok {
			e.logger.Debug().Int("worker", id).Msg("Worker exiting, frontier drained")
			return
		}

		if err := e.processURL(ctx, id, renderer, item); err != nil {
			e.logger.Warn().Int("worker", id).Str("url", item.URL).Err(err).Msg("Failed to process URL")
		}

		// The child enqueues for this URL have all completed by now, so
		// the quiescence gate may observe the decrement.
		e.frontier.Done()
	}
}

// processURL runs the full pipeline for one URL: render, extract, compare
// the link-list hash with the pre-run page row, classify and persist when
// changed, then feed admitted children back into the frontier.
func (e *Engine) processURL(ctx context.Context, workerID int, renderer interfaces.Renderer, item QueueItem) error {
	e.logger.Info().Int("worker", workerID).Int("depth", item.Depth).Str("url", item.URL).Msg("Crawling")

	if hasSkipExtension(item.URL) {
		e.logger.Info().Int("worker", workerID).Str("url", item.URL).Msg("Skipping document URL")
		e.countSkipped()
		e.publish(models.CrawlEvent{Type: models.EventPageSkipped, URL: item.URL, Depth: item.Depth})
		return nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	html, err := renderer.Render(ctx, item.URL)
	if err != nil {
		return e.failPage(ctx, item, err)
	}

	links, err := e.extractor.Extract(html)
	if err != nil {
		return e.failPage(ctx, item, err)
	}

	hash, err := HashLinks(links)
	if err != nil {
		return e.failPage(ctx, item, err)
	}

	// Two-phase upsert: the empty hash obtains the page id so link rows
	// can reference it while the page is in flight; a crash before
	// finalization leaves the incomplete marker behind.
	page, err := e.store.Pages().UpsertPage(ctx, e.site.ID, item.URL, "", e.crawlTime, "")
	if err != nil {
		e.countFailed()
		return err
	}

	cached := e.cache[item.URL]
	changed := cached == nil || cached.Hash == "" || cached.Hash != hash

	var procErr error
	if changed && len(links) > 0 {
		procErr = e.processLinks(ctx, page, links)
	} else if !changed {
		e.logger.Info().Int("worker", workerID).Str("url", item.URL).Msg("No changes detected")
	}

	if procErr != nil {
		e.countFailed()
		if updateErr := e.store.Pages().UpdatePageError(ctx, page.ID, procErr.Error()); updateErr != nil {
			e.logger.Error().Err(updateErr).Str("url", item.URL).Msg("Failed to record page error")
		}
		e.publish(models.CrawlEvent{Type: models.EventPageFailed, URL: item.URL, Depth: item.Depth, Error: procErr.Error()})
	} else {
		if err := e.store.Pages().UpdatePageHash(ctx, page.ID, hash); err != nil {
			e.countFailed()
			return err
		}
		e.countCrawled()
		e.publish(models.CrawlEvent{
			Type:      models.EventPageCrawled,
			URL:       item.URL,
			Depth:     item.Depth,
			Hash:      hash,
			Changed:   changed,
			LinkCount: len(links),
		})
	}

	// Children are enqueued regardless of link-processing failures; the
	// frontier still needs them to finish the traversal.
	e.enqueueChildren(workerID, links, item.Depth+1)

	return procErr
}

// failPage records a render or parse failure on the page row. The upsert
// backdates crawl_time by one second so the row falls below the stale
// threshold and is re-attempted next run.
func (e *Engine) failPage(ctx context.Context, item QueueItem, cause error) error {
	e.countFailed()
	e.publish(models.CrawlEvent{Type: models.EventPageFailed, URL: item.URL, Depth: item.Depth, Error: cause.Error()})
	if _, err := e.store.Pages().UpsertPage(ctx, e.site.ID, item.URL, "", e.crawlTime, cause.Error()); err != nil {
		e.logger.Error().Err(err).Str("url", item.URL).Msg("Failed to record page failure")
	}
	return cause
}

// processLinks classifies, ranks, and persists the page's links. Links whose
// aggregate score is zero are dropped by the ranker.
func (e *Engine) processLinks(ctx context.Context, page *models.Page, links []models.ExtractedLink) error {
	classified, err := e.classifier.ClassifyLinks(ctx, links)
	if err != nil {
		return err
	}

	ranked := ranking.RankLinks(classified, e.vocab)
	stored := 0
	for _, link := range ranked {
		_, err := e.store.Links().UpsertLink(ctx, &models.Link{
			SiteID:    e.site.ID,
			PageID:    page.ID,
			URL:       link.URL,
			Text:      link.Text,
			Score:     link.Score,
			Keywords:  link.Keywords,
			CrawlTime: e.crawlTime,
		})
		if err != nil {
			return err
		}
		stored++
	}

	if stored > 0 {
		e.countLinks(stored)
		e.publish(models.CrawlEvent{Type: models.EventLinksStored, URL: page.URL, LinkCount: stored})
	}
	return nil
}

// enqueueChildren feeds extracted links that pass the admission predicate
// back into the frontier at the next depth.
func (e *Engine) enqueueChildren(workerID int, links []models.ExtractedLink, depth int) {
	for _, link := range links {
		if !e.gate.Admit(link.URL, depth) {
			continue
		}
		if e.frontier.Enqueue(link.URL, depth) {
			e.logger.Debug().
				Int("worker", workerID).
				Int("depth", depth).
				Str("text", link.Text).
				Str("url", link.URL).
				Msg("Enqueued")
		}
	}
}

func hasSkipExtension(rawURL string) bool {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	lower := strings.ToLower(path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
