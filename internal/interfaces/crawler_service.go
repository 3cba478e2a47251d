package interfaces

import (
	"context"

	"github.com/ternarybob/quaestor/internal/models"
)

// Renderer - headless browser adapter returning a page's final HTML
type Renderer interface {
	// Render loads the URL, executes its JavaScript, and returns the
	// resulting document HTML. Implementations try their browser profiles
	// in order and fail only when every profile is rejected.
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// Classifier - LLM adapter scoring links against the keyword vocabulary
type Classifier interface {
	// ClassifyLinks sends one batched prompt for the page's links and
	// returns the validated keyword scores. Items that cannot be coerced
	// to the expected shape are discarded; out-of-vocabulary keywords that
	// survive remediation are returned as-is for the ranker to down-weight.
	ClassifyLinks(ctx context.Context, links []models.ExtractedLink) ([]models.ClassifiedLink, error)
}

// EventSink receives crawl lifecycle events. Implementations must not
// block; the engine publishes best-effort.
type EventSink interface {
	Publish(event models.CrawlEvent)
}

// CrawlRunner starts crawl runs; implemented by the app layer and consumed
// by the HTTP crawl trigger and the scheduler.
type CrawlRunner interface {
	// RunCrawl executes a full crawl for the given options, returning the
	// run summary. Only one run executes at a time; concurrent callers
	// receive ErrCrawlBusy from the implementation.
	RunCrawl(ctx context.Context, opts models.CrawlOptions) (*models.CrawlSummary, error)
}
