package interfaces

import "errors"

// ErrCrawlBusy is returned by CrawlRunner implementations when a run is
// already in progress; runs never overlap.
var ErrCrawlBusy = errors.New("a crawl run is already in progress")
