package crawler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"github.com/ternarybob/arbor"
)

// Gate is the admission predicate evaluated before any URL is enqueued:
// robots.txt for the wildcard agent, exact host match against the seed,
// path-component cap, and depth cap. The per-run count cap lives in the
// Frontier, where it shares the queue lock.
type Gate struct {
	group         *robotstxt.Group
	host          string
	maxComponents int
	maxDepth      int
	logger        arbor.ILogger
}

// NewGate fetches and parses the site's robots.txt once for the run. Any
// failure along the way (network, status, unparseable file) degrades to an
// allow-all policy rather than blocking the crawl.
func NewGate(ctx context.Context, base *url.URL, userAgent string, maxComponents, maxDepth int, logger arbor.ILogger) *Gate {
	g := &Gate{
		host:          base.Host,
		maxComponents: maxComponents,
		maxDepth:      maxDepth,
		logger:        logger,
	}

	robotsURL := base.Scheme + "://" + base.Host + "/robots.txt"
	data, err := fetchRobots(ctx, robotsURL, userAgent)
	if err != nil {
		logger.Warn().Err(err).Str("url", robotsURL).Msg("Failed to fetch robots.txt, allowing all paths")
		return g
	}

	robots, err := robotstxt.FromBytes(data)
	if err != nil {
		logger.Warn().Err(err).Str("url", robotsURL).Msg("Failed to parse robots.txt, allowing all paths")
		return g
	}

	g.group = robots.FindGroup("*")
	logger.Debug().Str("url", robotsURL).Msg("robots.txt loaded")
	return g
}

func fetchRobots(ctx context.Context, robotsURL, userAgent string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 4xx means no robots policy; treat like an empty (allow-all) file.
	if resp.StatusCode >= 500 {
		return nil, io.EOF
	}
	if resp.StatusCode >= 400 {
		return nil, nil
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// Admit evaluates the admission predicate for an already-normalized URL at
// the given enqueue depth.
func (g *Gate) Admit(normalizedURL string, depth int) bool {
	if depth > g.maxDepth {
		return false
	}

	u, err := url.Parse(normalizedURL)
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Host, g.host) {
		return false
	}
	if pathComponents(u.Path) > g.maxComponents {
		return false
	}
	return g.Allowed(u)
}

// Allowed checks only the robots.txt policy for a URL's path.
func (g *Gate) Allowed(u *url.URL) bool {
	if g.group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return g.group.Test(path)
}
