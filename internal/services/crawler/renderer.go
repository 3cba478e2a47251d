package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
)

// accessDeniedMarker is the literal some anti-bot layers serve instead of
// the page. A profile that triggers it is abandoned for the next one.
const accessDeniedMarker = "Access Denied"

// stealthScript runs in every new document before page scripts, masking the
// most common headless fingerprints (navigator.webdriver, empty plugin and
// language lists).
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
`

// browserProfile is one fingerprint the renderer can present. Sites differ
// in which fingerprints they block, so profiles are tried in a fixed order
// and the first that renders without an access denial sticks.
type browserProfile struct {
	name      string
	userAgent string
	platform  string
}

var defaultProfiles = []browserProfile{
	{
		name:      "chrome",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		platform:  "Win32",
	},
	{
		name:      "safari",
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		platform:  "MacIntel",
	},
	{
		name:      "firefox",
		userAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		platform:  "Linux x86_64",
	},
}

// profileSession is one live browser for one profile. Tabs are opened per
// URL and torn down on every exit path; the browser itself is reused for
// the worker's lifetime.
type profileSession struct {
	browserCtx  context.Context
	browserStop context.CancelFunc
	allocStop   context.CancelFunc
}

// ChromeRenderer implements interfaces.Renderer on headless Chrome via
// chromedp. Each worker owns one renderer; it is not safe for concurrent
// use by multiple goroutines.
type ChromeRenderer struct {
	config   *common.CrawlerConfig
	profiles []browserProfile
	sessions map[string]*profileSession
	current  int // index of the profile that last worked
	timeout  time.Duration
	mu       sync.Mutex
	logger   arbor.ILogger
}

// NewChromeRenderer creates a renderer from crawler configuration. Browsers
// are started lazily on first use of each profile.
func NewChromeRenderer(config *common.CrawlerConfig, logger arbor.ILogger) *ChromeRenderer {
	timeout := config.RenderTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChromeRenderer{
		config:   config,
		profiles: defaultProfiles,
		sessions: make(map[string]*profileSession),
		timeout:  timeout,
		logger:   logger,
	}
}

// Render loads the URL with the current profile and falls through the
// remaining profiles on access denial. It fails only when every profile is
// rejected or errors.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < len(r.profiles); attempt++ {
		profile := r.profiles[(r.current+attempt)%len(r.profiles)]

		html, denied, err := r.renderWith(ctx, profile, url)
		if err != nil {
			lastErr = err
			r.logger.Debug().Err(err).Str("profile", profile.name).Str("url", url).Msg("Render attempt failed")
			continue
		}
		if denied {
			lastErr = fmt.Errorf("profile %s blocked: page contains %q", profile.name, accessDeniedMarker)
			r.logger.Debug().Str("profile", profile.name).Str("url", url).Msg("Access denied, trying next profile")
			r.closeSession(profile.name)
			continue
		}

		r.current = (r.current + attempt) % len(r.profiles)
		return html, nil
	}

	return "", fmt.Errorf("all browser profiles failed for %s: %w", url, lastErr)
}

// renderWith opens a fresh tab in the profile's browser, navigates with the
// render timeout, and returns the final HTML plus whether the page carries
// the access-denied marker. The tab is closed on every exit path.
func (r *ChromeRenderer) renderWith(ctx context.Context, profile browserProfile, url string) (html string, denied bool, err error) {
	session, err := r.session(profile)
	if err != nil {
		return "", false, err
	}

	tabCtx, closeTab := chromedp.NewContext(session.browserCtx)
	defer closeTab()

	tabCtx, cancel := context.WithTimeout(tabCtx, r.timeout)
	defer cancel()

	// Propagate caller cancellation into the tab.
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				cancel()
			case <-tabCtx.Done():
			}
		}()
	}

	var title string
	err = chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Give client-side frameworks a beat to hydrate their markup.
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to render %s: %w", url, err)
	}

	if strings.Contains(title, accessDeniedMarker) || strings.Contains(html, accessDeniedMarker) {
		return "", true, nil
	}
	return html, false, nil
}

// session returns the live browser for a profile, starting one on first use.
func (r *ChromeRenderer) session(profile browserProfile) (*profileSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[profile.name]; ok {
		return s, nil
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(profile.userAgent),
	)
	if r.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.config.ChromePath))
	}
	if r.config.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(r.config.ProfileDir+"-"+profile.name))
	}

	allocCtx, allocStop := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	// Start the browser now so a broken Chrome install fails fast.
	probeCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserStop()
		allocStop()
		return nil, fmt.Errorf("failed to start browser for profile %s: %w", profile.name, err)
	}

	s := &profileSession{
		browserCtx:  browserCtx,
		browserStop: browserStop,
		allocStop:   allocStop,
	}
	r.sessions[profile.name] = s

	r.logger.Debug().Str("profile", profile.name).Msg("Browser session started")
	return s, nil
}

func (r *ChromeRenderer) closeSession(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[name]; ok {
		s.browserStop()
		s.allocStop()
		delete(r.sessions, name)
	}
}

// Close tears down every browser session.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, s := range r.sessions {
		s.browserStop()
		s.allocStop()
		delete(r.sessions, name)
	}
	return nil
}
