package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/app"
	"github.com/ternarybob/quaestor/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles   configPaths // Multiple -config flags supported
	workers       = flag.Int("workers", 0, "Concurrent crawl workers (overrides config)")
	staleHours    = flag.Int("stale-hours", 0, "Stale row reaping threshold in hours (overrides config)")
	maxCount      = flag.Int("max-count", 0, "Maximum pages per run, 0 = unlimited (overrides config)")
	maxURLParams  = flag.Int("max-url-params", -1, "Query params kept during URL normalization, -1 = keep all (overrides config)")
	maxComponents = flag.Int("max-components", 0, "Maximum URL path segments (overrides config)")
	maxDepth      = flag.Int("max-depth", -1, "Maximum link depth from the seed (overrides config)")
	serverPort    = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP   = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost    = flag.String("host", "", "Server host (overrides config)")
	showVersion   = flag.Bool("version", false, "Print version information")
	showVersionV  = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  quaestor [flags] <url>     crawl a site once and exit\n")
		fmt.Fprintf(os.Stderr, "  quaestor [flags] serve     run the HTTP server\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
}

func main() {
	// Crash protection first: any panic that escapes main gets a report
	// under ./logs before the process exits
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()
	common.LoadVersionFromFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Quaestor version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Merge port flags (shorthand takes precedence)
	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("quaestor.toml"); err == nil {
			configFiles = append(configFiles, "quaestor.toml")
		} else if _, err := os.Stat("deployments/local/quaestor.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/quaestor.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, finalPort, *serverHost)
	applyCrawlerFlagOverrides(config)

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("sqlite_path", config.Storage.Path).
		Str("log_level", config.Logging.Level).
		Msg("Application configuration loaded")

	args := flag.Args()
	switch {
	case len(args) == 1 && args[0] == "serve":
		runServe()
	case len(args) == 1:
		runCrawl(args[0])
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// applyCrawlerFlagOverrides copies explicitly-set crawler flags onto the
// config. flag.Visit only reports flags the user passed, so zero values
// stay distinguishable from "not set".
func applyCrawlerFlagOverrides(config *common.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			config.Crawler.Workers = *workers
		case "stale-hours":
			config.Crawler.StaleHours = *staleHours
		case "max-count":
			config.Crawler.MaxCount = *maxCount
		case "max-url-params":
			config.Crawler.MaxURLParams = *maxURLParams
		case "max-components":
			config.Crawler.MaxComponents = *maxComponents
		case "max-depth":
			config.Crawler.MaxDepth = *maxDepth
		}
	})
}

// runCrawl executes a single crawl run against the seed URL and exits.
// Per-page failures are recorded in storage and do not fail the run.
func runCrawl(seedURL string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	opts := config.CrawlOptions(seedURL)
	if err := opts.Validate(); err != nil {
		logger.Fatal().Err(err).Str("url", seedURL).Msg("Invalid crawl options")
	}

	summary, err := application.RunCrawl(ctx, opts)
	if err != nil {
		logger.Fatal().Err(err).Str("url", seedURL).Msg("Crawl failed")
	}

	logger.Info().
		Str("run_id", summary.RunID).
		Str("site", summary.SiteURL).
		Int("pages_crawled", summary.PagesCrawled).
		Int("pages_failed", summary.PagesFailed).
		Int("pages_skipped", summary.PagesSkipped).
		Int("links_stored", summary.LinksStored).
		Int64("stale_pages", summary.StalePages).
		Int64("stale_links", summary.StaleLinks).
		Dur("duration", summary.Duration).
		Msg("Crawl complete")

	fmt.Printf("Crawled %d pages (%d failed, %d skipped), stored %d links in %s\n",
		summary.PagesCrawled, summary.PagesFailed, summary.PagesSkipped,
		summary.LinksStored, summary.Duration.Round(time.Millisecond))
}
