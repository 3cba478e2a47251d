// Package common provides shared configuration, logging, and runtime
// utilities used across the application.
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/quaestor/internal/models"
)

// Config is the root configuration for quaestor. Values are resolved with
// priority: defaults -> config files (in order) -> environment -> CLI flags.
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Path          string `toml:"path"`            // SQLite database file path
	CacheSizeMB   int    `toml:"cache_size_mb"`   // SQLite page cache size
	WALMode       bool   `toml:"wal_mode"`        // Write-ahead logging
	BusyTimeoutMS int    `toml:"busy_timeout_ms"` // Lock wait before SQLITE_BUSY
}

// CrawlerConfig contains defaults for crawl runs. CLI flags override these
// per invocation; scheduled sites may override them per site definition.
type CrawlerConfig struct {
	Workers       int           `toml:"workers"`        // Concurrent page workers per run
	StaleHours    int           `toml:"stale_hours"`    // Age threshold for reaping rows from prior runs
	MaxCount      int           `toml:"max_count"`      // Maximum pages per run (0 = unlimited)
	MaxURLParams  int           `toml:"max_url_params"` // Query params kept during normalization (-1 = keep all)
	MaxComponents int           `toml:"max_components"` // Maximum path segments for admitted URLs
	MaxDepth      int           `toml:"max_depth"`      // Maximum link depth from the seed
	RequestDelay  time.Duration `toml:"request_delay"`  // Minimum delay between page fetches per worker
	RenderTimeout time.Duration `toml:"render_timeout"` // Per-page render deadline
	UserAgent     string        `toml:"user_agent"`     // User agent for robots.txt fetches
	Headless      bool          `toml:"headless"`       // Run the browser headless
	ChromePath    string        `toml:"chrome_path"`    // Browser binary path ("" = auto-detect)
	ProfileDir    string        `toml:"profile_dir"`    // Persistent browser profile for the fallback renderer ("" = temp dir)
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// WebSocketConfig contains configuration for WebSocket log streaming.
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
}

// SchedulerConfig controls scheduled crawls in serve mode.
type SchedulerConfig struct {
	Enabled   bool   `toml:"enabled"`    // Run scheduled crawls (default: false)
	SitesFile string `toml:"sites_file"` // YAML file with site definitions
}

// GeminiConfig contains Google Gemini API configuration.
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for classification (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for classification (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type.
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the provider used for link classification.
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings belong in quaestor.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Path:          "./data/quaestor.db",
			CacheSizeMB:   64,   // Page cache for link-heavy sites
			WALMode:       true, // Concurrent workers write while the API reads
			BusyTimeoutMS: 5000, // Wait up to 5s before returning SQLITE_BUSY
		},
		Crawler: CrawlerConfig{
			Workers:       8,                // Concurrent page workers
			StaleHours:    24,               // Reap rows older than one day
			MaxCount:      0,                // Unlimited pages per run
			MaxURLParams:  -1,               // Keep all query parameters
			MaxComponents: 10,               // Path segment cap
			MaxDepth:      5,                // Link depth cap
			RequestDelay:  0,                // No politeness delay by default
			RenderTimeout: 15 * time.Second, // Per-page render deadline
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:      true,
			ChromePath:    "", // Auto-detect installed browser
			ProfileDir:    "", // Temp profile unless set
		},
		Logging: LoggingConfig{
			Level:  "info",                     // Info level for production (debug|info|warn|error)
			Format: "text",                     // Human-readable text format (text|json)
			Output: []string{"stdout", "file"}, // Log to both console and file
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info", // Default: info level and above
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:   false,          // User must explicitly opt in
			SitesFile: "./sites.yaml", // Site definitions with cron schedules
		},
		Gemini: GeminiConfig{
			APIKey:      "",                       // User must provide API key (GEMINI_API_KEY or config)
			Model:       "gemini-3-flash-preview", // Model for classification
			Timeout:     "2m",                     // Per-request deadline
			RateLimit:   "4s",                     // Default to 4s (15 RPM) for free tier
			Temperature: 0.2,                      // Low temperature for deterministic classification
		},
		Claude: ClaudeConfig{
			APIKey:      "",                          // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022", // Model for classification
			MaxTokens:   8192,                        // Default max tokens
			Timeout:     "2m",                        // Per-request deadline
			RateLimit:   "1s",                        // Default rate limit
			Temperature: 0.2,                         // Low temperature for deterministic classification
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files
// override earlier files; environment variables override all files.
// Example: LoadFromFiles("base.toml", "override.toml").
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: QUAESTOR_ENV, fallback: GO_ENV)
	if env := os.Getenv("QUAESTOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("QUAESTOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("QUAESTOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if path := os.Getenv("QUAESTOR_STORAGE_PATH"); path != "" {
		config.Storage.Path = path
	}

	// Crawler configuration
	if workers := os.Getenv("QUAESTOR_CRAWLER_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Crawler.Workers = w
		}
	}
	if staleHours := os.Getenv("QUAESTOR_CRAWLER_STALE_HOURS"); staleHours != "" {
		if h, err := strconv.Atoi(staleHours); err == nil {
			config.Crawler.StaleHours = h
		}
	}
	if maxCount := os.Getenv("QUAESTOR_CRAWLER_MAX_COUNT"); maxCount != "" {
		if m, err := strconv.Atoi(maxCount); err == nil {
			config.Crawler.MaxCount = m
		}
	}
	if maxParams := os.Getenv("QUAESTOR_CRAWLER_MAX_URL_PARAMS"); maxParams != "" {
		if m, err := strconv.Atoi(maxParams); err == nil {
			config.Crawler.MaxURLParams = m
		}
	}
	if maxComponents := os.Getenv("QUAESTOR_CRAWLER_MAX_COMPONENTS"); maxComponents != "" {
		if m, err := strconv.Atoi(maxComponents); err == nil {
			config.Crawler.MaxComponents = m
		}
	}
	if maxDepth := os.Getenv("QUAESTOR_CRAWLER_MAX_DEPTH"); maxDepth != "" {
		if m, err := strconv.Atoi(maxDepth); err == nil {
			config.Crawler.MaxDepth = m
		}
	}
	if delay := os.Getenv("QUAESTOR_CRAWLER_REQUEST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Crawler.RequestDelay = d
		}
	}
	if timeout := os.Getenv("QUAESTOR_CRAWLER_RENDER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Crawler.RenderTimeout = d
		}
	}
	if ua := os.Getenv("QUAESTOR_CRAWLER_USER_AGENT"); ua != "" {
		config.Crawler.UserAgent = ua
	}
	if headless := os.Getenv("QUAESTOR_CRAWLER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Crawler.Headless = h
		}
	}
	if chromePath := os.Getenv("QUAESTOR_CRAWLER_CHROME_PATH"); chromePath != "" {
		config.Crawler.ChromePath = chromePath
	}
	if profileDir := os.Getenv("QUAESTOR_CRAWLER_PROFILE_DIR"); profileDir != "" {
		config.Crawler.ProfileDir = profileDir
	}

	// Logging configuration
	if level := os.Getenv("QUAESTOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("QUAESTOR_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	// Scheduler configuration
	if enabled := os.Getenv("QUAESTOR_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if sitesFile := os.Getenv("QUAESTOR_SCHEDULER_SITES_FILE"); sitesFile != "" {
		config.Scheduler.SitesFile = sitesFile
	}

	// Gemini configuration
	if apiKey := os.Getenv("QUAESTOR_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("QUAESTOR_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("QUAESTOR_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("QUAESTOR_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("QUAESTOR_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("QUAESTOR_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("QUAESTOR_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("QUAESTOR_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("QUAESTOR_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("QUAESTOR_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("QUAESTOR_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider selection
	if provider := os.Getenv("QUAESTOR_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// CLI flags have the highest priority in the configuration hierarchy.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey returns the API key for the given provider, or an error
// describing how to supply one when none is configured.
func ResolveAPIKey(config *Config, provider LLMProvider) (string, error) {
	switch provider {
	case LLMProviderClaude:
		if config.Claude.APIKey != "" {
			return config.Claude.APIKey, nil
		}
		return "", fmt.Errorf("claude API key not configured: set ANTHROPIC_API_KEY or [claude] api_key")
	case LLMProviderGemini:
		if config.Gemini.APIKey != "" {
			return config.Gemini.APIKey, nil
		}
		return "", fmt.Errorf("gemini API key not configured: set GEMINI_API_KEY or [gemini] api_key")
	default:
		return "", fmt.Errorf("unknown LLM provider: %s", provider)
	}
}

// CrawlOptions builds per-run crawl options from the configured defaults.
// The -1 sentinel for MaxURLParams maps to nil (keep all query parameters).
func (c *Config) CrawlOptions(seedURL string) models.CrawlOptions {
	opts := models.DefaultCrawlOptions(seedURL)
	opts.Workers = c.Crawler.Workers
	opts.StaleHours = c.Crawler.StaleHours
	opts.MaxCount = c.Crawler.MaxCount
	opts.MaxComponents = c.Crawler.MaxComponents
	opts.MaxDepth = c.Crawler.MaxDepth
	opts.RequestDelay = c.Crawler.RequestDelay
	if c.Crawler.MaxURLParams >= 0 {
		limit := c.Crawler.MaxURLParams
		opts.MaxURLParams = &limit
	}
	return opts
}

// IsProduction returns true when the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
