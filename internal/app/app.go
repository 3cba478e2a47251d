// Package app wires configuration, storage, the LLM provider, and the crawl
// engine into one container shared by the CLI, the HTTP server, and the
// scheduler.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	"github.com/ternarybob/quaestor/internal/services/classifier"
	"github.com/ternarybob/quaestor/internal/services/crawler"
	"github.com/ternarybob/quaestor/internal/services/llm"
	"github.com/ternarybob/quaestor/internal/storage/sqlite"
)

// App holds the application's long-lived services. One crawl run executes at
// a time; concurrent triggers receive interfaces.ErrCrawlBusy.
type App struct {
	Config     *common.Config
	Logger     arbor.ILogger
	Storage    interfaces.StorageManager
	Provider   interfaces.LLMProvider
	Classifier interfaces.Classifier

	events interfaces.EventSink

	runMu        sync.Mutex
	running      bool
	currentRunID string
}

// New initializes storage and the configured LLM provider.
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := sqlite.NewManager(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	provider, err := llm.NewProvider(ctx, config, logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	return &App{
		Config:     config,
		Logger:     logger,
		Storage:    storage,
		Provider:   provider,
		Classifier: classifier.NewService(provider, models.DefaultVocabulary(), logger),
	}, nil
}

// SetEventSink installs the sink crawl events are published to (the
// WebSocket broadcaster in serve mode). A nil sink disables publishing.
func (a *App) SetEventSink(sink interfaces.EventSink) {
	a.events = sink
}

// RunCrawl executes a full crawl synchronously and returns its summary.
// Implements interfaces.CrawlRunner.
func (a *App) RunCrawl(ctx context.Context, opts models.CrawlOptions) (*models.CrawlSummary, error) {
	runID := common.NewRunID()
	if !a.beginRun(runID) {
		return nil, interfaces.ErrCrawlBusy
	}
	defer a.endRun()
	return a.runCrawl(ctx, runID, opts)
}

// StartCrawl launches a crawl in the background and returns its run id
// immediately; used by the HTTP trigger.
func (a *App) StartCrawl(opts models.CrawlOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	runID := common.NewRunID()
	if !a.beginRun(runID) {
		return "", interfaces.ErrCrawlBusy
	}

	common.SafeGo(a.Logger, "crawl-"+runID, func() {
		defer a.endRun()
		if _, err := a.runCrawl(context.Background(), runID, opts); err != nil {
			a.Logger.Error().Err(err).Str("run_id", runID).Msg("Background crawl failed")
		}
	})

	return runID, nil
}

// CurrentRunID returns the id of the run in progress, or "" when idle.
func (a *App) CurrentRunID() string {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if !a.running {
		return ""
	}
	return a.currentRunID
}

func (a *App) runCrawl(ctx context.Context, runID string, opts models.CrawlOptions) (*models.CrawlSummary, error) {
	crawlerConfig := a.Config.Crawler

	engine, err := crawler.NewEngine(crawler.EngineConfig{
		Options:    opts,
		Storage:    a.Storage,
		Classifier: a.Classifier,
		NewRenderer: func() (interfaces.Renderer, error) {
			return crawler.NewChromeRenderer(&crawlerConfig, a.Logger), nil
		},
		Vocabulary: models.DefaultVocabulary(),
		Events:     a.events,
		UserAgent:  crawlerConfig.UserAgent,
		RunID:      runID,
		Logger:     a.Logger,
	})
	if err != nil {
		return nil, err
	}

	return engine.Run(ctx)
}

func (a *App) beginRun(runID string) bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.running {
		return false
	}
	a.running = true
	a.currentRunID = runID
	return true
}

func (a *App) endRun() {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	a.running = false
	a.currentRunID = ""
}

// Close releases the provider and storage.
func (a *App) Close() error {
	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
