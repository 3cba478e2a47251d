// Package scheduler runs recurring crawls of registered sites on cron
// schedules in serve mode.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

// Service schedules crawl runs for the site definitions loaded from the
// configured YAML file. A fire that lands while another run is active is
// skipped, not queued.
type Service struct {
	config *common.Config
	runner interfaces.CrawlRunner
	cron   *cron.Cron
	logger arbor.ILogger
}

// sitesFile is the on-disk shape of the site definitions file.
type sitesFile struct {
	Sites []models.SiteDefinition `yaml:"sites"`
}

// NewService creates a scheduler over the given crawl runner.
func NewService(config *common.Config, runner interfaces.CrawlRunner, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		runner: runner,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start loads the site definitions and begins firing their schedules.
func (s *Service) Start() error {
	sites, err := LoadSiteDefinitions(s.config.Scheduler.SitesFile)
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		s.logger.Warn().Str("file", s.config.Scheduler.SitesFile).Msg("No site definitions, scheduler idle")
		return nil
	}

	for _, site := range sites {
		def := site
		entryID, err := s.cron.AddFunc(def.Schedule, func() {
			s.runScheduled(def)
		})
		if err != nil {
			return fmt.Errorf("invalid schedule %q for site %q: %w", def.Schedule, def.Name, err)
		}
		s.logger.Info().
			Str("site", def.Name).
			Str("url", def.URL).
			Str("schedule", def.Schedule).
			Int("entry", int(entryID)).
			Msg("Scheduled site registered")
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop; in-flight runs finish on their own.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Service) runScheduled(def models.SiteDefinition) {
	opts := s.buildOptions(def)

	s.logger.Info().Str("site", def.Name).Str("url", def.URL).Msg("Scheduled crawl starting")

	summary, err := s.runner.RunCrawl(context.Background(), opts)
	if err != nil {
		if errors.Is(err, interfaces.ErrCrawlBusy) {
			s.logger.Warn().Str("site", def.Name).Msg("Skipping scheduled crawl, another run is active")
			return
		}
		s.logger.Error().Err(err).Str("site", def.Name).Msg("Scheduled crawl failed")
		return
	}

	s.logger.Info().
		Str("site", def.Name).
		Str("run_id", summary.RunID).
		Int("pages", summary.PagesCrawled).
		Int("links", summary.LinksStored).
		Msg("Scheduled crawl complete")
}

// buildOptions merges a site definition's overrides onto the configured
// crawler defaults.
func (s *Service) buildOptions(def models.SiteDefinition) models.CrawlOptions {
	opts := s.config.CrawlOptions(def.URL)
	if def.Workers > 0 {
		opts.Workers = def.Workers
	}
	if def.MaxDepth > 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if def.MaxComponents > 0 {
		opts.MaxComponents = def.MaxComponents
	}
	if def.MaxCount > 0 {
		opts.MaxCount = def.MaxCount
	}
	if def.StaleHours > 0 {
		opts.StaleHours = def.StaleHours
	}
	return opts
}

// LoadSiteDefinitions reads and validates the site definitions YAML file.
// The file holds either a bare list or a {sites: [...]} document.
func LoadSiteDefinitions(path string) ([]models.SiteDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site definitions %s: %w", path, err)
	}

	var wrapped sitesFile
	if err := yaml.Unmarshal(data, &wrapped); err != nil || len(wrapped.Sites) == 0 {
		var bare []models.SiteDefinition
		if bareErr := yaml.Unmarshal(data, &bare); bareErr == nil && len(bare) > 0 {
			wrapped.Sites = bare
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse site definitions %s: %w", path, err)
		}
	}

	for i := range wrapped.Sites {
		if err := wrapped.Sites[i].Validate(); err != nil {
			return nil, err
		}
	}
	return wrapped.Sites, nil
}
