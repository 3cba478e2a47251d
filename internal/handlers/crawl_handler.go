package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	pkgmodels "github.com/ternarybob/quaestor/pkg/models"
)

// CrawlStarter launches a background crawl run and reports the active one.
type CrawlStarter interface {
	StartCrawl(opts models.CrawlOptions) (string, error)
	CurrentRunID() string
}

// CrawlHandler serves POST /api/crawl.
type CrawlHandler struct {
	starter CrawlStarter
	config  *common.Config
	logger  arbor.ILogger
}

// NewCrawlHandler creates the crawl trigger handler.
func NewCrawlHandler(starter CrawlStarter, config *common.Config, logger arbor.ILogger) *CrawlHandler {
	return &CrawlHandler{
		starter: starter,
		config:  config,
		logger:  logger,
	}
}

// StartCrawlHandler accepts a crawl request, merges it onto the configured
// crawler defaults, and launches the run in the background. A second trigger
// while a run is active returns 409.
func (h *CrawlHandler) StartCrawlHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req pkgmodels.CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		WriteError(w, http.StatusBadRequest, "url is required")
		return
	}

	opts := h.buildOptions(req)
	if err := opts.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := h.starter.StartCrawl(opts)
	if err != nil {
		if errors.Is(err, interfaces.ErrCrawlBusy) {
			WriteError(w, http.StatusConflict, "A crawl run is already in progress")
			return
		}
		h.logger.Error().Err(err).Str("url", req.URL).Msg("Failed to start crawl")
		WriteError(w, http.StatusInternalServerError, "Failed to start crawl")
		return
	}

	h.logger.Info().Str("run_id", runID).Str("url", req.URL).Msg("Crawl accepted")
	WriteJSON(w, http.StatusAccepted, pkgmodels.CrawlResponse{
		RunID:  runID,
		Status: "accepted",
	})
}

// buildOptions merges explicit request fields onto the configured crawler
// defaults; zero-value fields keep the defaults.
func (h *CrawlHandler) buildOptions(req pkgmodels.CrawlRequest) models.CrawlOptions {
	opts := h.config.CrawlOptions(req.URL)
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	if req.StaleHours > 0 {
		opts.StaleHours = req.StaleHours
	}
	if req.MaxCount > 0 {
		opts.MaxCount = req.MaxCount
	}
	if req.MaxURLParams != nil {
		opts.MaxURLParams = req.MaxURLParams
	}
	if req.MaxComponents > 0 {
		opts.MaxComponents = req.MaxComponents
	}
	if req.MaxDepth > 0 {
		opts.MaxDepth = req.MaxDepth
	}
	return opts
}
