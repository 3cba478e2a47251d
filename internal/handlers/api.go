package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	pkgmodels "github.com/ternarybob/quaestor/pkg/models"
)

// defaultLinkLimit caps link listings when the caller does not pass one.
const defaultLinkLimit = 100

// APIHandler serves the read-only site/page/link endpoints plus the ambient
// health, version, and status routes.
type APIHandler struct {
	storage interfaces.StorageManager
	status  func() pkgmodels.StatusResponse
	logger  arbor.ILogger
}

// NewAPIHandler creates the read-only API handler. statusFn supplies the
// live server state for /api/status.
func NewAPIHandler(storage interfaces.StorageManager, statusFn func() pkgmodels.StatusResponse, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		storage: storage,
		status:  statusFn,
		logger:  logger,
	}
}

// ListSitesHandler handles GET /api/sites.
func (h *APIHandler) ListSitesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	sites, err := h.storage.Sites().ListSites(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list sites")
		WriteError(w, http.StatusInternalServerError, "Failed to list sites")
		return
	}

	out := make([]pkgmodels.SiteResponse, 0, len(sites))
	for _, s := range sites {
		out = append(out, siteResponse(s))
	}
	WriteJSON(w, http.StatusOK, out)
}

// SiteRoutesHandler dispatches GET /api/sites/{id}[/pages[/{pageID}[/links]]]
// and /api/sites/{id}/links.
func (h *APIHandler) SiteRoutesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	siteID, ok := PathID("/api/sites/", r.URL.Path)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid site id")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/sites/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1:
		h.getSite(w, r, siteID)
	case len(parts) == 2 && parts[1] == "pages":
		h.listPages(w, r, siteID)
	case len(parts) == 2 && parts[1] == "links":
		h.listSiteLinks(w, r, siteID)
	case len(parts) == 3 && parts[1] == "pages":
		if pageID, ok := PathID("/api/sites/"+parts[0]+"/pages/", r.URL.Path); ok {
			h.getPage(w, r, siteID, pageID)
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid page id")
	case len(parts) == 4 && parts[1] == "pages" && parts[3] == "links":
		if pageID, ok := PathID("/api/sites/"+parts[0]+"/pages/", r.URL.Path); ok {
			h.listPageLinks(w, r, siteID, pageID)
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid page id")
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (h *APIHandler) getSite(w http.ResponseWriter, r *http.Request, siteID int64) {
	site, err := h.storage.Sites().GetSite(r.Context(), siteID)
	if err != nil {
		h.logger.Error().Err(err).Int64("site_id", siteID).Msg("Failed to get site")
		WriteError(w, http.StatusInternalServerError, "Failed to get site")
		return
	}
	if site == nil {
		WriteError(w, http.StatusNotFound, "Site not found")
		return
	}
	WriteJSON(w, http.StatusOK, siteResponse(site))
}

func (h *APIHandler) listPages(w http.ResponseWriter, r *http.Request, siteID int64) {
	pages, err := h.storage.Pages().ListPagesForSite(r.Context(), siteID)
	if err != nil {
		h.logger.Error().Err(err).Int64("site_id", siteID).Msg("Failed to list pages")
		WriteError(w, http.StatusInternalServerError, "Failed to list pages")
		return
	}

	out := make([]pkgmodels.PageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageResponse(p))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *APIHandler) getPage(w http.ResponseWriter, r *http.Request, siteID, pageID int64) {
	page, err := h.storage.Pages().GetPage(r.Context(), pageID)
	if err != nil {
		h.logger.Error().Err(err).Int64("page_id", pageID).Msg("Failed to get page")
		WriteError(w, http.StatusInternalServerError, "Failed to get page")
		return
	}
	if page == nil || page.SiteID != siteID {
		WriteError(w, http.StatusNotFound, "Page not found")
		return
	}
	WriteJSON(w, http.StatusOK, pageResponse(page))
}

func (h *APIHandler) listSiteLinks(w http.ResponseWriter, r *http.Request, siteID int64) {
	keyword := r.URL.Query().Get("keyword")
	limit := QueryInt(r, "limit", defaultLinkLimit)

	links, err := h.storage.Links().ListLinksForSite(r.Context(), siteID, keyword, limit)
	if err != nil {
		h.logger.Error().Err(err).Int64("site_id", siteID).Msg("Failed to list links")
		WriteError(w, http.StatusInternalServerError, "Failed to list links")
		return
	}
	WriteJSON(w, http.StatusOK, linkResponses(links))
}

func (h *APIHandler) listPageLinks(w http.ResponseWriter, r *http.Request, siteID, pageID int64) {
	links, err := h.storage.Links().ListLinksForPage(r.Context(), siteID, pageID)
	if err != nil {
		h.logger.Error().Err(err).Int64("page_id", pageID).Msg("Failed to list page links")
		WriteError(w, http.StatusInternalServerError, "Failed to list links")
		return
	}
	WriteJSON(w, http.StatusOK, linkResponses(links))
}

// HealthHandler handles GET /api/health.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VersionHandler handles GET /api/version.
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// StatusHandler handles GET /api/status.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.status())
}

// NotFoundHandler is the fallback for unmatched /api/ routes.
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}

func siteResponse(s *models.Site) pkgmodels.SiteResponse {
	return pkgmodels.SiteResponse{ID: s.ID, URL: s.URL, CrawlTime: s.CrawlTime}
}

func pageResponse(p *models.Page) pkgmodels.PageResponse {
	return pkgmodels.PageResponse{
		ID:        p.ID,
		SiteID:    p.SiteID,
		URL:       p.URL,
		Hash:      p.Hash,
		CrawlTime: p.CrawlTime,
		Error:     p.Error,
	}
}

func linkResponses(links []*models.Link) []pkgmodels.LinkResponse {
	out := make([]pkgmodels.LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, pkgmodels.LinkResponse{
			ID:        l.ID,
			SiteID:    l.SiteID,
			PageID:    l.PageID,
			URL:       l.URL,
			Text:      l.Text,
			Score:     l.Score,
			Keywords:  DecodeKeywords(l.Keywords),
			CrawlTime: l.CrawlTime,
		})
	}
	return out
}
