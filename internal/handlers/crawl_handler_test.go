package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
	pkgmodels "github.com/ternarybob/quaestor/pkg/models"
)

type stubStarter struct {
	opts  []models.CrawlOptions
	runID string
	err   error
}

func (s *stubStarter) StartCrawl(opts models.CrawlOptions) (string, error) {
	s.opts = append(s.opts, opts)
	if s.err != nil {
		return "", s.err
	}
	return s.runID, nil
}

func (s *stubStarter) CurrentRunID() string { return "" }

func postCrawl(t *testing.T, handler *CrawlHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/crawl", strings.NewReader(body))
	handler.StartCrawlHandler(w, r)
	return w
}

func newCrawlHandler(starter *stubStarter) *CrawlHandler {
	return NewCrawlHandler(starter, common.NewDefaultConfig(), arbor.NewLogger())
}

func TestStartCrawlHandlerAccepts(t *testing.T) {
	starter := &stubStarter{runID: "run-42"}
	handler := newCrawlHandler(starter)

	w := postCrawl(t, handler, `{"url": "https://example.gov", "workers": 2, "max_depth": 3}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp pkgmodels.CrawlResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-42", resp.RunID)
	assert.Equal(t, "accepted", resp.Status)

	require.Len(t, starter.opts, 1)
	opts := starter.opts[0]
	assert.Equal(t, "https://example.gov", opts.SeedURL)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 3, opts.MaxDepth)
	// Omitted fields keep the configured defaults
	assert.Equal(t, 24, opts.StaleHours)
}

func TestStartCrawlHandlerValidation(t *testing.T) {
	starter := &stubStarter{runID: "run-42"}
	handler := newCrawlHandler(starter)

	assert.Equal(t, http.StatusBadRequest, postCrawl(t, handler, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, postCrawl(t, handler, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postCrawl(t, handler, `{"url": "ftp://example.gov"}`).Code)
	assert.Empty(t, starter.opts)

	w := httptest.NewRecorder()
	handler.StartCrawlHandler(w, httptest.NewRequest(http.MethodGet, "/api/crawl", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStartCrawlHandlerBusy(t *testing.T) {
	starter := &stubStarter{err: interfaces.ErrCrawlBusy}
	handler := newCrawlHandler(starter)

	w := postCrawl(t, handler, `{"url": "https://example.gov"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartCrawlHandlerMaxURLParamsPassthrough(t *testing.T) {
	starter := &stubStarter{runID: "run-42"}
	handler := newCrawlHandler(starter)

	w := postCrawl(t, handler, `{"url": "https://example.gov", "max_url_params": 0}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Len(t, starter.opts, 1)
	require.NotNil(t, starter.opts[0].MaxURLParams)
	assert.Equal(t, 0, *starter.opts[0].MaxURLParams)
}
