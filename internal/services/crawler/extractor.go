package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/models"
)

// settingsSelector identifies the embedded JSON settings blob that Drupal
// sites ship alongside their markup. Its URLs are often the only route to
// client-side navigation targets.
const settingsSelector = `script[type="application/json"][data-drupal-selector="drupal-settings-json"]`

// LinkExtractor mines (url, text) pairs from rendered HTML: every anchor
// with a non-empty href, plus string values inside the embedded settings
// JSON. Output is in document order with duplicates preserved; the page hash
// and the frontier's visited set handle deduplication downstream.
type LinkExtractor struct {
	normalizer *Normalizer
	logger     arbor.ILogger
}

// NewLinkExtractor creates an extractor for one site. Candidates are
// normalized with the same policy the enqueue path uses.
func NewLinkExtractor(base *url.URL, maxParams *int, logger arbor.ILogger) *LinkExtractor {
	return &LinkExtractor{
		normalizer: NewNormalizer(base, maxParams),
		logger:     logger,
	}
}

// Extract parses the rendered HTML and returns the normalized link list.
// Robots and domain filtering do not apply here; they are enqueue-time
// concerns.
func (le *LinkExtractor) Extract(html string) ([]models.ExtractedLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	links := make([]models.ExtractedLink, 0, 32)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		normalized, err := le.normalizer.Normalize(href)
		if err != nil {
			return
		}
		links = append(links, models.ExtractedLink{
			URL:  normalized,
			Text: collapseWhitespace(s.Text()),
		})
	})

	if blob := doc.Find(settingsSelector).First(); blob.Length() > 0 {
		settingsLinks, err := extractSettingsLinks(blob.Text())
		if err != nil {
			le.logger.Debug().Err(err).Msg("Skipping malformed settings JSON blob")
		} else {
			for _, candidate := range settingsLinks {
				normalized, err := le.normalizer.Normalize(candidate.URL)
				if err != nil {
					continue
				}
				links = append(links, models.ExtractedLink{
					URL:  normalized,
					Text: collapseWhitespace(candidate.Text),
				})
			}
		}
	}

	return links, nil
}

// collapseWhitespace trims the text and folds internal whitespace runs,
// including newlines from nested markup, into single spaces.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
