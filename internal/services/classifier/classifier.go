// Package classifier scores extracted links against the fixed keyword
// vocabulary through an LLM provider, validating the response and running
// the two-round remediation protocol on malformed or out-of-vocabulary
// output.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/models"
)

// Service implements interfaces.Classifier on an LLM provider.
type Service struct {
	provider interfaces.LLMProvider
	vocab    models.Vocabulary
	logger   arbor.ILogger
}

// NewService creates a classifier over the given provider and vocabulary.
func NewService(provider interfaces.LLMProvider, vocab models.Vocabulary, logger arbor.ILogger) *Service {
	if vocab == nil {
		vocab = models.DefaultVocabulary()
	}
	return &Service{
		provider: provider,
		vocab:    vocab,
		logger:   logger,
	}
}

// ClassifyLinks sends one batched prompt for the page's links and returns
// the validated keyword scores.
//
// Remediation runs up to two rounds by replaying the conversation with the
// model's previous reply embedded: round 1 re-asks for the required format
// after a parse or validation failure, round 2 asks the model to remap or
// drop out-of-vocabulary keywords. Providers without continuation support
// propagate the first malformed response; out-of-vocabulary keywords that
// survive all rounds are returned as-is for the ranker to down-weight.
func (s *Service) ClassifyLinks(ctx context.Context, links []models.ExtractedLink) ([]models.ClassifiedLink, error) {
	if len(links) == 0 {
		return nil, nil
	}

	prompt, err := buildPrompt(s.vocab, links)
	if err != nil {
		return nil, err
	}

	history := []interfaces.Message{{Role: "user", Content: prompt}}
	reply, err := s.provider.GenerateContent(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}

	classified, err := parseResponse(reply)
	if err != nil {
		if !s.provider.SupportsContinuation() {
			return nil, fmt.Errorf("invalid classifier response: %w", err)
		}

		s.logger.Warn().Err(err).Msg("Invalid classifier response, requesting reformat")
		history = append(history,
			interfaces.Message{Role: "assistant", Content: reply},
			interfaces.Message{Role: "user", Content: invalidFormatPrompt},
		)
		reply, err = s.provider.GenerateContent(ctx, history)
		if err != nil {
			return nil, fmt.Errorf("format remediation request failed: %w", err)
		}
		classified, err = parseResponse(reply)
		if err != nil {
			return nil, fmt.Errorf("classifier response invalid after remediation: %w", err)
		}
	}

	invalid := s.invalidKeywords(classified)
	if len(invalid) > 0 && s.provider.SupportsContinuation() {
		s.logger.Warn().Strs("keywords", invalid).Msg("Out-of-vocabulary keywords, requesting remap")
		history = append(history,
			interfaces.Message{Role: "assistant", Content: reply},
			interfaces.Message{Role: "user", Content: outOfVocabularyPrompt(s.vocab, invalid)},
		)
		retryReply, err := s.provider.GenerateContent(ctx, history)
		if err != nil {
			return nil, fmt.Errorf("vocabulary remediation request failed: %w", err)
		}
		if remapped, perr := parseResponse(retryReply); perr == nil {
			classified = remapped
			if still := s.invalidKeywords(classified); len(still) > 0 {
				s.logger.Warn().Strs("keywords", still).Msg("Out-of-vocabulary keywords survive remediation, down-weighting")
			}
		} else {
			// Keep the earlier valid parse; the stray keywords get the
			// penalty weight at ranking time.
			s.logger.Warn().Err(perr).Msg("Vocabulary remediation reply unparseable, keeping previous response")
		}
	}

	return classified, nil
}

// invalidKeywords collects the distinct keywords used by the response that
// are not part of the vocabulary.
func (s *Service) invalidKeywords(links []models.ClassifiedLink) []string {
	seen := make(map[string]bool)
	for _, link := range links {
		for kw := range link.Keywords {
			if _, ok := s.vocab.Weight(kw); !ok {
				seen[kw] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	invalid := make([]string, 0, len(seen))
	for kw := range seen {
		invalid = append(invalid, kw)
	}
	sort.Strings(invalid)
	return invalid
}

// parseResponse parses the model's reply into classified links. A single
// object is promoted to a singleton list. Items that cannot be coerced to
// {url string, text string, keywords map[string]number} fail validation; if
// at least one item survives alongside failures, the failures are dropped
// rather than discarding the batch.
func parseResponse(reply string) ([]models.ClassifiedLink, error) {
	text := stripCodeFences(reply)

	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		// Single-object replies happen when only one link matched.
		items = []any{v}
	default:
		return nil, fmt.Errorf("expected JSON list or object, got %T", raw)
	}

	links := make([]models.ClassifiedLink, 0, len(items))
	var firstErr error
	for i, item := range items {
		link, err := coerceItem(item)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("item %d: %w", i, err)
			}
			continue
		}
		links = append(links, link)
	}

	if len(links) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return links, nil
}

func coerceItem(item any) (models.ClassifiedLink, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return models.ClassifiedLink{}, fmt.Errorf("not an object")
	}

	url, ok := obj["url"].(string)
	if !ok || url == "" {
		return models.ClassifiedLink{}, fmt.Errorf("missing url")
	}

	text, _ := obj["text"].(string)

	rawKeywords, ok := obj["keywords"].(map[string]any)
	if !ok {
		return models.ClassifiedLink{}, fmt.Errorf("missing keywords object")
	}

	keywords := make(map[string]float64, len(rawKeywords))
	for kw, val := range rawKeywords {
		score, ok := val.(float64)
		if !ok {
			return models.ClassifiedLink{}, fmt.Errorf("keyword %q has non-numeric score", kw)
		}
		keywords[kw] = score
	}

	return models.ClassifiedLink{URL: url, Text: text, Keywords: keywords}, nil
}

// stripCodeFences unwraps a reply the model insisted on fencing despite the
// prompt.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
