// Package llm provides LLM provider adapters used by the link classifier.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
)

// NewProvider constructs the configured LLM provider.
func NewProvider(ctx context.Context, config *common.Config, logger arbor.ILogger) (interfaces.LLMProvider, error) {
	provider := config.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	apiKey, err := common.ResolveAPIKey(config, provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case common.LLMProviderClaude:
		return NewClaudeProvider(&config.Claude, apiKey, logger)
	case common.LLMProviderGemini:
		return NewGeminiProvider(ctx, &config.Gemini, apiKey, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}

// generateWithRetry invokes fn, retrying on rate-limit errors with the
// configured exponential backoff. Any other error propagates immediately.
func generateWithRetry(ctx context.Context, logger arbor.ILogger, retry *RetryConfig, provider string, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < retry.MaxAttempts; attempt++ {
		text, err := fn()
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRateLimitError(err) {
			return "", err
		}
		if attempt == retry.MaxAttempts-1 {
			break
		}

		backoff := retry.CalculateBackoff(attempt, ExtractRetryDelay(err))
		logger.Warn().
			Str("provider", provider).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Rate limited, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("%s rate limited after %d attempts: %w", provider, retry.MaxAttempts, lastErr)
}

// parseDurationOrDefault parses a config duration string, falling back when
// empty or invalid.
func parseDurationOrDefault(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
