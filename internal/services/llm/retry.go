package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for provider rate-limit handling.
// Only rate-limit errors are retried; other transport failures propagate
// immediately so the caller can record them against the page.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first
	MaxAttempts int

	// BaseDelay is the wait before the first retry
	BaseDelay time.Duration

	// MaxDelay caps the wait between retries
	MaxDelay time.Duration

	// Multiplier is applied to the delay on each retry
	Multiplier float64
}

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 90 * time.Second
	defaultMultiplier  = 2.0
)

// NewDefaultRetryConfig returns the rate-limit retry policy shared by all
// providers: five attempts, 2s base delay, doubling each retry.
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		Multiplier:  defaultMultiplier,
	}
}

// IsRateLimitError checks whether an error is a provider rate-limit error.
// Matches 429 status codes, Gemini RESOURCE_EXHAUSTED/quota errors, and
// Anthropic rate_limit errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "rate_limit")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error.
// Returns 0 if no delay is found in the error message.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the wait before retry number attempt (0-based).
// An API-provided delay overrides the configured base for that attempt.
// The result is capped at MaxDelay.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.BaseDelay
	if apiDelay > 0 {
		base = apiDelay
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.Multiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxDelay {
		backoff = c.MaxDelay
	}

	return backoff
}
