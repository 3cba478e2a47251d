package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
)

// GeminiProvider implements interfaces.LLMProvider on the Google Gemini API.
// Requests are stateless, so remediation rounds that depend on the model's
// previous reply are not available.
type GeminiProvider struct {
	client  *genai.Client
	config  *common.GeminiConfig
	limiter *rate.Limiter
	retry   *RetryConfig
	timeout time.Duration
	logger  arbor.ILogger
}

// NewGeminiProvider creates a Gemini provider from configuration
func NewGeminiProvider(ctx context.Context, config *common.GeminiConfig, apiKey string, logger arbor.ILogger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	rateLimit := parseDurationOrDefault(config.RateLimit, 4*time.Second)
	timeout := parseDurationOrDefault(config.Timeout, 2*time.Minute)

	return &GeminiProvider{
		client:  client,
		config:  config,
		limiter: rate.NewLimiter(rate.Every(rateLimit), 1),
		retry:   NewDefaultRetryConfig(),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// GenerateContent sends the conversation to Gemini and returns the reply text
func (p *GeminiProvider) GenerateContent(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	contents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages: %w", err)
	}

	config := &genai.GenerateContentConfig{}
	if p.config.Temperature > 0 {
		config.Temperature = genai.Ptr(p.config.Temperature)
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	return generateWithRetry(ctx, p.logger, p.retry, "gemini", func() (string, error) {
		resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, contents, config)
		if err != nil {
			return "", err
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return "", fmt.Errorf("empty response from Gemini API")
		}

		text := resp.Text()
		if text == "" {
			return "", fmt.Errorf("empty text in Gemini response")
		}
		return text, nil
	})
}

// SupportsContinuation reports that Gemini requests are stateless
func (p *GeminiProvider) SupportsContinuation() bool {
	return false
}

// Name identifies the provider in logs
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases client resources
func (p *GeminiProvider) Close() error {
	p.client = nil
	return nil
}

// convertMessagesToGemini converts messages to the genai content format.
// System messages become the system instruction; assistant turns map to the
// model role.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		role := genai.Role(genai.RoleUser)
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	if len(contents) == 0 {
		return nil, "", fmt.Errorf("at least one non-system message is required")
	}

	return contents, systemText, nil
}
