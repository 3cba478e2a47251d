package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/interfaces"
)

// ClaudeProvider implements interfaces.LLMProvider on the Anthropic API.
// Claude accepts full conversation replay, so remediation rounds can
// reference the model's previous reply.
type ClaudeProvider struct {
	client  anthropic.Client
	config  *common.ClaudeConfig
	limiter *rate.Limiter
	retry   *RetryConfig
	timeout time.Duration
	logger  arbor.ILogger
}

// NewClaudeProvider creates a Claude provider from configuration
func NewClaudeProvider(config *common.ClaudeConfig, apiKey string, logger arbor.ILogger) (*ClaudeProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("claude API key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	rateLimit := parseDurationOrDefault(config.RateLimit, time.Second)
	timeout := parseDurationOrDefault(config.Timeout, 2*time.Minute)

	return &ClaudeProvider{
		client:  client,
		config:  config,
		limiter: rate.NewLimiter(rate.Every(rateLimit), 1),
		retry:   NewDefaultRetryConfig(),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// GenerateContent sends the conversation to Claude and returns the reply text
func (p *ClaudeProvider) GenerateContent(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages: %w", err)
	}

	maxTokens := p.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(maxTokens),
		Messages:  claudeMessages,
	}
	if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(p.config.Temperature))
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	return generateWithRetry(ctx, p.logger, p.retry, "claude", func() (string, error) {
		resp, err := p.client.Messages.New(ctx, params)
		if err != nil {
			return "", err
		}

		var text strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		if text.Len() == 0 {
			return "", fmt.Errorf("empty response from Claude API")
		}
		return text.String(), nil
	})
}

// SupportsContinuation reports that Claude accepts conversation replay
func (p *ClaudeProvider) SupportsContinuation() bool {
	return true
}

// Name identifies the provider in logs
func (p *ClaudeProvider) Name() string {
	return "claude"
}

// Close releases client resources
func (p *ClaudeProvider) Close() error {
	return nil
}

// convertMessagesToClaude converts messages to the Anthropic format.
// System messages are extracted for the System parameter and excluded from
// the message array; the first one wins.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		switch msg.Role {
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	if len(claudeMessages) == 0 {
		return nil, "", fmt.Errorf("at least one non-system message is required")
	}

	return claudeMessages, systemText, nil
}
