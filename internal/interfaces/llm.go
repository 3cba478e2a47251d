package interfaces

import "context"

// Message is a single turn in a provider conversation.
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMProvider generates text completions from a conversation history.
type LLMProvider interface {
	// GenerateContent sends the conversation and returns the model's reply text.
	GenerateContent(ctx context.Context, messages []Message) (string, error)

	// SupportsContinuation reports whether the provider accepts its own
	// previous reply back in the message history, enabling remediation
	// follow-ups that reference the earlier answer.
	SupportsContinuation() bool

	// Name identifies the provider in logs.
	Name() string

	// Close releases client resources.
	Close() error
}
