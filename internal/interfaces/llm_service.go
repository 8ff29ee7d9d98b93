package interfaces

import (
	"context"
)

// LLMMode represents the operational mode of the LLM service
type LLMMode string

const (
	// LLMModeCloud indicates the service uses cloud-based LLM APIs
	LLMModeCloud LLMMode = "cloud"

	// LLMModeOffline indicates the service runs without an oracle and
	// relies on deterministic fallbacks only
	LLMModeOffline LLMMode = "offline"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations. The
// retrieval pipeline uses it as an opaque oracle for query analysis,
// strategy selection, and confidence estimation, and always degrades to
// deterministic fallbacks when a call fails.
type LLMService interface {
	// Embed generates an embedding vector for the given text. The vector
	// dimension is fixed per provider configuration.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion for the given conversation history.
	// Messages should be in chronological order, system prompt first.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service can handle requests. For cloud
	// providers this checks API connectivity and authentication.
	HealthCheck(ctx context.Context) error

	// GetMode returns the current operational mode of the service.
	GetMode() LLMMode

	// Close releases resources and performs cleanup operations.
	Close() error
}
