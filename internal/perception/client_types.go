package perception

import (
	"time"

	"renoplan/internal/types"
)

const defaultSystemPrompt = "You are a home renovation assistant. Respond in English. Be concise and practical."

// LLMClient is an alias to types.LLMClient for use within the package.
type LLMClient = types.LLMClient

// GeminiConfig holds configuration for the Gemini text client.
type GeminiConfig struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	SystemPrompt string
	Temperature  float32

	// EnableGoogleSearch grounds answers with Google Search.
	EnableGoogleSearch bool

	Retry RetryPolicy
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:       apiKey,
		Model:        "gemini-2.5-flash",
		Timeout:      120 * time.Second,
		SystemPrompt: defaultSystemPrompt,
		Temperature:  0.4,
		Retry:        DefaultRetryPolicy(),
	}
}
