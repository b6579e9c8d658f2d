package llm

import "time"

// Config holds completion provider configuration.
type Config struct {
	// Provider selects the backend: "gemini", "openai" or "mock".
	Provider string

	Gemini GeminiConfig
	OpenAI OpenAIConfig
	Retry  RetryConfig
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional override for OpenAI-compatible APIs
}

// RetryConfig configures retries for transient 429/5xx failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetry matches the attempt budget used against the upstream APIs.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     8 * time.Second,
	}
}
