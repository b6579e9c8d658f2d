package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vishukulkarni/tutorflow/internal/llm"
)

// DefaultQuestionDataURL is the static question bank fetched at startup
// when QUESTION_DATA_URL is not set.
const DefaultQuestionDataURL = "https://raw.githubusercontent.com/vishukulkarni/Questions/main/questions_enriched.json"

// Models selects the completion model per agent role.
type Models struct {
	Tutor             string
	Quizmaster        string
	SubjectClassifier string
	IntentClassifier  string
}

// Config contains all runtime settings for the tutoring service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	Debug            bool

	DatabaseURL string

	Provider          llm.Config
	Models            Models
	CompletionTimeout time.Duration

	QuestionDataURL string
	CSEAPIKey       string
	CSEID           string
	TestToken       string
}

// Load reads a local .env (when present), then environment variables,
// and applies safe defaults.
func Load() (Config, error) {
	// Missing .env is the normal case in deployed environments.
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "tutorflow"),
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		QuestionDataURL:   envOrDefault("QUESTION_DATA_URL", DefaultQuestionDataURL),
		CSEAPIKey:         stringsTrimSpace("CSE_API_KEY"),
		CSEID:             stringsTrimSpace("CSE_ID"),
		TestToken:         stringsTrimSpace("TEST_TOKEN"),
		ShutdownTimeout:   15 * time.Second,
		CompletionTimeout: 20 * time.Second,
		Models: Models{
			Tutor:             envOrDefault("TUTOR_MODEL", "gemini-2.0-flash"),
			Quizmaster:        envOrDefault("QUIZMASTER_MODEL", "gemini-2.0-flash"),
			SubjectClassifier: envOrDefault("SUBJECT_CLASSIFIER_MODEL", "gemini-2.0-flash-lite"),
			IntentClassifier:  envOrDefault("INTENT_CLASSIFIER_MODEL", "gemini-2.0-flash-lite"),
		},
		Provider: llm.Config{
			Provider: envOrDefault("LLM_PROVIDER", "gemini"),
			Gemini: llm.GeminiConfig{
				APIKey: stringsTrimSpace("GOOGLE_API_KEY"),
			},
			OpenAI: llm.OpenAIConfig{
				APIKey:  stringsTrimSpace("OPENAI_API_KEY"),
				BaseURL: stringsTrimSpace("OPENAI_BASE_URL"),
			},
			Retry: llm.DefaultRetry(),
		},
	}

	var err error
	cfg.Debug, err = boolFromEnv("APP_DEBUG", true)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionTimeout, err = durationFromEnv("APP_COMPLETION_TIMEOUT", cfg.CompletionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.Provider.Retry.MaxAttempts, err = intFromEnv("RETRY_ATTEMPTS", cfg.Provider.Retry.MaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.Provider.Retry.InitialWait, err = durationFromEnv("RETRY_INITIAL_DELAY", cfg.Provider.Retry.InitialWait)
	if err != nil {
		return Config{}, err
	}

	switch cfg.Provider.Provider {
	case "gemini", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("LLM_PROVIDER must be gemini, openai or mock, got %q", cfg.Provider.Provider)
	}
	if cfg.CompletionTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_COMPLETION_TIMEOUT must be at least 1s")
	}
	if cfg.Provider.Retry.MaxAttempts <= 0 {
		return Config{}, fmt.Errorf("RETRY_ATTEMPTS must be positive")
	}

	return cfg, nil
}

// ProviderFor returns the completion config with the model for one
// agent role filled in.
func (c Config) ProviderFor(model string) llm.Config {
	p := c.Provider
	p.Gemini.Model = model
	p.OpenAI.Model = model
	return p
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
