package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MetricsNamespace != "tutorflow" {
		t.Fatalf("MetricsNamespace = %q", cfg.MetricsNamespace)
	}
	if cfg.QuestionDataURL != DefaultQuestionDataURL {
		t.Fatalf("QuestionDataURL = %q, want default bank", cfg.QuestionDataURL)
	}
	if cfg.Provider.Provider != "gemini" {
		t.Fatalf("Provider = %q, want gemini", cfg.Provider.Provider)
	}
	if cfg.CompletionTimeout != 20*time.Second {
		t.Fatalf("CompletionTimeout = %v, want 20s", cfg.CompletionTimeout)
	}
	if !cfg.Debug {
		t.Fatal("Debug should default to true")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("TUTOR_MODEL", "gemini-2.5-pro")
	t.Setenv("APP_COMPLETION_TIMEOUT", "8s")
	t.Setenv("APP_DEBUG", "0")
	t.Setenv("RETRY_ATTEMPTS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.Provider.Provider != "mock" {
		t.Fatalf("Provider = %q", cfg.Provider.Provider)
	}
	if cfg.Models.Tutor != "gemini-2.5-pro" {
		t.Fatalf("Models.Tutor = %q", cfg.Models.Tutor)
	}
	if cfg.CompletionTimeout != 8*time.Second {
		t.Fatalf("CompletionTimeout = %v", cfg.CompletionTimeout)
	}
	if cfg.Debug {
		t.Fatal("Debug should be off")
	}
	if cfg.Provider.Retry.MaxAttempts != 5 {
		t.Fatalf("Retry.MaxAttempts = %d", cfg.Provider.Retry.MaxAttempts)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("LLM_PROVIDER", "anthropic")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject unknown provider")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_COMPLETION_TIMEOUT", "twenty seconds")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject unparseable durations")
	}
}

func TestProviderForSwapsModel(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	p := cfg.ProviderFor(cfg.Models.IntentClassifier)
	if p.Gemini.Model != "gemini-2.0-flash-lite" {
		t.Fatalf("Gemini.Model = %q", p.Gemini.Model)
	}
	if p.OpenAI.Model != "gemini-2.0-flash-lite" {
		t.Fatalf("OpenAI.Model = %q", p.OpenAI.Model)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_COMPLETION_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_DEBUG",
		"DATABASE_URL",
		"LLM_PROVIDER",
		"GOOGLE_API_KEY",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"TUTOR_MODEL",
		"QUIZMASTER_MODEL",
		"SUBJECT_CLASSIFIER_MODEL",
		"INTENT_CLASSIFIER_MODEL",
		"QUESTION_DATA_URL",
		"CSE_API_KEY",
		"CSE_ID",
		"TEST_TOKEN",
		"RETRY_ATTEMPTS",
		"RETRY_INITIAL_DELAY",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
