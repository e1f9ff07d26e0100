package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestGetOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "PORTFOLIO_TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "PORTFOLIO_TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}
			k, err := newKoanf("")
			if err != nil {
				t.Fatalf("newKoanf: %v", err)
			}

			result := getOrDefault(k, tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "PORTFOLIO_TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "PORTFOLIO_TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "PORTFOLIO_TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}
			k, err := newKoanf("")
			if err != nil {
				t.Fatalf("newKoanf: %v", err)
			}

			result := getIntOrDefault(k, tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetDurationAndBool(t *testing.T) {
	t.Setenv("PORTFOLIO_TEST_WINDOW", "90s")
	t.Setenv("PORTFOLIO_TEST_FLAG", "true")
	t.Setenv("PORTFOLIO_TEST_BAD_FLAG", "maybe")

	k, err := newKoanf("")
	if err != nil {
		t.Fatalf("newKoanf: %v", err)
	}

	if got := getDurationOrDefault(k, "PORTFOLIO_TEST_WINDOW", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	if got := getDurationOrDefault(k, "PORTFOLIO_TEST_MISSING", time.Minute); got != time.Minute {
		t.Fatalf("expected default 1m, got %s", got)
	}
	if !getBoolOrDefault(k, "PORTFOLIO_TEST_FLAG", false) {
		t.Fatalf("expected flag to parse as true")
	}
	if getBoolOrDefault(k, "PORTFOLIO_TEST_BAD_FLAG", false) {
		t.Fatalf("expected unparsable flag to fall back to default")
	}
}

func TestMustGet_Missing(t *testing.T) {
	k, err := newKoanf("")
	if err != nil {
		t.Fatalf("newKoanf: %v", err)
	}
	if _, err := mustGet(k, "PORTFOLIO_NONEXISTENT_REQUIRED_VAR"); err == nil {
		t.Error("Expected error for missing required value")
	}
}

func TestFileThenEnvPrecedence(t *testing.T) {
	path := writeConfigFile(t, "store_driver: sqlite\nrate_limit_max: 9\nllm_provider: gemini\n")
	t.Setenv("RATE_LIMIT_MAX", "3")

	k, err := newKoanf(path)
	if err != nil {
		t.Fatalf("newKoanf: %v", err)
	}
	cfg, err := fromKoanf(k)
	if err != nil {
		t.Fatalf("fromKoanf: %v", err)
	}

	if cfg.StoreDriver != "sqlite" {
		t.Fatalf("expected store driver from file, got %q", cfg.StoreDriver)
	}
	if cfg.RateLimitMax != 3 {
		t.Fatalf("expected env to override file, got %d", cfg.RateLimitMax)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("expected gemini provider, got %q", cfg.LLMProvider)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Fatalf("expected default window, got %s", cfg.RateLimitWindow)
	}
	if cfg.ShowProjectSlider {
		t.Fatalf("expected project slider to default to disabled")
	}
}

func TestFromKoanf_RejectsUnknownDriver(t *testing.T) {
	path := writeConfigFile(t, "store_driver: mongo\n")

	k, err := newKoanf(path)
	if err != nil {
		t.Fatalf("newKoanf: %v", err)
	}
	if _, err := fromKoanf(k); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestHasCompletionCredential(t *testing.T) {
	cfg := &Config{LLMProvider: "openai"}
	if cfg.HasCompletionCredential() {
		t.Fatalf("expected missing credential")
	}
	cfg.OpenAIAPIKey = "sk-test"
	if !cfg.HasCompletionCredential() {
		t.Fatalf("expected credential present")
	}
	cfg.LLMProvider = "gemini"
	if cfg.HasCompletionCredential() {
		t.Fatalf("expected gemini credential missing")
	}
}

func TestHasSpeechCredential(t *testing.T) {
	cfg := &Config{LLMProvider: "gemini", GeminiAPIKey: "g-key"}
	if cfg.HasSpeechCredential() {
		t.Fatalf("expected speech credential missing with only a Gemini key")
	}
	cfg.OpenAIAPIKey = "sk-test"
	if !cfg.HasSpeechCredential() {
		t.Fatalf("expected speech credential present")
	}
}
