package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Server
	Port        string
	Env         string
	FrontendURL string

	// Storage
	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	// Redis (rate limiting, live log fan-out)
	RedisURL            string
	RateLimitMax        int
	RateLimitWindow     time.Duration
	RateLimitFailClosed bool

	// LLM providers
	LLMProvider         string
	OpenAIAPIKey        string
	OpenAIAPIURL        string
	OpenAIChatModel     string
	OpenAITTSModel      string
	OpenAITTSVoice      string
	GeminiAPIKey        string
	GeminiModel         string
	LLMRequestsPerMin   int
	LLMMaxContextTokens int

	// Knowledge
	KnowledgeDir         string
	KnowledgeTTL         time.Duration
	KnowledgeRefreshCron string

	// Feature defaults
	ShowProjectSlider bool

	// Auth
	SupabaseJWKSURL     string
	JWTSecret           string
	RequireAuthForAbout bool

	// Telemetry
	TracingEnabled bool
}

// HasCompletionCredential reports whether the selected completion provider
// has an API key configured.
func (c *Config) HasCompletionCredential() bool {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey != ""
	}
	return c.OpenAIAPIKey != ""
}

// HasSpeechCredential reports whether speech synthesis can run. Speech is
// always served by OpenAI, whichever provider handles completions.
func (c *Config) HasSpeechCredential() bool {
	return c.OpenAIAPIKey != ""
}

// Load reads .env, then an optional YAML file named by CONFIG_FILE, then the
// environment. Later sources win.
func Load() (*Config, error) {
	godotenv.Load()

	k, err := newKoanf(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	return fromKoanf(k)
}

func newKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	return k, nil
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{
		Port:        getOrDefault(k, "PORT", "8080"),
		Env:         getOrDefault(k, "ENV", "development"),
		FrontendURL: getOrDefault(k, "FRONTEND_URL", "http://localhost:3000"),

		StoreDriver: getOrDefault(k, "STORE_DRIVER", "postgres"),
		DatabaseURL: getOrDefault(k, "DATABASE_URL", ""),
		SQLitePath:  getOrDefault(k, "SQLITE_PATH", "./portfolio.db"),

		RedisURL:            getOrDefault(k, "REDIS_URL", ""),
		RateLimitMax:        getIntOrDefault(k, "RATE_LIMIT_MAX", 5),
		RateLimitWindow:     getDurationOrDefault(k, "RATE_LIMIT_WINDOW", time.Minute),
		RateLimitFailClosed: getBoolOrDefault(k, "RATE_LIMIT_FAIL_CLOSED", false),

		LLMProvider:         getOrDefault(k, "LLM_PROVIDER", "openai"),
		OpenAIAPIKey:        getOrDefault(k, "OPENAI_API_KEY_PRIVATE", ""),
		OpenAIAPIURL:        getOrDefault(k, "OPENAI_API_URL", "https://api.openai.com"),
		OpenAIChatModel:     getOrDefault(k, "OPENAI_CHAT_MODEL", "gpt-4o"),
		OpenAITTSModel:      getOrDefault(k, "OPENAI_TTS_MODEL", "tts-1"),
		OpenAITTSVoice:      getOrDefault(k, "OPENAI_TTS_VOICE", "alloy"),
		GeminiAPIKey:        getOrDefault(k, "GEMINI_API_KEY", ""),
		GeminiModel:         getOrDefault(k, "GEMINI_MODEL", "gemini-2.0-flash"),
		LLMRequestsPerMin:   getIntOrDefault(k, "LLM_REQUESTS_PER_MINUTE", 60),
		LLMMaxContextTokens: getIntOrDefault(k, "LLM_MAX_CONTEXT_TOKENS", 6000),

		KnowledgeDir:         getOrDefault(k, "KNOWLEDGE_DIR", "./knowledge"),
		KnowledgeTTL:         getDurationOrDefault(k, "KNOWLEDGE_TTL", 24*time.Hour),
		KnowledgeRefreshCron: getOrDefault(k, "KNOWLEDGE_REFRESH_CRON", ""),

		ShowProjectSlider: getBoolOrDefault(k, "SHOW_PROJECT_SLIDER", false),

		SupabaseJWKSURL:     getOrDefault(k, "SUPABASE_JWKS_URL", ""),
		JWTSecret:           getOrDefault(k, "JWT_SECRET", ""),
		RequireAuthForAbout: getBoolOrDefault(k, "REQUIRE_AUTH_FOR_ABOUT", false),

		TracingEnabled: getBoolOrDefault(k, "TRACING_ENABLED", false),
	}

	switch cfg.StoreDriver {
	case "postgres":
		if _, err := mustGet(k, "DATABASE_URL"); err != nil {
			return nil, err
		}
	case "sqlite":
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.LLMProvider {
	case "openai", "gemini":
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	return cfg, nil
}

func keyOf(name string) string {
	return strings.ToLower(name)
}

func mustGet(k *koanf.Koanf, name string) (string, error) {
	val := k.String(keyOf(name))
	if val == "" {
		return "", fmt.Errorf("required configuration %s is not set", name)
	}
	return val, nil
}

func getOrDefault(k *koanf.Koanf, name, defaultVal string) string {
	val := k.String(keyOf(name))
	if val == "" {
		return defaultVal
	}
	return val
}

func getIntOrDefault(k *koanf.Koanf, name string, defaultVal int) int {
	val := k.String(keyOf(name))
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getBoolOrDefault(k *koanf.Koanf, name string, defaultVal bool) bool {
	val := k.String(keyOf(name))
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getDurationOrDefault(k *koanf.Koanf, name string, defaultVal time.Duration) time.Duration {
	val := k.String(keyOf(name))
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
