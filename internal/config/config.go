package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderVertex     = "vertex"
)

type Config struct {
	Port              string
	MetricsPort       string
	LogLevel          string
	LogFormat         string
	CORSAllowedOrigin string

	// AI provider
	AIProvider       string
	AITemperature    float64
	AITimeout        time.Duration
	AIMaxRetries     int
	AIInitialBackoff time.Duration
	AIMaxInputChars  int

	// OpenAI
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// OpenRouter
	OpenRouterAPIKey string
	OpenRouterModel  string

	// Vertex AI
	VertexProjectID string
	VertexLocation  string
	VertexModel     string

	// Demo mode
	UseMockData bool
	MockDelay   time.Duration
	MockSeed    int64

	// Upload limits
	MaxFileSize int64
	MaxPDFPages int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		AIProvider:        strings.ToLower(getEnv("AI_PROVIDER", ProviderOpenAI)),
		AITemperature:     getEnvFloat("AI_TEMPERATURE", 0.2),
		AITimeout:         getEnvDuration("AI_TIMEOUT", 60*time.Second),
		AIMaxRetries:      getEnvInt("AI_MAX_RETRIES", 3),
		AIInitialBackoff:  getEnvDuration("AI_INITIAL_BACKOFF", time.Second),
		AIMaxInputChars:   getEnvInt("AI_MAX_INPUT_CHARS", 16000),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
		VertexProjectID:   getEnv("VERTEX_PROJECT_ID", ""),
		VertexLocation:    getEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:       getEnv("VERTEX_MODEL", "gemini-1.5-flash"),
		UseMockData:       getEnvBool("USE_MOCK_DATA", false),
		MockDelay:         getEnvDuration("MOCK_DELAY", 1500*time.Millisecond),
		MockSeed:          int64(getEnvInt("MOCK_SEED", 0)),
		MaxFileSize:       int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		MaxPDFPages:       getEnvInt("MAX_PDF_PAGES", 50),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.AIProvider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderVertex:
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}
	if c.AIMaxRetries < 1 {
		return fmt.Errorf("AI_MAX_RETRIES must be at least 1, got %d", c.AIMaxRetries)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.MaxPDFPages <= 0 {
		return fmt.Errorf("MAX_PDF_PAGES must be positive, got %d", c.MaxPDFPages)
	}
	if c.AITemperature < 0 || c.AITemperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be within [0, 2], got %v", c.AITemperature)
	}
	return nil
}

// CredentialEnv names the variable the selected provider needs.
func (c *Config) CredentialEnv() string {
	switch c.AIProvider {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderVertex:
		return "VERTEX_PROJECT_ID"
	default:
		return "OPENAI_API_KEY"
	}
}

func (c *Config) HasCredential() bool {
	switch c.AIProvider {
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey != ""
	case ProviderVertex:
		return c.VertexProjectID != ""
	default:
		return c.OpenAIAPIKey != ""
	}
}

func (c *Config) ProviderName() string {
	switch c.AIProvider {
	case ProviderOpenRouter:
		return "OpenRouter"
	case ProviderVertex:
		return "Vertex AI"
	default:
		return "OpenAI"
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go duration strings ("1500ms", "2s") or a bare
// number of milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}
