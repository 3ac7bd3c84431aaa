package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/omegabytes/ecocode-sentinel/llm"
	"github.com/omegabytes/ecocode-sentinel/request"
	"github.com/omegabytes/ecocode-sentinel/server"
)

type Config struct {
	Env            string
	Port           string
	NodeID         int64
	MaxSourceBytes int
	Server         server.Profile
	LLM            LLMConfig
	Session        SessionConfig
	OTel           OTelConfig
}

type LLMConfig struct {
	Provider    llm.Provider
	APIKey      string
	BaseURL     string // Optional: for custom endpoints
	OllamaHost  string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

type SessionConfig struct {
	RedisURL string // empty keeps the session in memory
	Name     string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string // comma-separated key=value pairs
	ServiceName    string
	ServiceVersion string
}

// Load loads configuration from environment variables.
// In development, variables missing from the environment are read from .env.
func Load() (Config, error) {
	if getEnv("ECOCODE_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	provider, err := llm.ParseProvider(getEnv("ECOCODE_PROVIDER", string(llm.Groq)))
	if err != nil {
		return Config{}, err
	}

	profile, err := LoadProfile()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:            getEnv("ECOCODE_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		NodeID:         getEnvInt64("NODE_ID", 1),
		MaxSourceBytes: getEnvInt("MAX_SOURCE_BYTES", request.DefaultMaxSourceBytes),
		Server:         profile,
		LLM: LLMConfig{
			Provider:    provider,
			Temperature: getEnvFloat("LLM_TEMPERATURE", llm.DefaultTemperature),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 0),
			MaxRetries:  getEnvInt("LLM_MAX_RETRIES", llm.DefaultMaxRetries),
		},
		Session: SessionConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			Name:     getEnv("SESSION_NAME", "default"),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "ecocode-sentinel"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
	}

	switch provider {
	case llm.Groq:
		cfg.LLM.APIKey = getEnv("GROQ_API_KEY", "")
		cfg.LLM.BaseURL = getEnv("GROQ_BASE_URL", llm.GroqBaseURL)
		cfg.LLM.Model = getEnv("GROQ_MODEL", llm.GroqDefaultModel)
		if cfg.LLM.APIKey == "" {
			return Config{}, fmt.Errorf("GROQ_API_KEY not found in environment variables")
		}
	case llm.Ollama:
		cfg.LLM.OllamaHost = getEnv("OLLAMA_HOST", llm.OllamaDefaultHost)
		cfg.LLM.BaseURL = llm.OllamaBaseURL(cfg.LLM.OllamaHost)
		cfg.LLM.Model = getEnv("OLLAMA_MODEL", llm.OllamaDefaultModel)
	}

	return cfg, nil
}

// LoadProfile reads only the reference server profile, which needs no provider credentials.
func LoadProfile() (server.Profile, error) {
	profile, err := server.NewProfile(
		getEnvFloat("SERVER_POWER_WATTS", server.GenericProfile().PowerWatts),
		getEnvFloat("CO2_PER_KWH", server.GenericProfile().CO2PerKWH),
	)
	if err != nil {
		return server.Profile{}, fmt.Errorf("invalid server profile: %w", err)
	}
	return profile, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c SessionConfig) Persistent() bool {
	return c.RedisURL != ""
}

// Client returns the llm configuration for this provider.
func (c LLMConfig) Client() llm.Config {
	temperature := c.Temperature
	return llm.Config{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: &temperature,
		MaxTokens:   c.MaxTokens,
		MaxRetries:  c.MaxRetries,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
