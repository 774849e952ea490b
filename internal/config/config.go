// Package config loads service settings from the environment, after
// applying a .env file when one exists.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type LLMConfig struct {
	Provider    string
	Temperature float32
	MaxTokens   int

	GeminiKey            string
	GeminiModel          string
	GeminiEmbeddingModel string

	OpenAIKey            string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAIEmbeddingModel string
}

type Config struct {
	Port          string
	DataDir       string
	MigrationsDir string
	DatabaseURL   string
	RedisURL      string
	BearerToken   string
	CORSOrigins   []string

	LLM LLMConfig

	WeatherKey         string
	ScoringWeightsFile string
	RetrievalK         int
	SessionTTL         time.Duration
	WeatherCacheTTL    time.Duration
}

// DestinationsFile is the catalog seed inside DataDir.
func (c Config) DestinationsFile() string { return filepath.Join(c.DataDir, "destinations.json") }

// CorpusDir holds the retrieval documents inside DataDir.
func (c Config) CorpusDir() string { return filepath.Join(c.DataDir, "corpus") }

// CoordinatesFile maps weather cities to coordinates inside DataDir.
func (c Config) CoordinatesFile() string { return filepath.Join(c.DataDir, "city-coordinates.json") }

// Load reads envFile (default ".env") into the environment when it exists,
// without overriding variables already set, and then builds the Config.
func Load(envFile ...string) (Config, error) {
	files := envFile
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	cfg.Port = envOrDefault("PORT", "8080")
	cfg.DataDir = envOrDefault("DATA_DIR", "data")
	cfg.MigrationsDir = envOrDefault("MIGRATIONS_DIR", "migrations")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.BearerToken = os.Getenv("BEARER_TOKEN")
	cfg.CORSOrigins = splitList(envOrDefault("CORS_ORIGINS", "*"))

	cfg.LLM.Provider = strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderGemini))
	cfg.LLM.Temperature = float32(envOrDefaultFloat("LLM_TEMPERATURE", 0.7))
	cfg.LLM.MaxTokens = envOrDefaultInt("LLM_MAX_TOKENS", 2000)
	cfg.LLM.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.LLM.GeminiModel = envOrDefault("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.LLM.GeminiEmbeddingModel = envOrDefault("GEMINI_EMBEDDING_MODEL", "text-embedding-004")
	cfg.LLM.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.OpenAIBaseURL = envOrDefault("OPENAI_BASE_URL", "https://api.openai.com")
	cfg.LLM.OpenAIModel = envOrDefault("OPENAI_MODEL", "gpt-4o-mini")
	cfg.LLM.OpenAIEmbeddingModel = envOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")

	cfg.WeatherKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.ScoringWeightsFile = os.Getenv("SCORING_WEIGHTS_FILE")
	cfg.RetrievalK = envOrDefaultInt("RETRIEVAL_K", 3)
	cfg.SessionTTL = envOrDefaultDuration("SESSION_TTL", 24*time.Hour)
	cfg.WeatherCacheTTL = envOrDefaultDuration("WEATHER_CACHE_TTL", 10*time.Minute)

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required"))
	}
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GeminiKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	case ProviderOpenAI:
		if c.LLM.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}
	if c.RetrievalK <= 0 {
		errs = append(errs, errors.New("RETRIEVAL_K must be positive"))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
