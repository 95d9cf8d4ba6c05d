package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	GeminiAPIKey     string
	TranslationModel string
	DeepLAPIKey      string

	DatabaseURL   string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	EmbeddingAPIKey     string
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	MaxConcurrentAPICalls int
	TokenBudget           int
	MaxBatchEntries       int
	RequestsPerSecond     float64

	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RetryJitter    float64

	LogLevel string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		TranslationModel:      getEnv("TRANSLATION_MODEL", "gemini-2.5-flash"),
		DeepLAPIKey:           getEnv("DEEPL_API_KEY", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		Neo4jURI:              getEnv("NEO4J_URI", ""),
		Neo4jUser:             getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:         getEnv("NEO4J_PASSWORD", "password"),
		EmbeddingAPIKey:       getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:        getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingBaseURL:      getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingDimensions:   getEnvInt("EMBEDDING_DIMENSIONS", 768),
		MaxConcurrentAPICalls: getEnvInt("MAX_CONCURRENT_API_CALLS", 4),
		TokenBudget:           getEnvInt("TOKEN_BUDGET", 1500),
		MaxBatchEntries:       getEnvInt("MAX_BATCH_ENTRIES", 40),
		RequestsPerSecond:     getEnvFloat("REQUESTS_PER_SECOND", 1),
		MaxAttempts:           getEnvInt("MAX_ATTEMPTS", 3),
		RetryBaseDelay:        getEnvDuration("RETRY_BASE_DELAY", 4*time.Second),
		RetryMaxDelay:         getEnvDuration("RETRY_MAX_DELAY", 16*time.Second),
		RetryJitter:           getEnvFloat("RETRY_JITTER", 0.2),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}
}

// HasDatabase reports whether a Postgres cache and translation memory are configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasGlossary reports whether a Neo4j glossary is configured.
func (c *Config) HasGlossary() bool {
	return c.Neo4jURI != ""
}

// HasEmbeddings reports whether similar past translations can be looked up.
func (c *Config) HasEmbeddings() bool {
	return c.EmbeddingAPIKey != "" && c.HasDatabase()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
