package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Hybrid search service
	SearchBaseURL string
	SearchAPIKey  string
	SearchTimeout time.Duration

	// Retrieval hook tuning
	ContextTokenBudget int
	CacheTTL           time.Duration
	CacheMaxEntries    int
	LatencyTargetMs    int

	// Semantic classification (optional; pattern-only when the key is empty)
	OpenAIAPIKey   string
	EmbeddingModel string

	// Per-caller rate limit on the prepare endpoint; 0 disables it
	PrepareRateLimit float64
	PrepareBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SearchBaseURL: getEnv("SEARCH_BASE_URL", ""),
		SearchAPIKey:  getEnv("SEARCH_API_KEY", ""),
		SearchTimeout: getEnvAsDuration("SEARCH_TIMEOUT", 0),

		ContextTokenBudget: getEnvAsInt("CONTEXT_TOKEN_BUDGET", 2000),
		CacheTTL:           getEnvAsDuration("RETRIEVAL_CACHE_TTL", 5*time.Minute),
		CacheMaxEntries:    getEnvAsInt("RETRIEVAL_CACHE_MAX_ENTRIES", 20),
		LatencyTargetMs:    getEnvAsInt("RETRIEVAL_LATENCY_TARGET_MS", 500),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		PrepareRateLimit: getEnvAsFloat("PREPARE_RATE_LIMIT", 0),
		PrepareBurst:     getEnvAsInt("PREPARE_BURST", 5),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
