package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all environmentally dependent settings for the FinLink
// resolution engine.
type Config struct {
	DatabasePath string

	// Embedding provider
	EmbeddingProvider string // "gemini" or "ollama"
	GeminiAPIKey      string
	EmbeddingModel    string
	OllamaHost        string
	EmbeddingDim      int
	EmbeddingTimeout  time.Duration
	EmbeddingRetries  int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	CacheCapacity     int
	BreakerThreshold  int
	BreakerTimeout    time.Duration

	// Store
	QueryTimeout  time.Duration
	VectorBackend string // "sqlite" or "qdrant"

	// Qdrant Vector DB (only for VectorBackend=qdrant)
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	// Cascade tuning
	FuzzyDistance       int
	FuzzyLimit          int
	VectorDistance      float64
	VectorLimit         int
	TargetMatches       int
	BackfillConcurrency int
	WorkerConcurrency   int
}

// Validate ensures that all required configuration is present and valid.
func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("FL_GEMINI_API_KEY is required when FL_EMBEDDING_PROVIDER is gemini")
		}
	case "ollama":
	default:
		return fmt.Errorf("FL_EMBEDDING_PROVIDER must be gemini or ollama, got %q", c.EmbeddingProvider)
	}

	switch c.VectorBackend {
	case "sqlite":
	case "qdrant":
		if c.QdrantHost == "" {
			return fmt.Errorf("FL_QDRANT_HOST is required when FL_VECTOR_BACKEND is qdrant")
		}
	default:
		return fmt.Errorf("FL_VECTOR_BACKEND must be sqlite or qdrant, got %q", c.VectorBackend)
	}

	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("FL_EMBEDDING_DIM must be positive")
	}
	if c.TargetMatches <= 0 {
		return fmt.Errorf("FL_TARGET_MATCHES must be positive")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("FL_WORKER_CONCURRENCY must be at least 1")
	}
	return nil
}

// Load reads settings from environment variables with sensible defaults.
func Load() *Config {
	cfg := &Config{
		DatabasePath: getEnv("FL_DATABASE_PATH", "finlink.db"),

		EmbeddingProvider: getEnv("FL_EMBEDDING_PROVIDER", "gemini"),
		GeminiAPIKey:      getEnv("FL_GEMINI_API_KEY", ""),
		EmbeddingModel:    getEnv("FL_EMBEDDING_MODEL", "text-embedding-004"),
		OllamaHost:        getEnv("FL_OLLAMA_HOST", "http://localhost:11434"),
		EmbeddingDim:      getEnvInt("FL_EMBEDDING_DIM", 768),
		EmbeddingTimeout:  getEnvDuration("FL_EMBEDDING_TIMEOUT_SEC", 15) * time.Second,
		EmbeddingRetries:  getEnvInt("FL_EMBEDDING_RETRIES", 3),
		RetryBaseDelay:    getEnvDuration("FL_RETRY_BASE_DELAY_SEC", 2) * time.Second,
		RetryMaxDelay:     getEnvDuration("FL_RETRY_MAX_DELAY_SEC", 10) * time.Second,
		CacheCapacity:     getEnvInt("FL_EMBEDDING_CACHE_SIZE", 1024),
		BreakerThreshold:  getEnvInt("FL_BREAKER_THRESHOLD", 5),
		BreakerTimeout:    getEnvDuration("FL_BREAKER_TIMEOUT_SEC", 30) * time.Second,

		QueryTimeout:  getEnvDuration("FL_QUERY_TIMEOUT_SEC", 10) * time.Second,
		VectorBackend: getEnv("FL_VECTOR_BACKEND", "sqlite"),

		QdrantHost:       getEnv("FL_QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("FL_QDRANT_PORT", 6334),
		QdrantCollection: getEnv("FL_QDRANT_COLLECTION", "finlink_assets"),

		FuzzyDistance:       getEnvInt("FL_FUZZY_DISTANCE", 4),
		FuzzyLimit:          getEnvInt("FL_FUZZY_LIMIT", 5),
		VectorDistance:      getEnvFloat("FL_VECTOR_DISTANCE", 0.25),
		VectorLimit:         getEnvInt("FL_VECTOR_LIMIT", 3),
		TargetMatches:       getEnvInt("FL_TARGET_MATCHES", 3),
		BackfillConcurrency: getEnvInt("FL_BACKFILL_CONCURRENCY", 4),
		WorkerConcurrency:   getEnvInt("FL_WORKER_CONCURRENCY", 5),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[Config] Validation failed: %v", err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(fallback)
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("[Config] Warning: Invalid duration for %s: %v. Using fallback %d", key, err, fallback)
		return time.Duration(fallback)
	}
	return time.Duration(value)
}

func getEnvInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("[Config] Warning: Invalid int for %s: %v. Using fallback %d", key, err, fallback)
		return fallback
	}
	return value
}

func getEnvFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("[Config] Warning: Invalid float for %s: %v. Using fallback %g", key, err, fallback)
		return fallback
	}
	return value
}
