package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		EmbeddingProvider: "ollama",
		VectorBackend:     "sqlite",
		EmbeddingDim:      768,
		TargetMatches:     3,
		WorkerConcurrency: 5,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.EmbeddingProvider = "gemini"
	assert.Error(t, cfg.Validate(), "gemini without an API key")
	cfg.GeminiAPIKey = "key"
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.EmbeddingProvider = "openai"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.VectorBackend = "qdrant"
	assert.Error(t, cfg.Validate(), "qdrant without a host")
	cfg.QdrantHost = "localhost"
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.VectorBackend = "pinecone"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.EmbeddingDim = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.TargetMatches = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.WorkerConcurrency = 0
	assert.Error(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FL_EMBEDDING_PROVIDER", "ollama")

	cfg := Load()
	require.NotNil(t, cfg)
	assert.Equal(t, "finlink.db", cfg.DatabasePath)
	assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.EmbeddingDim)
	assert.Equal(t, 3, cfg.EmbeddingRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 10*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, 1024, cfg.CacheCapacity)
	assert.Equal(t, "sqlite", cfg.VectorBackend)
	assert.Equal(t, 4, cfg.FuzzyDistance)
	assert.Equal(t, 5, cfg.FuzzyLimit)
	assert.Equal(t, 0.25, cfg.VectorDistance)
	assert.Equal(t, 3, cfg.TargetMatches)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FL_EMBEDDING_PROVIDER", "gemini")
	t.Setenv("FL_GEMINI_API_KEY", "key")
	t.Setenv("FL_EMBEDDING_TIMEOUT_SEC", "30")
	t.Setenv("FL_FUZZY_DISTANCE", "2")
	t.Setenv("FL_VECTOR_DISTANCE", "0.5")

	cfg := Load()
	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.Equal(t, 30*time.Second, cfg.EmbeddingTimeout)
	assert.Equal(t, 2, cfg.FuzzyDistance)
	assert.Equal(t, 0.5, cfg.VectorDistance)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("FL_FUZZY_LIMIT", "not-a-number")
	assert.Equal(t, 5, getEnvInt("FL_FUZZY_LIMIT", 5))

	t.Setenv("FL_VECTOR_DISTANCE", "nope")
	assert.Equal(t, 0.25, getEnvFloat("FL_VECTOR_DISTANCE", 0.25))
}
