package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder implements repository.EmbeddingClient against the Gemini
// embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	name   string
	dim    int
}

// NewGeminiEmbedder creates the client. dim is the dimensionality the rest of
// the system expects; responses with a different length are rejected rather
// than silently stored.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dim int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key must not be empty")
	}
	if model == "" {
		model = "text-embedding-004"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel(model),
		name:   model,
		dim:    dim,
	}, nil
}

// Embed requests one embedding per input text.
func (c *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := c.model.NewBatch()
	for _, text := range texts {
		batch = batch.AddContent(genai.Text(text))
	}

	resp, err := c.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini returned empty embedding at index %d", i)
		}
		if c.dim > 0 && len(emb.Values) != c.dim {
			return nil, fmt.Errorf("gemini embedding dimension mismatch: expected %d, got %d", c.dim, len(emb.Values))
		}
		vectors[i] = emb.Values
	}

	log.Printf("[Gemini] ☁️ Embedded %d texts with %s", len(texts), c.name)
	return vectors, nil
}

// Name returns the descriptive name of the client.
func (c *GeminiEmbedder) Name() string {
	return fmt.Sprintf("Gemini (%s) [Cloud]", c.name)
}

func (c *GeminiEmbedder) Close() error {
	return c.client.Close()
}
