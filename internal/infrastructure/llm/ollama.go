package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// LocalOllamaEmbedder implements repository.EmbeddingClient by calling a local
// Ollama server's /api/embeddings endpoint.
type LocalOllamaEmbedder struct {
	host  string
	model string
	dim   int
}

// NewLocalOllamaEmbedder initializes a client for a local Ollama instance.
func NewLocalOllamaEmbedder(host, model string, dim int) *LocalOllamaEmbedder {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &LocalOllamaEmbedder{
		host:  host,
		model: model,
		dim:   dim,
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed requests one embedding per input text. Ollama's embeddings endpoint
// takes a single prompt, so texts are sent sequentially.
func (c *LocalOllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := c.embedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	log.Printf("[Ollama] 🏠 Embedded %d texts with local model %s", len(texts), c.model)
	return vectors, nil
}

func (c *LocalOllamaEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	apiURL := fmt.Sprintf("%s/api/embeddings", c.host)

	reqBody, err := json.Marshal(ollamaEmbedRequest{
		Model:  c.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned error status %d: %s", resp.StatusCode, string(body))
	}

	var ollamaResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned empty embedding")
	}
	if c.dim > 0 && len(ollamaResp.Embedding) != c.dim {
		return nil, fmt.Errorf("ollama embedding dimension mismatch: expected %d, got %d", c.dim, len(ollamaResp.Embedding))
	}

	vec := make([]float32, len(ollamaResp.Embedding))
	for i, v := range ollamaResp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Name returns the descriptive name of the client.
func (c *LocalOllamaEmbedder) Name() string {
	return fmt.Sprintf("Ollama (%s) [Local]", c.model)
}
