package repository

import (
	"context"
)

// EmbeddingClient generates fixed-dimension embeddings from text. Vectors for
// one call share the order of the input texts. Implementations validate the
// dimension they return; callers treat any error as a transient API failure
// unless typed otherwise.
type EmbeddingClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}
