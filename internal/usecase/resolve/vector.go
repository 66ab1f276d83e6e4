package resolve

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/finlink/finlink-api/internal/database"
	"github.com/finlink/finlink-api/internal/database/models"
)

const (
	// DefaultVectorDistance is the maximum cosine distance for a vector hit.
	DefaultVectorDistance = 0.25
	// DefaultVectorLimit caps the candidates the vector stage returns.
	DefaultVectorLimit = 3
)

// VectorMatcher links content to assets by cosine distance between the
// content embedding and stored asset-name embeddings. Score is the cosine
// distance, ascending. The stage is best-effort: a missing vector index
// yields empty results, not an error.
type VectorMatcher struct {
	embedder    TextEmbedder
	index       database.VectorIndex
	maxDistance float64
	limit       int
}

func NewVectorMatcher(embedder TextEmbedder, index database.VectorIndex, maxDistance float64, limit int) *VectorMatcher {
	if maxDistance <= 0 {
		maxDistance = DefaultVectorDistance
	}
	if limit <= 0 {
		limit = DefaultVectorLimit
	}
	return &VectorMatcher{embedder: embedder, index: index, maxDistance: maxDistance, limit: limit}
}

func (m *VectorMatcher) Method() models.MatchMethod {
	return models.MethodVector
}

func (m *VectorMatcher) Match(ctx context.Context, content string) ([]Candidate, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	vec, err := m.embedder.EmbedText(ctx, content)
	if err != nil {
		return nil, err
	}

	matches, err := m.index.SearchSimilar(ctx, vec, m.limit, m.maxDistance)
	if err != nil {
		if errors.Is(err, database.ErrVectorIndexUnavailable) {
			log.Printf("[VectorMatcher] Warning: vector index unavailable, stage yields no results")
			return nil, nil
		}
		return nil, err
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, Candidate{AssetID: match.AssetID, Score: match.Distance})
	}
	return candidates, nil
}
