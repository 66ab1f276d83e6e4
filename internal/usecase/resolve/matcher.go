package resolve

import (
	"context"

	"github.com/finlink/finlink-api/internal/database/models"
)

// Candidate is one asset proposed by a matching stage. Score semantics are
// method-specific: constant 1.0 for exact, edit distance for fuzzy, cosine
// distance for vss — lower is not universally better.
type Candidate struct {
	AssetID int64
	Score   float64
}

// Matcher is one stage of the resolution cascade. Matchers only read; link
// persistence belongs to the Resolver.
type Matcher interface {
	Method() models.MatchMethod
	Match(ctx context.Context, text string) ([]Candidate, error)
}

// TextEmbedder is the slice of the embedding provider the vector stage and
// the backfiller need.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Name() string
}
