package database

import (
	"context"
	"errors"

	"github.com/finlink/finlink-api/internal/database/models"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrUnsupportedSourceType is returned for source types outside the
	// closed set; resolutions abort without touching the store.
	ErrUnsupportedSourceType = errors.New("unsupported source type")

	// ErrVectorIndexUnavailable means the vec extension (or remote index) is
	// not usable; vector search degrades to empty results.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrStoreWrite wraps failures while persisting link rows.
	ErrStoreWrite = errors.New("store write failed")
)

// VectorMatch is one nearest-neighbour hit. Distance is cosine distance:
// lower is more similar, 0 is identical direction.
type VectorMatch struct {
	AssetID  int64
	Distance float64
}

// AssetRepository reads the canonical asset table.
type AssetRepository interface {
	// UpsertAsset is for seeding and ingestion adapters; the resolver never
	// calls it.
	UpsertAsset(ctx context.Context, asset *models.Asset) error
	// FindByIdentifiers returns assets whose ISIN, CUSIP, FIGI, ticker, RIC
	// or WKN equals any of the tokens (case-sensitive).
	FindByIdentifiers(ctx context.Context, tokens []string) ([]*models.Asset, error)
	// ListAssets returns id and name for every asset.
	ListAssets(ctx context.Context) ([]*models.Asset, error)
}

// EmbeddingRepository manages stored asset embeddings.
type EmbeddingRepository interface {
	// UpsertEmbedding inserts or wholly replaces the row for emb.AssetID.
	UpsertEmbedding(ctx context.Context, emb *models.AssetEmbedding) error
	// AssetsMissingEmbedding returns assets with a non-empty name and no
	// embedding row, optionally restricted to assetIDs (nil = all).
	AssetsMissingEmbedding(ctx context.Context, assetIDs []int64) ([]*models.Asset, error)
}

// VectorIndex is the nearest-neighbour index over asset embeddings. Backed by
// the embedded sqlite-vec table or a remote Qdrant collection.
type VectorIndex interface {
	UpsertVector(ctx context.Context, assetID int64, vector []float32) error
	// SearchSimilar returns up to limit matches ordered by ascending cosine
	// distance, keeping only those with distance < maxDistance.
	SearchSimilar(ctx context.Context, vector []float32, limit int, maxDistance float64) ([]VectorMatch, error)
}

// LinkRepository persists resolved links into the per-source-type tables.
type LinkRepository interface {
	// InsertLinks writes the batch in one transaction. Conflicting rows
	// (same source id, asset id and method) are left untouched: the first
	// resolution wins.
	InsertLinks(ctx context.Context, st SourceType, sourceID string, links []models.EntityLink) error
	GetLinks(ctx context.Context, st SourceType, sourceID string) ([]models.EntityLink, error)
}
