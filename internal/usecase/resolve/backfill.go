package resolve

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finlink/finlink-api/internal/database"
	"github.com/finlink/finlink-api/internal/database/models"
)

// DefaultBackfillConcurrency bounds parallel embedding calls during backfill.
const DefaultBackfillConcurrency = 4

// Backfiller computes embeddings for assets that do not have one yet. It is
// safe to run repeatedly and concurrently: a second run simply finds fewer
// assets missing embeddings, and a duplicate computation under a race is
// resolved by the upsert.
type Backfiller struct {
	embedder    TextEmbedder
	embeddings  database.EmbeddingRepository
	index       database.VectorIndex
	modelName   string
	concurrency int
}

func NewBackfiller(embedder TextEmbedder, embeddings database.EmbeddingRepository, index database.VectorIndex, modelName string, concurrency int) *Backfiller {
	if concurrency <= 0 {
		concurrency = DefaultBackfillConcurrency
	}
	return &Backfiller{
		embedder:    embedder,
		embeddings:  embeddings,
		index:       index,
		modelName:   modelName,
		concurrency: concurrency,
	}
}

// Backfill embeds every asset with a non-empty name and no stored embedding,
// optionally restricted to assetIDs (nil = all). Per-asset failures are
// logged and skipped; the count of embeddings actually stored is returned.
func (b *Backfiller) Backfill(ctx context.Context, assetIDs []int64) (int, error) {
	assets, err := b.embeddings.AssetsMissingEmbedding(ctx, assetIDs)
	if err != nil {
		return 0, err
	}
	if len(assets) == 0 {
		return 0, nil
	}
	log.Printf("[Backfill] Embedding %d assets with %s", len(assets), b.embedder.Name())

	var stored atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, asset := range assets {
		g.Go(func() error {
			vec, err := b.embedder.EmbedText(ctx, asset.Name)
			if err != nil {
				log.Printf("[Backfill] Warning: skipping asset %d (%q): %v", asset.ID, asset.Name, err)
				return nil
			}

			emb := &models.AssetEmbedding{
				AssetID:   asset.ID,
				Name:      asset.Name,
				ModelName: b.modelName,
				CreatedAt: time.Now(),
			}
			if err := emb.SetVector(vec); err != nil {
				log.Printf("[Backfill] Warning: skipping asset %d: %v", asset.ID, err)
				return nil
			}
			if err := b.embeddings.UpsertEmbedding(ctx, emb); err != nil {
				log.Printf("[Backfill] Warning: failed to store embedding for asset %d: %v", asset.ID, err)
				return nil
			}
			if err := b.index.UpsertVector(ctx, asset.ID, vec); err != nil && !errors.Is(err, database.ErrVectorIndexUnavailable) {
				log.Printf("[Backfill] Warning: failed to index vector for asset %d: %v", asset.ID, err)
			}

			stored.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(stored.Load()), err
	}
	return int(stored.Load()), nil
}
