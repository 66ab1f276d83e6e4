// Package qdrant provides a remote database.VectorIndex for deployments
// where the embedded sqlite-vec index is not available or the index must be
// shared across processes. Search semantics match the embedded index: cosine
// distance, ascending.
package qdrant

import (
	"context"
	"fmt"
	"log"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/finlink/finlink-api/internal/database"
)

// Index implements database.VectorIndex over a Qdrant collection keyed by
// asset id.
type Index struct {
	client     *pb.Client
	collection string
	dim        uint64
}

// NewIndex connects to Qdrant and ensures the target collection exists with a
// cosine metric and the given dimensionality.
func NewIndex(host string, port int, collection string, dim int) (*Index, error) {
	client, err := pb.NewClient(&pb.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}

	idx := &Index{
		client:     client,
		collection: collection,
		dim:        uint64(dim),
	}
	if err := idx.ensureCollection(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure collection %q: %w", collection, err)
	}

	log.Printf("[Qdrant] Connected to %s:%d, collection=%s dim=%d", host, port, collection, dim)
	return idx, nil
}

func (i *Index) ensureCollection(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &pb.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
			Size:     i.dim,
			Distance: pb.Distance_Cosine,
		}),
	})
	if err != nil {
		return err
	}

	log.Printf("[Qdrant] Created collection %q", i.collection)
	return nil
}

// UpsertVector writes the embedding for one asset, replacing any previous
// point with the same id.
func (i *Index) UpsertVector(ctx context.Context, assetID int64, vector []float32) error {
	_, err := i.client.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: i.collection,
		Points: []*pb.PointStruct{
			{
				Id:      pb.NewIDNum(uint64(assetID)),
				Vectors: pb.NewVectors(vector...),
				Payload: pb.NewValueMap(map[string]any{"asset_id": assetID}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed for asset %d: %w", assetID, err)
	}
	return nil
}

// SearchSimilar returns up to limit assets with cosine distance below
// maxDistance, ascending. Qdrant scores cosine as similarity, so results are
// converted to distance before filtering.
func (i *Index) SearchSimilar(ctx context.Context, vector []float32, limit int, maxDistance float64) ([]database.VectorMatch, error) {
	points, err := i.client.Query(ctx, &pb.QueryPoints{
		CollectionName: i.collection,
		Query:          pb.NewQuery(vector...),
		Limit:          pb.PtrOf(uint64(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant query: %v", database.ErrVectorIndexUnavailable, err)
	}

	var matches []database.VectorMatch
	for _, point := range points {
		distance := 1 - float64(point.GetScore())
		if distance >= maxDistance {
			continue
		}
		matches = append(matches, database.VectorMatch{
			AssetID:  int64(point.GetId().GetNum()),
			Distance: distance,
		})
	}
	return matches, nil
}

// Close closes the underlying Qdrant gRPC connection.
func (i *Index) Close() error {
	return i.client.Close()
}
