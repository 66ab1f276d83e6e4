package resolve

import (
	"context"
	"sync"

	"github.com/finlink/finlink-api/internal/database"
	"github.com/finlink/finlink-api/internal/database/models"
)

// Hand-rolled stubs shared by the stage and resolver tests.

type stubAssetRepo struct {
	assets     []*models.Asset
	findErr    error
	listErr    error
	lastTokens []string
	listCalls  int
}

func (s *stubAssetRepo) UpsertAsset(ctx context.Context, asset *models.Asset) error {
	s.assets = append(s.assets, asset)
	return nil
}

func (s *stubAssetRepo) FindByIdentifiers(ctx context.Context, tokens []string) ([]*models.Asset, error) {
	s.lastTokens = tokens
	if s.findErr != nil {
		return nil, s.findErr
	}
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	var out []*models.Asset
	for _, a := range s.assets {
		for _, id := range []string{a.ISIN, a.CUSIP, a.FIGI, a.Ticker, a.RIC, a.WKN} {
			if id == "" {
				continue
			}
			if _, ok := set[id]; ok {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (s *stubAssetRepo) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.assets, nil
}

type stubEmbedder struct {
	mu    sync.Mutex
	vecs  map[string][]float32
	errs  map[string]error
	calls []string
}

func (s *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	if err, ok := s.errs[text]; ok {
		return nil, err
	}
	if vec, ok := s.vecs[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 0, 1}, nil
}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubEmbeddings struct {
	mu       sync.Mutex
	missing  []*models.Asset
	missErr  error
	upserted []*models.AssetEmbedding
}

func (s *stubEmbeddings) UpsertEmbedding(ctx context.Context, emb *models.AssetEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, emb)
	return nil
}

func (s *stubEmbeddings) AssetsMissingEmbedding(ctx context.Context, assetIDs []int64) ([]*models.Asset, error) {
	if s.missErr != nil {
		return nil, s.missErr
	}
	return s.missing, nil
}

type stubIndex struct {
	mu        sync.Mutex
	vectors   map[int64][]float32
	results   []database.VectorMatch
	searchErr error
	upsertErr error
}

func (s *stubIndex) UpsertVector(ctx context.Context, assetID int64, vector []float32) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vectors == nil {
		s.vectors = make(map[int64][]float32)
	}
	s.vectors[assetID] = vector
	return nil
}

func (s *stubIndex) SearchSimilar(ctx context.Context, vector []float32, limit int, maxDistance float64) ([]database.VectorMatch, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.results, nil
}

type stubLinks struct {
	inserted  map[string][]models.EntityLink
	insertErr error
}

func linkKey(st database.SourceType, sourceID string) string {
	return string(st) + "/" + sourceID
}

func (s *stubLinks) InsertLinks(ctx context.Context, st database.SourceType, sourceID string, links []models.EntityLink) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if s.inserted == nil {
		s.inserted = make(map[string][]models.EntityLink)
	}
	s.inserted[linkKey(st, sourceID)] = append(s.inserted[linkKey(st, sourceID)], links...)
	return nil
}

func (s *stubLinks) GetLinks(ctx context.Context, st database.SourceType, sourceID string) ([]models.EntityLink, error) {
	return s.inserted[linkKey(st, sourceID)], nil
}

type stubMatcher struct {
	method     models.MatchMethod
	candidates []Candidate
	err        error
	texts      []string
}

func (s *stubMatcher) Method() models.MatchMethod { return s.method }

func (s *stubMatcher) Match(ctx context.Context, text string) ([]Candidate, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}
