package resolve

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/finlink/finlink-api/internal/database"
	"github.com/finlink/finlink-api/internal/database/models"
)

const (
	// DefaultFuzzyDistance is the maximum edit distance between the query
	// title and an asset name.
	DefaultFuzzyDistance = 4
	// DefaultFuzzyLimit caps the candidates the fuzzy stage returns.
	DefaultFuzzyLimit = 5
)

// FuzzyMatcher links short titles to asset names by Levenshtein distance,
// case-insensitive. Score is the raw edit distance, ascending (lower = more
// similar).
type FuzzyMatcher struct {
	assets      database.AssetRepository
	maxDistance int
	limit       int
}

func NewFuzzyMatcher(assets database.AssetRepository, maxDistance, limit int) *FuzzyMatcher {
	if maxDistance <= 0 {
		maxDistance = DefaultFuzzyDistance
	}
	if limit <= 0 {
		limit = DefaultFuzzyLimit
	}
	return &FuzzyMatcher{assets: assets, maxDistance: maxDistance, limit: limit}
}

func (m *FuzzyMatcher) Method() models.MatchMethod {
	return models.MethodFuzzy
}

func (m *FuzzyMatcher) Match(ctx context.Context, title string) ([]Candidate, error) {
	query := strings.ToLower(strings.TrimSpace(title))
	if query == "" {
		return nil, nil
	}

	assets, err := m.assets.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, asset := range assets {
		if asset.Name == "" {
			continue
		}
		distance := levenshtein.ComputeDistance(query, strings.ToLower(asset.Name))
		if distance <= m.maxDistance {
			candidates = append(candidates, Candidate{AssetID: asset.ID, Score: float64(distance)})
		}
	}

	// Ascending by distance, asset id as the stable tie-break.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score < candidates[j].Score
		}
		return candidates[i].AssetID < candidates[j].AssetID
	})
	if len(candidates) > m.limit {
		candidates = candidates[:m.limit]
	}
	return candidates, nil
}
