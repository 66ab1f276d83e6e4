package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlink/finlink-api/internal/database/models"
)

func TestFuzzyMatch(t *testing.T) {
	repo := &stubAssetRepo{assets: []*models.Asset{
		{ID: 1, Name: "Apple Inc."},
		{ID: 2, Name: "Microsoft Corporation"},
		{ID: 3, Name: "Banana Corp"},
	}}
	m := NewFuzzyMatcher(repo, 0, 0)
	assert.Equal(t, models.MethodFuzzy, m.Method())

	candidates, err := m.Match(context.Background(), "apple inc")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(1), candidates[0].AssetID)
	assert.Equal(t, 1.0, candidates[0].Score) // missing trailing dot
}

func TestFuzzyMatch_CaseInsensitive(t *testing.T) {
	repo := &stubAssetRepo{assets: []*models.Asset{{ID: 1, Name: "Apple Inc."}}}
	m := NewFuzzyMatcher(repo, 0, 0)

	candidates, err := m.Match(context.Background(), "APPLE INC.")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 0.0, candidates[0].Score)
}

func TestFuzzyMatch_OrderingAndLimit(t *testing.T) {
	repo := &stubAssetRepo{assets: []*models.Asset{
		{ID: 4, Name: "assetx"},  // distance 1
		{ID: 2, Name: "assetxy"}, // distance 2
		{ID: 3, Name: "assety"},  // distance 1
		{ID: 1, Name: "asset"},   // distance 0
	}}
	m := NewFuzzyMatcher(repo, 4, 3)

	candidates, err := m.Match(context.Background(), "asset")
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	// Ascending distance, asset id breaks the tie between 3 and 4.
	assert.Equal(t, int64(1), candidates[0].AssetID)
	assert.Equal(t, int64(3), candidates[1].AssetID)
	assert.Equal(t, int64(4), candidates[2].AssetID)
}

func TestFuzzyMatch_EmptyTitleSkipsQuery(t *testing.T) {
	repo := &stubAssetRepo{listErr: errors.New("should not be listed")}
	m := NewFuzzyMatcher(repo, 0, 0)

	candidates, err := m.Match(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Equal(t, 0, repo.listCalls)
}

func TestFuzzyMatch_SkipsNamelessAssets(t *testing.T) {
	repo := &stubAssetRepo{assets: []*models.Asset{{ID: 1, Name: ""}}}
	m := NewFuzzyMatcher(repo, 0, 0)

	candidates, err := m.Match(context.Background(), "ab")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFuzzyMatch_RepoError(t *testing.T) {
	repo := &stubAssetRepo{listErr: errors.New("db down")}
	m := NewFuzzyMatcher(repo, 0, 0)

	_, err := m.Match(context.Background(), "apple")
	assert.Error(t, err)
}
