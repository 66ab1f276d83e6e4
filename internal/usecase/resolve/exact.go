package resolve

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/finlink/finlink-api/internal/database"
	"github.com/finlink/finlink-api/internal/database/models"
)

// Identifier-like tokens are alphanumeric runs strictly between these rune
// counts; everything shorter or longer cannot be an ISIN/CUSIP/FIGI/ticker/
// RIC/WKN worth querying for.
const (
	minTokenLen = 3
	maxTokenLen = 20
)

// ExactMatcher links text to assets through case-sensitive identifier
// equality. Every hit scores a constant 1.0: exact matches are not ranked
// against each other.
type ExactMatcher struct {
	assets database.AssetRepository
}

func NewExactMatcher(assets database.AssetRepository) *ExactMatcher {
	return &ExactMatcher{assets: assets}
}

func (m *ExactMatcher) Method() models.MatchMethod {
	return models.MethodExact
}

func (m *ExactMatcher) Match(ctx context.Context, text string) ([]Candidate, error) {
	tokens := identifierTokens(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	assets, err := m.assets.FindByIdentifiers(ctx, tokens)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(assets))
	for _, asset := range assets {
		candidates = append(candidates, Candidate{AssetID: asset.ID, Score: 1.0})
	}
	return candidates, nil
}

// identifierTokens extracts the distinct candidate identifier tokens from
// text, preserving first-occurrence order and case.
func identifierTokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var tokens []string
	for _, field := range fields {
		n := utf8.RuneCountInString(field)
		if n <= minTokenLen || n >= maxTokenLen {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}
	return tokens
}
