// Package resolve implements the entity-resolution cascade: exact identifier
// match, fuzzy name match, then embedding-based vector similarity, with link
// persistence per source type.
package resolve

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/finlink/finlink-api/internal/database"
	"github.com/finlink/finlink-api/internal/database/models"
)

const (
	// DefaultTargetMatches gates the later cascade stages: once this many
	// assets matched, remaining stages are skipped.
	DefaultTargetMatches = 3
	// titlePrefixRunes is the content prefix used when no title is supplied.
	titlePrefixRunes = 100
)

// Match is the winning method and score for one asset.
type Match struct {
	Method models.MatchMethod
	Score  float64
}

// Resolution is the outcome of one Resolve call. An empty Matches map is a
// valid "no matches found" result. Persisted/PersistErr let callers
// distinguish "resolved and persisted" from "resolved, persist failed".
type Resolution struct {
	Matches    map[int64]Match
	Persisted  bool
	PersistErr error
}

// Resolver runs the cascade for one source item and persists the discovered
// links. Stages run strictly in sequence; a failing stage is logged and
// skipped so a weak signal source never blocks the other two.
type Resolver struct {
	exact         Matcher
	fuzzy         Matcher
	vector        Matcher
	backfiller    *Backfiller
	links         database.LinkRepository
	targetMatches int
}

func NewResolver(exact, fuzzy, vector Matcher, backfiller *Backfiller, links database.LinkRepository, targetMatches int) *Resolver {
	if targetMatches <= 0 {
		targetMatches = DefaultTargetMatches
	}
	return &Resolver{
		exact:         exact,
		fuzzy:         fuzzy,
		vector:        vector,
		backfiller:    backfiller,
		links:         links,
		targetMatches: targetMatches,
	}
}

// Resolve links one source item to assets. sourceType outside the closed set
// returns database.ErrUnsupportedSourceType with an empty resolution and no
// store writes. title defaults to a content prefix when empty.
func (r *Resolver) Resolve(ctx context.Context, sourceID string, sourceType database.SourceType, content, title string) (Resolution, error) {
	res := Resolution{Matches: make(map[int64]Match)}

	if _, err := sourceType.TableSpec(); err != nil {
		return res, err
	}

	if strings.TrimSpace(title) == "" {
		title = titlePrefix(content)
	}

	// Stage 1: exact identifier match on content. All hits are kept even
	// beyond the target count; the count only gates the later stages.
	r.runStage(ctx, res.Matches, r.exact, content)

	// Stage 2: fuzzy name match on title.
	if len(res.Matches) < r.targetMatches && strings.TrimSpace(title) != "" {
		r.runStage(ctx, res.Matches, r.fuzzy, title)
	}

	// Stage 3: vector similarity on content, after lazily backfilling any
	// missing asset embeddings.
	if len(res.Matches) < r.targetMatches && strings.TrimSpace(content) != "" {
		if r.backfiller != nil {
			if n, err := r.backfiller.Backfill(ctx, nil); err != nil {
				log.Printf("[Resolver] Warning: embedding backfill failed: %v", err)
			} else if n > 0 {
				log.Printf("[Resolver] Backfilled %d asset embeddings", n)
			}
		}
		r.runStage(ctx, res.Matches, r.vector, content)
	}

	// Persist the whole batch at the end of the cascade. A failure here is
	// surfaced on the resolution, not as an error: the computed mapping is
	// still valid.
	links := buildLinks(res.Matches)
	if err := r.links.InsertLinks(ctx, sourceType, sourceID, links); err != nil {
		log.Printf("[Resolver] Warning: failed to persist %d links for %s %q: %v", len(links), sourceType, sourceID, err)
		res.PersistErr = err
	} else {
		res.Persisted = true
	}

	return res, nil
}

// runStage merges a stage's candidates into matches, first-writer-wins per
// asset. Stage errors are recovered here so the cascade continues.
func (r *Resolver) runStage(ctx context.Context, matches map[int64]Match, matcher Matcher, text string) {
	candidates, err := matcher.Match(ctx, text)
	if err != nil {
		log.Printf("[Resolver] Warning: %s stage failed, continuing cascade: %v", matcher.Method(), err)
		return
	}
	for _, c := range candidates {
		if _, ok := matches[c.AssetID]; !ok {
			matches[c.AssetID] = Match{Method: matcher.Method(), Score: c.Score}
		}
	}
}

func buildLinks(matches map[int64]Match) []models.EntityLink {
	now := time.Now()
	links := make([]models.EntityLink, 0, len(matches))
	for assetID, match := range matches {
		links = append(links, models.EntityLink{
			AssetID:  assetID,
			Method:   match.Method,
			Score:    match.Score,
			LinkedAt: now,
		})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].AssetID < links[j].AssetID })
	return links
}

func titlePrefix(content string) string {
	runes := []rune(content)
	if len(runes) <= titlePrefixRunes {
		return content
	}
	return string(runes[:titlePrefixRunes])
}
