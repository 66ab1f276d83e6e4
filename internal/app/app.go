// Package app wires the resolution engine together from configuration:
// store, embedding client, provider, matchers, orchestrator.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/finlink/finlink-api/internal/config"
	"github.com/finlink/finlink-api/internal/database"
	"github.com/finlink/finlink-api/internal/database/bunstore"
	"github.com/finlink/finlink-api/internal/domain/repository"
	"github.com/finlink/finlink-api/internal/embedding"
	"github.com/finlink/finlink-api/internal/infrastructure/llm"
	qdrantpkg "github.com/finlink/finlink-api/internal/infrastructure/qdrant"
	"github.com/finlink/finlink-api/internal/usecase/resolve"
)

// App holds the fully wired engine and the resources to close on shutdown.
type App struct {
	Config     *config.Config
	Store      *bunstore.BunStore
	Provider   *embedding.Provider
	Backfiller *resolve.Backfiller
	Resolver   *resolve.Resolver

	closers []func() error
}

// New builds the engine from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := bunstore.NewBunStore(cfg.DatabasePath, bunstore.Options{
		EmbeddingDim: cfg.EmbeddingDim,
		QueryTimeout: cfg.QueryTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	client, err := a.newEmbeddingClient(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Printf("[App] Embedding client: %s", client.Name())

	a.Provider = embedding.NewProvider(client, embedding.NewCache(cfg.CacheCapacity), embedding.Options{
		MaxAttempts:      cfg.EmbeddingRetries,
		BaseDelay:        cfg.RetryBaseDelay,
		MaxDelay:         cfg.RetryMaxDelay,
		CallTimeout:      cfg.EmbeddingTimeout,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerTimeout:   cfg.BreakerTimeout,
	})

	var index database.VectorIndex = store
	if cfg.VectorBackend == "qdrant" {
		qidx, err := qdrantpkg.NewIndex(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, cfg.EmbeddingDim)
		if err != nil {
			a.Close()
			return nil, err
		}
		index = qidx
		a.closers = append(a.closers, qidx.Close)
	}

	a.Backfiller = resolve.NewBackfiller(a.Provider, store, index, cfg.EmbeddingModel, cfg.BackfillConcurrency)

	a.Resolver = resolve.NewResolver(
		resolve.NewExactMatcher(store),
		resolve.NewFuzzyMatcher(store, cfg.FuzzyDistance, cfg.FuzzyLimit),
		resolve.NewVectorMatcher(a.Provider, index, cfg.VectorDistance, cfg.VectorLimit),
		a.Backfiller,
		store,
		cfg.TargetMatches,
	)

	return a, nil
}

func (a *App) newEmbeddingClient(ctx context.Context, cfg *config.Config) (repository.EmbeddingClient, error) {
	switch cfg.EmbeddingProvider {
	case "gemini":
		client, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return client, nil
	case "ollama":
		return llm.NewLocalOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel, cfg.EmbeddingDim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// Close releases everything New opened, last-opened first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[App] Warning: close failed: %v", err)
		}
	}
	a.closers = nil
}
