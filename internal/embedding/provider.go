// Package embedding wraps a raw embedding client with the behavior the
// resolution engine needs: input normalization, an LRU cache, per-call
// timeouts, bounded retries and a circuit breaker. Callers treat an
// unavailable provider as "vector stage skipped", never as fatal.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finlink/finlink-api/internal/domain/repository"
	"github.com/finlink/finlink-api/internal/infrastructure/resilience"
)

var (
	// ErrInvalidInput means the text was empty after whitespace
	// normalization. Never retried.
	ErrInvalidInput = errors.New("embedding input is empty")

	// ErrEmbeddingUnavailable means retries were exhausted or the breaker is
	// open; the caller should skip the vector stage.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
)

// Options tunes a Provider. Zero values fall back to the defaults below.
type Options struct {
	MaxAttempts      int           // default 3
	BaseDelay        time.Duration // default 2s, doubles per attempt
	MaxDelay         time.Duration // default 10s cap
	CallTimeout      time.Duration // per-API-call timeout, default 15s
	BreakerThreshold int           // consecutive failures before opening, default 5
	BreakerTimeout   time.Duration // open state duration, default 30s
}

func (o *Options) fill() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 2 * time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Second
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 15 * time.Second
	}
	if o.BreakerThreshold <= 0 {
		o.BreakerThreshold = 5
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
}

// Provider is the embedding entry point for the resolution engine.
type Provider struct {
	client  repository.EmbeddingClient
	cache   *Cache
	breaker *resilience.CircuitBreaker
	opts    Options
}

// NewProvider wraps client. cache may be nil, in which case a fresh
// default-capacity cache is created.
func NewProvider(client repository.EmbeddingClient, cache *Cache, opts Options) *Provider {
	opts.fill()
	if cache == nil {
		cache = NewCache(DefaultCacheCapacity)
	}
	return &Provider{
		client:  client,
		cache:   cache,
		breaker: resilience.NewCircuitBreaker(opts.BreakerThreshold, opts.BreakerTimeout),
		opts:    opts,
	}
}

// EmbedText returns the embedding for text. Identical text (after whitespace
// normalization) within the process lifetime is served from the cache without
// an API call.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil, ErrInvalidInput
	}

	if vec, ok := p.cache.Get(normalized); ok {
		return vec, nil
	}

	var vec []float32
	err := retryWithBackoff(ctx, func() error {
		err := p.breaker.Execute(func() error {
			callCtx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
			defer cancel()

			vecs, err := p.client.Embed(callCtx, []string{normalized})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return permanent(err)
				}
				return err
			}
			if len(vecs) == 0 || len(vecs[0]) == 0 {
				return fmt.Errorf("client %s returned no vector", p.client.Name())
			}
			vec = vecs[0]
			return nil
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			// Waiting out the backoff will not close the breaker.
			return permanent(err)
		}
		return err
	}, p.opts.MaxAttempts, p.opts.BaseDelay, p.opts.MaxDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	p.cache.Put(normalized, vec)
	return vec, nil
}

// Name reports the wrapped client's name.
func (p *Provider) Name() string {
	return p.client.Name()
}
