// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Embedder turns texts into vectors, one per text in input order. The
// openai package's Embedder satisfies it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const DefaultEmbedBatchSize = 16

// CachedEmbedder sends texts to an Embedder in batches, pacing requests and
// skipping texts already in its cache.
type CachedEmbedder struct {
	next      Embedder
	model     string
	cache     Cache
	batchSize int
	limiter   *rate.Limiter
}

type EmbedderOption func(*CachedEmbedder)

// WithBatchSize sets the texts per request. Default 16.
func WithBatchSize(n int) EmbedderOption {
	return func(e *CachedEmbedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithRequestRate limits embedding requests to r per second.
func WithRequestRate(r float64, burst int) EmbedderOption {
	return func(e *CachedEmbedder) { e.limiter = rate.NewLimiter(rate.Limit(r), max(burst, 1)) }
}

// NewCachedEmbedder wraps next. model scopes the cache keys; a nil cache
// disables caching.
func NewCachedEmbedder(next Embedder, model string, cache Cache, opts ...EmbedderOption) *CachedEmbedder {
	if cache == nil {
		cache = NopCache{}
	}
	e := &CachedEmbedder{
		next:      next,
		model:     model,
		cache:     cache,
		batchSize: DefaultEmbedBatchSize,
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	// pending maps each uncached text to the positions waiting for it.
	pending := map[string][]int{}
	var misses []string
	for i, t := range texts {
		keys[i] = CacheKey(e.model, t)
		vec, ok, err := e.cache.Get(ctx, keys[i])
		if err != nil {
			slog.WarnContext(ctx, "embedding cache read failed", "error", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		if _, seen := pending[t]; !seen {
			misses = append(misses, t)
		}
		pending[t] = append(pending[t], i)
	}

	for start := 0; start < len(misses); start += e.batchSize {
		batch := misses[start:min(start+e.batchSize, len(misses))]
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		vecs, err := e.next.Embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%w: %d embeddings for %d texts", af.ErrInvalidResponse, len(vecs), len(batch))
		}
		for j, t := range batch {
			for _, i := range pending[t] {
				out[i] = vecs[j]
			}
			if err := e.cache.Set(ctx, keys[pending[t][0]], vecs[j]); err != nil {
				slog.WarnContext(ctx, "embedding cache write failed", "error", err)
			}
		}
	}
	slog.DebugContext(ctx, "embedded", "texts", len(texts), "cache_misses", len(misses))
	return out, nil
}
