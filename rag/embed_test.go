// Copyright (c) Microsoft. All rights reserved.

package rag_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/rag"
)

// fakeEmbedder returns [len(text), 1] for each text and records batches.
type fakeEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	err     error
	short   bool
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func TestCachedEmbedder_BatchesAndCaches(t *testing.T) {
	inner := &fakeEmbedder{}
	cache := rag.NewMemoryCache()
	e := rag.NewCachedEmbedder(inner, "text-embedding-3-small", cache, rag.WithBatchSize(2))
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{"a", "bb", "a", "ccc", "dddd"})
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	assert.Equal(t, []float32{1, 1}, vecs[0])
	assert.Equal(t, []float32{1, 1}, vecs[2])
	assert.Equal(t, []float32{4, 1}, vecs[4])
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc", "dddd"}}, inner.batches)
	assert.Equal(t, 4, cache.Len())

	vecs, err = e.Embed(ctx, []string{"bb", "eeeee"})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 1}, vecs[0])
	assert.Equal(t, []float32{5, 1}, vecs[1])
	assert.Equal(t, []string{"eeeee"}, inner.batches[2])
}

func TestCachedEmbedder_ModelScopesCache(t *testing.T) {
	assert.NotEqual(t, rag.CacheKey("m1", "text"), rag.CacheKey("m2", "text"))
	assert.Equal(t, rag.CacheKey("m1", "text"), rag.CacheKey("m1", "text"))
}

func TestCachedEmbedder_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := rag.NewCachedEmbedder(&fakeEmbedder{err: boom}, "m", nil).Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)

	_, err = rag.NewCachedEmbedder(&fakeEmbedder{short: true}, "m", nil).Embed(context.Background(), []string{"x", "y"})
	assert.ErrorIs(t, err, af.ErrInvalidResponse)
}

func TestCachedEmbedder_RateLimitHonorsContext(t *testing.T) {
	e := rag.NewCachedEmbedder(&fakeEmbedder{}, "m", nil, rag.WithBatchSize(1), rag.WithRequestRate(0.001, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Embed(ctx, []string{"first", "second"})
	assert.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	c := rag.NewRedisCache(client, time.Minute)
	key := rag.CacheKey("test", t.Name()+time.Now().String())

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []float32{0.25, -1.5, 3}))
	vec, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.25, -1.5, 3}, vec)
}
