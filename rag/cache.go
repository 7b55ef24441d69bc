// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores embeddings by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// CacheKey identifies text embedded by model.
func CacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]float32, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, []float32) error         { return nil }

// MemoryCache is an unbounded process-local cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string][]float32
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string][]float32{}}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = vec
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// RedisCache shares embeddings between processes. Vectors are stored as
// little-endian float32 bytes under "emb:<key>".
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache wraps client. A ttl of 0 keeps entries forever.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	b, err := c.client.Get(ctx, "emb:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(b)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) error {
	return c.client.Set(ctx, "emb:"+key, encodeVector(vec), c.ttl).Err()
}

func encodeVector(vec []float32) []byte {
	b := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return vec, nil
}
