// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Embedder turns text into vectors with an embeddings deployment.
type Embedder struct {
	sdk        openai.Client
	deployment string
	dimensions int
}

// NewEmbedder accepts the same options as [New]; [WithDeployment] names the
// embedding deployment and [WithDimensions] optionally shortens vectors.
func NewEmbedder(opts ...Option) *Embedder {
	cfg := newConfig(opts)
	return &Embedder{
		sdk:        openai.NewClient(cfg.requestOptions()...),
		deployment: cfg.deployment,
		dimensions: cfg.dimensions,
	}
}

// Model names the deployment; cache keys include it.
func (e *Embedder) Model() string { return e.deployment }

// Embed returns one vector per input, in input order.
func (e *Embedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.deployment),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	resp, err := e.sdk.Embeddings.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("%w: %d embeddings for %d inputs", af.ErrInvalidResponse, len(resp.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("%w: bad embedding index %d", af.ErrInvalidResponse, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}
