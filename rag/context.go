// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"context"
	"log/slog"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// SearchContextProvider grounds agent runs in a [Pipeline]'s index: before
// each run it retrieves chunks for the latest user message and adds them to
// the instructions.
type SearchContextProvider struct {
	af.NoOpContextProvider
	Pipeline *Pipeline
	K        int
}

var _ af.ContextProvider = (*SearchContextProvider)(nil)

func (p *SearchContextProvider) Invoking(ctx context.Context, messages []af.Message) (*af.InvocationContext, error) {
	var question string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == af.RoleUser {
			question = messages[i].Text()
			break
		}
	}
	if question == "" {
		return nil, nil
	}
	results, err := p.Pipeline.Retrieve(ctx, question, p.K)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "retrieved context", "chunks", len(results))
	if len(results) == 0 {
		return nil, nil
	}
	return &af.InvocationContext{
		Instructions: "Use these sources when they are relevant and cite them as [n].\n" + FormatSources(results),
	}, nil
}
