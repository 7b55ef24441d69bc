// Copyright (c) Microsoft. All rights reserved.

package agentframework

import "context"

// ContextProvider contributes per-run context, such as retrieved passages,
// and observes the exchange afterwards.
type ContextProvider interface {
	// Invoking runs before the model is called. Its instructions are
	// appended to the system prompt, its messages are placed before the
	// conversation and its tools are added to the run.
	Invoking(ctx context.Context, messages []Message) (*InvocationContext, error)

	// Invoked runs after a successful model call.
	Invoked(ctx context.Context, request, response []Message) error
}

// InvocationContext is what a [ContextProvider] contributes to one run.
type InvocationContext struct {
	Instructions string
	Messages     []Message
	Tools        []Tool
}

// NoOpContextProvider can be embedded to skip hooks an implementation does
// not need.
type NoOpContextProvider struct{}

func (NoOpContextProvider) Invoking(context.Context, []Message) (*InvocationContext, error) {
	return nil, nil
}

func (NoOpContextProvider) Invoked(context.Context, []Message, []Message) error { return nil }
