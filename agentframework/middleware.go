// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
)

// AgentRequest is what flows through the agent middleware chain.
type AgentRequest struct {
	AgentName string
	Messages  []Message
	Session   *Session
	Options   *ChatOptions
}

// AgentHandler processes one agent run.
type AgentHandler func(ctx context.Context, req *AgentRequest) (*AgentResponse, error)

// AgentMiddleware decorates an [AgentHandler].
type AgentMiddleware func(next AgentHandler) AgentHandler

// ChatHandler processes one model call.
type ChatHandler func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

// ChatMiddleware decorates a [ChatHandler].
type ChatMiddleware func(next ChatHandler) ChatHandler

// FunctionHandler invokes one tool.
type FunctionHandler func(ctx context.Context, tool Tool, args json.RawMessage) (any, error)

// FunctionMiddleware decorates a [FunctionHandler].
type FunctionMiddleware func(next FunctionHandler) FunctionHandler

func chainAgent(h AgentHandler, mws ...AgentMiddleware) AgentHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ChainChat wraps h with mws so that mws[0] runs first.
func ChainChat(h ChatHandler, mws ...ChatMiddleware) ChatHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// InvokeTool runs tool through the function middleware chain. Service-side
// runs in the foundry package use it so that local and remote tool calls are
// observed the same way.
func InvokeTool(ctx context.Context, tool Tool, args json.RawMessage, mws ...FunctionMiddleware) (any, error) {
	h := FunctionHandler(func(ctx context.Context, t Tool, a json.RawMessage) (any, error) {
		return t.Invoke(ctx, a)
	})
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h(ctx, tool, args)
}
