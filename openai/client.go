// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Client implements [af.ChatClient] with Chat Completions.
type Client struct {
	sdk        openai.Client
	deployment string
	handler    af.ChatHandler
}

var _ af.ChatClient = (*Client)(nil)

// New builds a client. Pass [WithEndpoint] for Azure OpenAI or
// [WithBaseURL] for another OpenAI-compatible server.
func New(opts ...Option) *Client {
	cfg := newConfig(opts)
	c := &Client{
		sdk:        openai.NewClient(cfg.requestOptions()...),
		deployment: cfg.deployment,
	}
	c.handler = af.ChainChat(c.complete, cfg.chatMiddleware...)
	return c
}

// Deployment returns the default deployment or model name.
func (c *Client) Deployment() string { return c.deployment }

// Response sends one non-streaming completion request.
func (c *Client) Response(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

func (c *Client) complete(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	params, err := buildParams(messages, opts, c.deployment)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "chat completion",
		"model", params.Model,
		"messages", len(params.Messages),
		"tools", len(params.Tools),
	)

	completion, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion %s has no choices", af.ErrInvalidResponse, completion.ID)
	}
	return parseCompletion(completion), nil
}

// StreamResponse streams a completion. Usage arrives on the final update.
func (c *Client) StreamResponse(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	params, err := buildParams(messages, opts, c.deployment)
	if err != nil {
		return nil, err
	}
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}

	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			select {
			case ch <- parseChunk(&chunk):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := stream.Err(); err != nil {
			return mapError(err)
		}
		return nil
	}), nil
}
