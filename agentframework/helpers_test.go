// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

type mockClient struct {
	responseFn func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error)
}

func (m *mockClient) Response(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	return m.responseFn(ctx, msgs, opts)
}

func (m *mockClient) StreamResponse(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		resp, err := m.responseFn(ctx, msgs, opts)
		if err != nil {
			return err
		}
		for _, msg := range resp.Messages {
			for _, c := range msg.Contents {
				select {
				case ch <- af.ChatResponseUpdate{Contents: af.Contents{c}, Role: msg.Role, ResponseID: resp.ResponseID}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	}), nil
}

func reply(text string) *af.ChatResponse {
	return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage(text)}}
}

func callResponse(callID, name, args string) *af.ChatResponse {
	return &af.ChatResponse{Messages: []af.Message{{
		Role:     af.RoleAssistant,
		Contents: af.Contents{&af.FunctionCallContent{CallID: callID, Name: name, Arguments: args}},
	}}}
}
