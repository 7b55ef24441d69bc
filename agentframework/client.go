// Copyright (c) Microsoft. All rights reserved.

package agentframework

import "context"

// ChatClient sends conversations to a model. The openai package provides the
// Azure OpenAI implementation.
type ChatClient interface {
	// Response returns the complete reply to messages.
	Response(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

	// StreamResponse returns the reply as a stream of fragments.
	StreamResponse(ctx context.Context, messages []Message, opts *ChatOptions) (*ResponseStream[ChatResponseUpdate], error)
}
