// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

func parseCompletion(c *openai.ChatCompletion) *af.ChatResponse {
	resp := &af.ChatResponse{
		ResponseID: c.ID,
		ModelID:    c.Model,
		Usage:      parseUsage(c.Usage),
		Raw:        c,
	}
	for _, ch := range c.Choices {
		msg := af.Message{Role: af.RoleAssistant}
		if ch.Message.Content != "" {
			msg.Contents = append(msg.Contents, &af.TextContent{Text: ch.Message.Content})
		}
		if ch.Message.Refusal != "" {
			msg.Contents = append(msg.Contents, &af.ErrorContent{Message: ch.Message.Refusal, Code: "refusal"})
		}
		for _, tc := range ch.Message.ToolCalls {
			msg.Contents = append(msg.Contents, &af.FunctionCallContent{
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		resp.Messages = append(resp.Messages, msg)
		if ch.FinishReason != "" {
			resp.FinishReason = af.FinishReason(ch.FinishReason)
		}
	}
	return resp
}

func parseChunk(c *openai.ChatCompletionChunk) af.ChatResponseUpdate {
	u := af.ChatResponseUpdate{
		ResponseID: c.ID,
		ModelID:    c.Model,
		Usage:      parseUsage(c.Usage),
	}
	for _, ch := range c.Choices {
		if ch.Delta.Role != "" {
			u.Role = af.Role(ch.Delta.Role)
		}
		if ch.Delta.Content != "" {
			u.Contents = append(u.Contents, &af.TextContent{Text: ch.Delta.Content})
		}
		for _, tc := range ch.Delta.ToolCalls {
			u.Contents = append(u.Contents, &af.FunctionCallContent{
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		if ch.FinishReason != "" {
			u.FinishReason = af.FinishReason(ch.FinishReason)
		}
	}
	return u
}

func parseUsage(u openai.CompletionUsage) af.UsageDetails {
	return af.UsageDetails{
		InputTokens:  int(u.PromptTokens),
		OutputTokens: int(u.CompletionTokens),
		TotalTokens:  int(u.TotalTokens),
	}
}

// mapError converts SDK API errors into [af.ServiceError]. Context errors
// pass through; other transport errors are wrapped in ErrService.
func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return af.NewServiceError(apiErr.StatusCode, apiErr.Code, msg)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", af.ErrService, err)
}
