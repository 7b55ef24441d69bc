// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// InvocationConfig bounds the function calling loop.
type InvocationConfig struct {
	// MaxIterations caps model round trips. Default 10.
	MaxIterations int
	// MaxConsecutiveErrors aborts after this many failed tool calls in a
	// row. Default 3.
	MaxConsecutiveErrors int
	// TerminateOnUnknown aborts when the model names a tool that is not
	// registered instead of reporting the error back to it.
	TerminateOnUnknown bool
	// DetailedErrors sends the tool's error text to the model. Otherwise a
	// generic message is sent.
	DetailedErrors bool
}

// DefaultInvocationConfig returns the defaults documented on
// [InvocationConfig].
func DefaultInvocationConfig() InvocationConfig {
	return InvocationConfig{MaxIterations: 10, MaxConsecutiveErrors: 3}
}

func (c InvocationConfig) withDefaults() InvocationConfig {
	d := DefaultInvocationConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = d.MaxConsecutiveErrors
	}
	return c
}

// FunctionCalls extracts the tool calls from a response, in order.
func FunctionCalls(resp *ChatResponse) []*FunctionCallContent {
	var calls []*FunctionCallContent
	for _, m := range resp.Messages {
		for _, c := range m.Contents {
			if fc, ok := c.(*FunctionCallContent); ok {
				calls = append(calls, fc)
			}
		}
	}
	return calls
}

// runToolLoop calls the model until it answers without requesting tools.
// Usage is summed over all round trips.
func runToolLoop(ctx context.Context, chat ChatHandler, messages []Message, opts *ChatOptions, cfg InvocationConfig, mws []FunctionMiddleware) (*ChatResponse, []Message, error) {
	cfg = cfg.withDefaults()
	tools := NewToolSet(opts.Tools...)
	var usage UsageDetails
	var produced []Message
	failures := 0

	for i := 0; i < cfg.MaxIterations; i++ {
		resp, err := chat(ctx, messages, opts)
		if err != nil {
			return nil, nil, err
		}
		usage.Add(resp.Usage)

		calls := FunctionCalls(resp)
		if len(calls) == 0 {
			resp.Usage = usage
			return resp, produced, nil
		}

		messages = append(messages, resp.Messages...)
		produced = append(produced, resp.Messages...)

		for _, call := range calls {
			result, failed, err := callTool(ctx, tools, call, cfg, mws)
			if err != nil {
				return nil, nil, err
			}
			if failed {
				failures++
				if failures >= cfg.MaxConsecutiveErrors {
					return nil, nil, fmt.Errorf("%w: %d consecutive tool failures", ErrToolExecution, failures)
				}
			} else {
				failures = 0
			}
			msg := NewToolMessage(call.CallID, result)
			messages = append(messages, msg)
			produced = append(produced, msg)
		}
	}
	return nil, nil, fmt.Errorf("%w: tool loop exceeded %d iterations", ErrExecution, cfg.MaxIterations)
}

// callTool invokes one call. failed reports a tool-level failure that was
// turned into a result for the model; err is fatal.
func callTool(ctx context.Context, tools *ToolSet, call *FunctionCallContent, cfg InvocationConfig, mws []FunctionMiddleware) (result any, failed bool, err error) {
	tool, ok := tools.Lookup(call.Name)
	if !ok {
		if cfg.TerminateOnUnknown {
			return nil, true, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
		}
		slog.WarnContext(ctx, "model called unknown tool", "tool", call.Name)
		return fmt.Sprintf("error: unknown tool %q", call.Name), true, nil
	}

	out, invokeErr := InvokeTool(ctx, tool, json.RawMessage(call.Arguments), mws...)
	if invokeErr != nil {
		slog.WarnContext(ctx, "tool failed", "tool", call.Name, "error", invokeErr)
		if cfg.DetailedErrors {
			return "error: " + invokeErr.Error(), true, nil
		}
		return "error: tool invocation failed", true, nil
	}
	return out, false, nil
}
