// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// LoggingMiddleware logs the start and end of every agent run.
func LoggingMiddleware(logger *slog.Logger) AgentMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next AgentHandler) AgentHandler {
		return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
			start := time.Now()
			logger.InfoContext(ctx, "agent run started",
				"agent", req.AgentName,
				"message_count", len(req.Messages),
			)

			resp, err := next(ctx, req)
			if err != nil {
				logger.ErrorContext(ctx, "agent run failed",
					"agent", req.AgentName,
					"duration", time.Since(start),
					"error", err,
				)
				return nil, err
			}

			logger.InfoContext(ctx, "agent run completed",
				"agent", req.AgentName,
				"duration", time.Since(start),
				"response_messages", len(resp.Messages),
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
			)
			return resp, nil
		}
	}
}

// FunctionLoggingMiddleware logs each tool call at debug level.
func FunctionLoggingMiddleware(logger *slog.Logger) FunctionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next FunctionHandler) FunctionHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			start := time.Now()
			out, err := next(ctx, tool, args)
			logger.DebugContext(ctx, "tool invoked",
				"tool", tool.Name(),
				"args", string(args),
				"duration", time.Since(start),
				"error", err,
			)
			return out, err
		}
	}
}
