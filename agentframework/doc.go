// Copyright (c) Microsoft. All rights reserved.

// Package agentframework is the local agent core shared by the samples: chat
// messages and content, a [ChatClient] abstraction, tools with reflected JSON
// schemas, a function calling loop, sessions and middleware.
//
// Build an agent on any ChatClient, such as the one in the openai package:
//
//	agent := agentframework.NewAgent(client,
//	    agentframework.WithName("assistant"),
//	    agentframework.WithInstructions("You are helpful."),
//	    agentframework.WithTools(weatherTool),
//	)
//	resp, err := agent.Run(ctx, []agentframework.Message{
//	    agentframework.NewUserMessage("Weather in Oslo?"),
//	})
//
// # Tools
//
// [NewTypedTool] derives the parameter schema from a struct:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name,required"`
//	    Unit     string `json:"unit"     jsonschema:"enum=celsius|fahrenheit"`
//	}
//
// The same [Tool] values can be handed to the foundry package, which resolves
// service-side requires_action steps with them.
//
// # Middleware
//
// Middleware exists at three levels: around a whole run ([AgentMiddleware]),
// around each model call ([ChatMiddleware]) and around each tool call
// ([FunctionMiddleware]). [LoggingMiddleware] and [Metrics] are provided.
//
// # Sessions
//
// A [Session] carries history between runs. Local sessions keep it in a
// [MessageStore]; [JSONFileStore] doubles as a transcript dump.
package agentframework
