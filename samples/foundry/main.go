// Copyright (c) Microsoft. All rights reserved.

// Command foundry walks through the Azure AI Foundry usage patterns: agents
// with hosted and local tools, prompt-chained and connected agents, an
// incident-resolution loop and retrieval-augmented generation over Azure AI
// Search.
//
//	export AZURE_AI_PROJECT_ENDPOINT=https://<resource>.services.ai.azure.com/api/projects/<project>
//	go run . agents list
//	go run . tools code "Plot y = x^2 for x in [-5, 5]"
//	go run . incident --diagram incident.md "web-3 CPU at 98% for 10 minutes"
//	go run . rag index ./docs && go run . rag ask "What is the return policy?"
//
// Settings come from .env, --config and the environment; see package config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
