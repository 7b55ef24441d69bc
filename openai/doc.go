// Copyright (c) Microsoft. All rights reserved.

// Package openai implements [agentframework.ChatClient] and an embedding
// client on top of the official openai-go SDK, pointed at Azure OpenAI or
// any OpenAI-compatible endpoint.
//
//	client := openai.New(
//	    openai.WithEndpoint(os.Getenv("AZURE_OPENAI_ENDPOINT")),
//	    openai.WithAzureCredential(cred),
//	    openai.WithDeployment("gpt-4o"),
//	)
//	agent := agentframework.NewAgent(client)
//
// Failed calls surface as [agentframework.ServiceError] so callers can match
// them with errors.Is against the agentframework sentinels.
package openai
