// Copyright (c) Microsoft. All rights reserved.

// Package foundry is a client for the Azure AI Agents service of an Azure AI
// Foundry project: agents, threads, messages, runs, files and vector stores.
//
// Service agents run server-side. Built-in tools (file search, code
// interpreter, Bing grounding, browser automation, connected agents, Azure
// AI Search) execute in the service; function tools are declared with
// [FunctionToolDef] and executed locally by [Client.RunAndWait] when a run
// stops in requires_action.
//
//	client, _ := foundry.NewClient(endpoint, cred, nil)
//	agent, _ := client.CreateAgent(ctx, &foundry.CreateAgentRequest{
//	    Model:        "gpt-4o",
//	    Name:         "researcher",
//	    Instructions: "Answer with sources.",
//	    Tools:        []foundry.ToolDefinition{foundry.BingGroundingTool(connID)},
//	})
//	defer client.DeleteAgent(ctx, agent.ID)
//	reply, _ := client.Ask(ctx, agent.ID, "", "What changed in Go 1.24?")
package foundry
