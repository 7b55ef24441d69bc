// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/microsoft/foundry-samples/go/foundry"
	"github.com/microsoft/foundry-samples/go/orchestration"
)

const (
	researcherInstructions = "You are a researcher. List the key facts needed to answer the question as short bullet points. Do not write prose."
	writerInstructions     = "You are a writer. Turn research notes into a clear answer of at most three short paragraphs."
	writerPrompt           = "Question: {{.Original}}\n\nResearch notes:\n{{.Input}}\n\nWrite the answer."
)

func newChainCmd(a *app) *cobra.Command {
	var connected bool
	cmd := &cobra.Command{
		Use:   "chain [question]",
		Short: "Chain a researcher and a writer agent",
		Long: `Without --connected the orchestrator passes the researcher's notes to the
writer through a prompt template, using chat-completions agents. With
--connected both agents live in the Agents service and the writer calls the
researcher itself as a connected agent tool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := question(args, "Why do Go programs start so quickly?")
			var (
				out string
				err error
			)
			if connected {
				out, err = a.connectedChain(cmd.Context(), q)
			} else {
				out, err = a.localChain(cmd.Context(), q)
			}
			if err != nil {
				return err
			}
			fmt.Printf("\n%s\n", out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&connected, "connected", false, "use service agents joined by a connected agent tool")
	return cmd
}

func (a *app) localChain(ctx context.Context, q string) (string, error) {
	researcher, err := a.localAgent("Researcher", researcherInstructions)
	if err != nil {
		return "", err
	}
	writer, err := a.localAgent("Writer", writerInstructions)
	if err != nil {
		return "", err
	}
	chain, err := orchestration.NewChain([]orchestration.Stage{
		{Responder: a.responder(orchestration.NewLocalResponder(researcher))},
		{Responder: a.responder(orchestration.NewLocalResponder(writer)), Prompt: writerPrompt},
	}, orchestration.WithSequenceLogger(a.seq))
	if err != nil {
		return "", err
	}
	res, err := chain.Run(ctx, q)
	if err != nil {
		return "", err
	}
	for _, s := range res.Steps {
		fmt.Printf("[%s] %s\n", s.Stage, s.Duration.Round(time.Millisecond))
	}
	return res.Output, nil
}

func (a *app) connectedChain(ctx context.Context, q string) (string, error) {
	client, err := a.foundryClient()
	if err != nil {
		return "", err
	}
	model := a.settings.Project.ModelDeployment
	researcher, err := client.CreateAgent(ctx, &foundry.CreateAgentRequest{
		Model:        model,
		Name:         "researcher",
		Instructions: researcherInstructions,
	})
	if err != nil {
		return "", err
	}
	defer a.deleteAgents(ctx, client, researcher)

	writer, err := client.CreateAgent(ctx, &foundry.CreateAgentRequest{
		Model:        model,
		Name:         "writer",
		Instructions: writerInstructions + " Call the researcher tool first to gather notes.",
		Tools: []foundry.ToolDefinition{
			foundry.ConnectedAgentTool(researcher.ID, "researcher", "Gathers the key facts for a question."),
		},
	})
	if err != nil {
		return "", err
	}
	defer a.deleteAgents(ctx, client, writer)

	chain, err := orchestration.NewChain([]orchestration.Stage{
		{Responder: a.responder(orchestration.NewServiceResponder(client, writer, nil))},
	}, orchestration.WithSequenceLogger(a.seq))
	if err != nil {
		return "", err
	}
	res, err := chain.Run(ctx, q)
	if err != nil {
		return "", err
	}
	a.seq.Note("writer", "called researcher as a connected agent")
	return res.Output, nil
}
