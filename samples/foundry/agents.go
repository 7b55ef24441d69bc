// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/foundry"
)

func newAgentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Create, list and delete service agents",
	}
	cmd.AddCommand(newAgentsCreateCmd(a), newAgentsListCmd(a), newAgentsDeleteCmd(a))
	return cmd
}

func newAgentsCreateCmd(a *app) *cobra.Command {
	var file, name, instructions, model string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create agents from a definitions file, or one agent from flags",
		Example: `  foundry agents create --file agents.yaml
  foundry agents create --name helper --instructions "You are a helpful agent."`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			if file != "" {
				defs, err := foundry.LoadDefinitions(file)
				if err != nil {
					return err
				}
				created, err := a.createDefinitions(cmd.Context(), client, defs)
				for _, ag := range created {
					fmt.Printf("Created %s (%s)\n", ag.Name, ag.ID)
				}
				return err
			}
			if name == "" {
				return fmt.Errorf("either --file or --name is required")
			}
			if model == "" {
				model = a.settings.Project.ModelDeployment
			}
			ag, err := client.CreateAgent(cmd.Context(), &foundry.CreateAgentRequest{
				Model:        model,
				Name:         name,
				Instructions: instructions,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%s)\n", ag.Name, ag.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML agent definitions")
	cmd.Flags().StringVar(&name, "name", "", "agent name")
	cmd.Flags().StringVar(&instructions, "instructions", "You are a helpful agent.", "agent instructions")
	cmd.Flags().StringVar(&model, "model", "", "model deployment (default from settings)")
	return cmd
}

// createDefinitions creates defs so that connected agents exist before the
// agents that call them. Function tools resolve against the demo tools.
func (a *app) createDefinitions(ctx context.Context, client *foundry.Client, defs []foundry.Definition) ([]*foundry.Agent, error) {
	ordered, err := foundry.CreationOrder(defs)
	if err != nil {
		return nil, err
	}
	bindings := foundry.ToolBindings{
		Functions:           demoTools(),
		BingConnectionID:    a.settings.Tools.BingConnectionID,
		BrowserConnectionID: a.settings.Tools.BrowserConnectionID,
		SearchConnectionID:  a.settings.Tools.SearchConnectionID,
		AgentIDs:            map[string]string{},
	}
	var created []*foundry.Agent
	for i := range ordered {
		def := &ordered[i]
		if def.Model == "" {
			def.Model = a.settings.Project.ModelDeployment
		}
		req, err := def.Request(bindings)
		if err != nil {
			return created, err
		}
		ag, err := client.CreateAgent(ctx, req)
		if err != nil {
			return created, fmt.Errorf("create %s: %w", def.Name, err)
		}
		bindings.AgentIDs[def.Name] = ag.ID
		created = append(created, ag)
	}
	return created, nil
}

// deleteAgents removes agents created for a single demo run. Failures are
// logged so that they do not mask the run's own error.
func (a *app) deleteAgents(ctx context.Context, client *foundry.Client, agents ...*foundry.Agent) {
	ctx = context.WithoutCancel(ctx)
	for _, ag := range agents {
		if err := client.DeleteAgent(ctx, ag.ID); err != nil {
			a.logger.WarnContext(ctx, "delete agent", "agent_id", ag.ID, "error", err)
		}
	}
}

func newAgentsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the project's agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			agents, err := client.ListAgents(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMODEL\tTOOLS")
			for _, ag := range agents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", ag.ID, ag.Name, ag.Model, len(ag.Tools))
			}
			return w.Flush()
		},
	}
}

func newAgentsDeleteCmd(a *app) *cobra.Command {
	var byName bool
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete agents by ID, or by name with --name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			for _, arg := range args {
				id := arg
				if byName {
					ag, ok, err := client.FindAgent(cmd.Context(), arg)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("agent %q: %w", arg, af.ErrNotFound)
					}
					id = ag.ID
				}
				if err := client.DeleteAgent(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&byName, "name", false, "arguments are agent names")
	return cmd
}
