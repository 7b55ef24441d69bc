// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/foundry"
	"github.com/microsoft/foundry-samples/go/orchestration"
)

//go:embed agents.yaml
var incidentAgents []byte

func newIncidentCmd(a *app) *cobra.Command {
	var (
		local       bool
		definitions string
		resolver    orchestration.IncidentResolver
	)
	cmd := &cobra.Command{
		Use:   "incident [report]",
		Short: "Alternate triage and remediation agents until an incident is resolved",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defs, err := a.incidentDefinitions(definitions)
			if err != nil {
				return err
			}
			var cleanup func()
			if local {
				err = a.localIncidentAgents(defs, &resolver)
			} else {
				cleanup, err = a.serviceIncidentAgents(ctx, defs, &resolver)
			}
			if cleanup != nil {
				defer cleanup()
			}
			if err != nil {
				return err
			}
			resolver.Log = a.seq

			res, err := resolver.Resolve(ctx, question(args, "web-3 CPU at 98% for 10 minutes, p95 latency 2.4s"))
			if err != nil {
				return err
			}
			for _, r := range res.Rounds {
				fmt.Printf("Round %d\n  triage: %s\n", r.Iteration, r.Triage)
				if r.Remediation != "" {
					fmt.Printf("  remediation: %s\n", r.Remediation)
				}
			}
			if res.Resolved {
				fmt.Printf("Resolved after %d rounds.\n", res.Iterations)
			} else {
				fmt.Printf("Still unresolved after %d rounds; escalate to a human.\n", res.Iterations)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "use chat-completions agents instead of service agents")
	cmd.Flags().StringVar(&definitions, "definitions", "", "YAML file with triage and remediation agents")
	cmd.Flags().IntVar(&resolver.MaxIterations, "max-iterations", orchestration.DefaultIncidentIterations, "triage rounds before giving up")
	cmd.Flags().StringVar(&resolver.StopPhrase, "stop-phrase", orchestration.DefaultStopPhrase, "triage reply that ends the loop")
	return cmd
}

// incidentDefinitions returns the triage and remediation definitions, in
// that order, from path or the built-in file.
func (a *app) incidentDefinitions(path string) ([]foundry.Definition, error) {
	var (
		defs []foundry.Definition
		err  error
	)
	if path != "" {
		defs, err = foundry.LoadDefinitions(path)
	} else {
		defs, err = foundry.ParseDefinitions(incidentAgents)
	}
	if err != nil {
		return nil, err
	}
	byName := map[string]foundry.Definition{}
	for _, d := range defs {
		byName[strings.ToLower(d.Name)] = d
	}
	var out []foundry.Definition
	for _, name := range []string{"triage", "remediation"} {
		d, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("definitions need an agent named %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

func (a *app) localIncidentAgents(defs []foundry.Definition, r *orchestration.IncidentResolver) error {
	tools := demoTools()
	var responders []orchestration.Responder
	for _, d := range defs {
		var own []af.Tool
		for _, spec := range d.Tools {
			if t, ok := tools.Lookup(spec.Name); ok && spec.Type == foundry.ToolTypeFunction {
				own = append(own, t)
			}
		}
		agent, err := a.localAgent(d.Name, d.Instructions, own...)
		if err != nil {
			return err
		}
		responders = append(responders, a.responder(orchestration.NewLocalResponder(agent)))
	}
	r.Triage, r.Remediation = responders[0], responders[1]
	return nil
}

func (a *app) serviceIncidentAgents(ctx context.Context, defs []foundry.Definition, r *orchestration.IncidentResolver) (func(), error) {
	client, err := a.foundryClient()
	if err != nil {
		return nil, err
	}
	created, err := a.createDefinitions(ctx, client, defs)
	cleanup := func() { a.deleteAgents(ctx, client, created...) }
	if err != nil {
		return cleanup, err
	}
	byName := map[string]*foundry.Agent{}
	for _, ag := range created {
		byName[ag.Name] = ag
	}
	tools := demoTools()
	r.Triage = a.responder(orchestration.NewServiceResponder(client, byName[defs[0].Name], tools))
	r.Remediation = a.responder(orchestration.NewServiceResponder(client, byName[defs[1].Name], tools))
	return cleanup, nil
}
