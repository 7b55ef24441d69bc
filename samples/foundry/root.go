// Copyright (c) Microsoft. All rights reserved.

package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "foundry",
		Short:         "Azure AI Foundry agent, tool, orchestration and RAG samples",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAgentsCmd(a),
		newAskCmd(a),
		newToolsCmd(a),
		newChainCmd(a),
		newIncidentCmd(a),
		newRAGCmd(a),
	)
	withApp(root, a)
	return root
}
