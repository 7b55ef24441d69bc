// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microsoft/foundry-samples/go/foundry"
)

func newAskCmd(a *app) *cobra.Command {
	var threadID string
	var steps bool
	cmd := &cobra.Command{
		Use:   "ask <agent-id> <question>",
		Short: "Send one message to an existing agent",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			question := strings.Join(args[1:], " ")
			a.seq.Request("User", args[0], question)
			reply, err := client.Ask(cmd.Context(), args[0], threadID, question, foundry.WithLocalTools(demoTools()))
			if err != nil {
				return err
			}
			a.seq.Reply(args[0], "User", reply.Text)
			printReply(reply)
			fmt.Printf("(thread %s)\n", reply.ThreadID)
			if steps {
				return printSteps(cmd, client, reply)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "continue an existing thread")
	cmd.Flags().BoolVar(&steps, "steps", false, "list the run steps")
	return cmd
}

func printReply(reply *foundry.Reply) {
	fmt.Printf("Agent: %s\n", reply.Text)
	for i, c := range reply.Citations {
		switch {
		case c.URL != "":
			fmt.Printf("  [%d] %s %s\n", i+1, c.Title, c.URL)
		case c.FileID != "":
			fmt.Printf("  [%d] file %s\n", i+1, c.FileID)
		}
	}
	if u := reply.Run.Usage; u != nil {
		fmt.Printf("  [tokens: %d in, %d out]\n", u.PromptTokens, u.CompletionTokens)
	}
}

func printSteps(cmd *cobra.Command, client *foundry.Client, reply *foundry.Reply) error {
	steps, err := client.ListRunSteps(cmd.Context(), reply.ThreadID, reply.Run.ID)
	if err != nil {
		return err
	}
	for _, s := range steps {
		line := fmt.Sprintf("  step %s %s %s", s.ID, s.Type, s.Status)
		if tools := s.StepToolTypes(); len(tools) > 0 {
			line += " " + strings.Join(tools, ",")
		}
		fmt.Println(line)
	}
	return nil
}
