// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microsoft/foundry-samples/go/config"
	"github.com/microsoft/foundry-samples/go/foundry"
)

func newToolsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Run an agent equipped with one kind of tool",
		Long: `Each subcommand creates a temporary agent with one tool, asks it a
question, prints the reply with its citations or files and deletes the agent.`,
	}
	cmd.AddCommand(
		newBingCmd(a),
		newCodeCmd(a),
		newFilesCmd(a),
		newBrowserCmd(a),
		newFunctionsCmd(a),
	)
	return cmd
}

// toolDemo creates an agent from req, asks question once and cleans up.
func (a *app) toolDemo(ctx context.Context, client *foundry.Client, req *foundry.CreateAgentRequest, question string, opts ...foundry.AskOption) (*foundry.Reply, error) {
	if req.Model == "" {
		req.Model = a.settings.Project.ModelDeployment
	}
	agent, err := client.CreateAgent(ctx, req)
	if err != nil {
		return nil, err
	}
	defer a.deleteAgents(ctx, client, agent)
	fmt.Printf("Created agent %s (%s)\n", agent.Name, agent.ID)

	a.seq.Request("User", agent.Name, question)
	reply, err := client.Ask(ctx, agent.ID, "", question, opts...)
	if err != nil {
		a.seq.Note(agent.Name, "failed: "+err.Error())
		return nil, err
	}
	a.seq.Reply(agent.Name, "User", reply.Text)
	printReply(reply)
	if err := client.DeleteThread(context.WithoutCancel(ctx), reply.ThreadID); err != nil {
		a.logger.WarnContext(ctx, "delete thread", "thread_id", reply.ThreadID, "error", err)
	}
	return reply, nil
}

func question(args []string, fallback string) string {
	if len(args) == 0 {
		return fallback
	}
	return strings.Join(args, " ")
}

func newBingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bing [question]",
		Short: "Grounding with Bing Search",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn := a.settings.Tools.BingConnectionID
			if conn == "" {
				return &config.MissingSettingError{Key: "tools.bing_connection_id", Env: config.Environment["tools.bing_connection_id"]}
			}
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			_, err = a.toolDemo(cmd.Context(), client, &foundry.CreateAgentRequest{
				Name:         "bing-agent",
				Instructions: "Answer with up-to-date information from Bing. Cite your sources.",
				Tools:        []foundry.ToolDefinition{foundry.BingGroundingTool(conn)},
			}, question(args, "What are the latest Go releases?"))
			return err
		},
	}
}

func newBrowserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browser [task]",
		Short: "Browser automation with Playwright",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn := a.settings.Tools.BrowserConnectionID
			if conn == "" {
				return &config.MissingSettingError{Key: "tools.browser_connection_id", Env: config.Environment["tools.browser_connection_id"]}
			}
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			_, err = a.toolDemo(cmd.Context(), client, &foundry.CreateAgentRequest{
				Name:         "browser-agent",
				Instructions: "Use the browser to complete the task and report what you found.",
				Tools:        []foundry.ToolDefinition{foundry.BrowserAutomationTool(conn)},
			}, question(args, "Go to https://go.dev and report the latest stable release."))
			return err
		},
	}
}

func newFunctionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "functions [question]",
		Short: "Local function tools called by a service agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			tools := pick(demoTools(), "get_weather", "get_time")
			_, err = a.toolDemo(cmd.Context(), client, &foundry.CreateAgentRequest{
				Name:         "functions-agent",
				Instructions: "Use get_weather for weather questions and get_time for the time. Keep answers short.",
				Tools:        foundry.FunctionToolDefs(tools),
			}, question(args, "What's the weather in Seattle and what time is it?"), foundry.WithLocalTools(tools))
			return err
		},
	}
}

func newCodeCmd(a *app) *cobra.Command {
	var inputs []string
	var outDir string
	cmd := &cobra.Command{
		Use:   "code [task]",
		Short: "Code interpreter, optionally over uploaded files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			fileIDs, err := uploadAll(ctx, client, inputs)
			defer a.deleteFiles(ctx, client, fileIDs)
			if err != nil {
				return err
			}

			req := &foundry.CreateAgentRequest{
				Name:         "code-agent",
				Instructions: "Write and run Python to solve the task. Save charts as PNG files.",
				Tools:        []foundry.ToolDefinition{foundry.CodeInterpreterTool()},
			}
			if len(fileIDs) > 0 {
				req.ToolResources = &foundry.ToolResources{CodeInterpreter: &foundry.CodeInterpreterResource{FileIDs: fileIDs}}
			}
			reply, err := a.toolDemo(ctx, client, req, question(args, "Plot y = x^2 for x from -5 to 5."))
			if err != nil {
				return err
			}
			for _, f := range reply.Files {
				data, err := client.FileContent(ctx, f.FileID)
				if err != nil {
					return err
				}
				name := f.Filename
				if name == "" {
					name = f.FileID + ".png"
				}
				path := filepath.Join(outDir, filepath.Base(name))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("Saved %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&inputs, "file", nil, "files for the interpreter (repeatable)")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for generated files")
	return cmd
}

func newFilesCmd(a *app) *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "files <file>... -- [question]",
		Short: "File search over a vector store built from local files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			paths, rest := args, []string(nil)
			if n := cmd.ArgsLenAtDash(); n >= 0 {
				paths, rest = args[:n], args[n:]
			}
			client, err := a.foundryClient()
			if err != nil {
				return err
			}
			fileIDs, err := uploadAll(ctx, client, paths)
			if !keep {
				defer a.deleteFiles(ctx, client, fileIDs)
			}
			if err != nil {
				return err
			}

			vs, err := client.CreateVectorStore(ctx, "files-demo", fileIDs)
			if err != nil {
				return err
			}
			if !keep {
				id := vs.ID
				defer func() {
					if err := client.DeleteVectorStore(context.WithoutCancel(ctx), id); err != nil {
						a.logger.WarnContext(ctx, "delete vector store", "vector_store_id", id, "error", err)
					}
				}()
			}
			if vs, err = client.WaitVectorStore(ctx, vs.ID); err != nil {
				return err
			}
			fmt.Printf("Vector store %s ready (%d files)\n", vs.ID, vs.FileCounts.Completed)

			_, err = a.toolDemo(ctx, client, &foundry.CreateAgentRequest{
				Name:          "files-agent",
				Instructions:  "Answer from the uploaded files only and cite them.",
				Tools:         []foundry.ToolDefinition{foundry.FileSearchTool(5)},
				ToolResources: &foundry.ToolResources{FileSearch: &foundry.FileSearchResource{VectorStoreIDs: []string{vs.ID}}},
			}, question(rest, "Summarize these documents."))
			return err
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the uploaded files and vector store")
	return cmd
}

func uploadAll(ctx context.Context, client *foundry.Client, paths []string) ([]string, error) {
	var ids []string
	for _, p := range paths {
		f, err := client.UploadFileFromPath(ctx, p)
		if err != nil {
			return ids, err
		}
		fmt.Printf("Uploaded %s (%s)\n", p, f.ID)
		ids = append(ids, f.ID)
	}
	return ids, nil
}

func (a *app) deleteFiles(ctx context.Context, client *foundry.Client, ids []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := client.DeleteFile(ctx, id); err != nil {
			a.logger.WarnContext(ctx, "delete file", "file_id", id, "error", err)
		}
	}
}
