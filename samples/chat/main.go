// Copyright (c) Microsoft. All rights reserved.

// Command chat demonstrates a multi-turn conversational agent with tool use
// against Azure OpenAI.
//
// Usage with an API key:
//
//	export AZURE_OPENAI_ENDPOINT=https://<resource>.openai.azure.com
//	export AZURE_OPENAI_API_KEY=<your-key>
//	export AZURE_OPENAI_CHAT_DEPLOYMENT=gpt-4o   # optional, defaults to gpt-4o
//	go run .
//
// Without AZURE_OPENAI_API_KEY the sample authenticates with Entra ID
// (DefaultAzureCredential: environment, managed identity, az login, ...).
//
// Prefix a line with "stream " to stream the answer. --transcript keeps the
// conversation in a JSON file, so a later run continues where it stopped.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/config"
	"github.com/microsoft/foundry-samples/go/openai"
)

func main() {
	var configPath, transcript string
	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Chat with a tool-using assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, transcript)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "settings file (yaml, json or toml)")
	cmd.Flags().StringVar(&transcript, "transcript", "", "JSON file that keeps the conversation")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, transcript string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := config.NewLogger(settings.Log, os.Stderr)

	client, err := newChatClient(settings.OpenAI)
	if err != nil {
		return err
	}

	// Define tools.
	weatherTool := af.NewTypedTool("get_weather",
		"Get the current weather for a location.",
		func(ctx context.Context, args struct {
			Location string `json:"location" jsonschema:"description=City name or location,required"`
			Unit     string `json:"unit"     jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
		}) (any, error) {
			// Simulated weather API
			unit := args.Unit
			if unit == "" {
				unit = "fahrenheit"
			}
			temp := 72
			if unit == "celsius" {
				temp = 22
			}
			return map[string]any{
				"location":    args.Location,
				"temperature": temp,
				"unit":        unit,
				"condition":   "sunny",
			}, nil
		},
	)

	timeTool := af.NewTool("get_time",
		"Get the current time.",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return "2025-01-15T10:30:00Z", nil
		},
	)

	opts := []af.AgentOption{
		af.WithName("assistant"),
		af.WithInstructions("You are a helpful assistant. When asked about the weather, use the get_weather tool. When asked about the time, use the get_time tool. Keep responses concise."),
		af.WithTools(weatherTool, timeTool),
		af.WithAgentMiddleware(af.LoggingMiddleware(logger)),
	}
	if transcript != "" {
		store, err := af.OpenJSONFileStore(transcript)
		if err != nil {
			return err
		}
		opts = append(opts, af.WithMessageStoreFactory(func() af.MessageStore { return store }))
	}
	agent := af.NewAgent(client, opts...)

	// One session for the whole conversation.
	session := agent.NewSession()

	fmt.Println("Chat with the assistant (type 'quit' to exit, 'stream' prefix for streaming)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		if text, ok := strings.CutPrefix(input, "stream "); ok {
			if err := stream(ctx, agent, session, text); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
		} else {
			resp, err := agent.Run(ctx,
				[]af.Message{af.NewUserMessage(input)},
				af.WithSession(session),
			)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				continue
			}

			fmt.Printf("Assistant: %s\n", resp.Text())
			if resp.Usage.TotalTokens > 0 {
				fmt.Printf("  [tokens: %d in, %d out]\n",
					resp.Usage.InputTokens, resp.Usage.OutputTokens)
			}
		}
		fmt.Println()
	}
	return scanner.Err()
}

func stream(ctx context.Context, agent *af.Agent, session *af.Session, input string) error {
	updates, err := agent.RunStream(ctx,
		[]af.Message{af.NewUserMessage(input)},
		af.WithSession(session),
	)
	if err != nil {
		return err
	}
	defer updates.Close()

	fmt.Print("Assistant: ")
	for {
		update, ok, err := updates.Next(ctx)
		if err != nil {
			fmt.Println()
			return err
		}
		if !ok {
			break
		}
		fmt.Print(update.Text())
	}
	fmt.Println()
	return nil
}

// newChatClient authenticates with the API key when one is configured and
// with Entra ID otherwise.
func newChatClient(s config.OpenAISettings) (*openai.Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	opts := []openai.Option{
		openai.WithEndpoint(s.Endpoint),
		openai.WithAPIVersion(s.APIVersion),
		openai.WithDeployment(s.ChatDeployment),
	}
	if s.APIKey != "" {
		fmt.Printf("Using Azure OpenAI %s (API key)\n", s.Endpoint)
		return openai.New(append(opts, openai.WithAPIKey(s.APIKey))...), nil
	}

	fmt.Printf("Using Azure OpenAI %s (Entra ID)\n", s.Endpoint)
	cred, err := config.Credential()
	if err != nil {
		return nil, err
	}
	return openai.New(append(opts, openai.WithAzureCredential(cred))...), nil
}
