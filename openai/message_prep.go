// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// buildParams converts framework messages and options into a Chat
// Completions request.
func buildParams(messages []af.Message, opts *af.ChatOptions, defaultModel string) (openai.ChatCompletionNewParams, error) {
	if opts == nil {
		opts = &af.ChatOptions{}
	}
	model := opts.ModelID
	if model == "" {
		model = defaultModel
	}
	msgs, err := convertMessages(af.EnsureSystemMessage(messages, opts.Instructions))
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: msgs,
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}
	if opts.TopP != nil {
		params.TopP = openai.Float(*opts.TopP)
	}
	if opts.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*opts.MaxTokens))
	}
	if opts.Seed != nil {
		params.Seed = openai.Int(*opts.Seed)
	}
	if opts.User != "" {
		params.User = openai.String(opts.User)
	}

	if len(opts.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(opts.Tools))
		for _, t := range opts.Tools {
			fn := shared.FunctionDefinitionParam{Name: t.Name()}
			if t.Description() != "" {
				fn.Description = openai.String(t.Description())
			}
			if raw := t.Parameters(); len(raw) > 0 {
				var schema map[string]any
				if err := json.Unmarshal(raw, &schema); err != nil {
					return params, fmt.Errorf("%w: tool %s parameters: %v", af.ErrInvalidRequest, t.Name(), err)
				}
				fn.Parameters = shared.FunctionParameters(schema)
			}
			tools = append(tools, openai.ChatCompletionToolParam{Function: fn})
		}
		params.Tools = tools
	}

	if opts.ToolChoice != "" {
		if name, ok := opts.ToolChoice.FunctionName(); ok {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
					Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: name},
				},
			}
		} else {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(string(opts.ToolChoice)),
			}
		}
	}

	if rf := opts.ResponseFormat; rf != nil {
		switch rf.Type {
		case "json_object":
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			}
		case "json_schema":
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
					JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:   rf.SchemaName,
						Schema: rf.Schema,
					},
				},
			}
		case "text":
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfText: &shared.ResponseFormatTextParam{},
			}
		}
	}
	return params, nil
}

func convertMessages(messages []af.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		switch m.Role {
		case af.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case af.RoleUser:
			out = append(out, openai.UserMessage(m.Text()))
		case af.RoleAssistant:
			out = append(out, assistantMessage(m))
		case af.RoleTool:
			for _, c := range m.Contents {
				if r, ok := c.(*af.FunctionResultContent); ok {
					out = append(out, openai.ToolMessage(af.FormatResult(r.Result), r.CallID))
				}
			}
		default:
			return nil, fmt.Errorf("%w: unsupported role %q", af.ErrInvalidRequest, m.Role)
		}
	}
	return out, nil
}

func assistantMessage(m *af.Message) openai.ChatCompletionMessageParamUnion {
	var calls []openai.ChatCompletionMessageToolCallParam
	for _, c := range m.Contents {
		if fc, ok := c.(*af.FunctionCallContent); ok {
			calls = append(calls, openai.ChatCompletionMessageToolCallParam{
				ID: fc.CallID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      fc.Name,
					Arguments: fc.Arguments,
				},
			})
		}
	}
	if len(calls) == 0 {
		return openai.AssistantMessage(m.Text())
	}
	msg := &openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if text := m.Text(); text != "" {
		msg.Content.OfString = openai.String(text)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: msg}
}
