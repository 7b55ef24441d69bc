// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a function the model may call. The same value serves chat
// completions function calling and service-side agent runs.
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON Schema of the argument object.
	Parameters() json.RawMessage
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

// FunctionTool is a [Tool] backed by a Go function.
type FunctionTool struct {
	name        string
	description string
	parameters  json.RawMessage
	fn          func(ctx context.Context, args json.RawMessage) (any, error)
}

var _ Tool = (*FunctionTool)(nil)

// NewTool builds a tool from a hand-written schema.
func NewTool(name, description string, parameters json.RawMessage, fn func(ctx context.Context, args json.RawMessage) (any, error)) *FunctionTool {
	if len(parameters) == 0 {
		parameters = json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// NewTypedTool builds a tool whose schema is derived from Args and whose
// arguments are decoded into Args before fn runs.
//
//	type weatherArgs struct {
//	    City string `json:"city" jsonschema:"description=City name,required"`
//	}
//	tool := agentframework.NewTypedTool("get_weather", "Current weather",
//	    func(ctx context.Context, a weatherArgs) (any, error) { ... })
func NewTypedTool[Args any](name, description string, fn func(ctx context.Context, args Args) (any, error)) *FunctionTool {
	return NewTool(name, description, SchemaFor[Args](), func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args Args
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, &ToolError{ToolName: name, Message: "invalid arguments: " + err.Error(), Err: ErrToolExecution}
			}
		}
		return fn(ctx, args)
	})
}

func (t *FunctionTool) Name() string                { return t.name }
func (t *FunctionTool) Description() string         { return t.description }
func (t *FunctionTool) Parameters() json.RawMessage { return t.parameters }

// Invoke calls the backing function.
func (t *FunctionTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	if t.fn == nil {
		return nil, &ToolError{ToolName: t.name, Message: "no implementation", Err: ErrToolExecution}
	}
	return t.fn(ctx, args)
}

// ToolSet indexes tools by name, keeping registration order.
type ToolSet struct {
	byName map[string]Tool
	order  []Tool
}

// NewToolSet indexes tools. A later tool replaces an earlier one with the
// same name.
func NewToolSet(tools ...Tool) *ToolSet {
	ts := &ToolSet{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		ts.Add(t)
	}
	return ts
}

// Add registers t.
func (ts *ToolSet) Add(t Tool) {
	if _, exists := ts.byName[t.Name()]; exists {
		for i, old := range ts.order {
			if old.Name() == t.Name() {
				ts.order[i] = t
			}
		}
	} else {
		ts.order = append(ts.order, t)
	}
	ts.byName[t.Name()] = t
}

// Lookup finds a tool by name.
func (ts *ToolSet) Lookup(name string) (Tool, bool) {
	if ts == nil {
		return nil, false
	}
	t, ok := ts.byName[name]
	return t, ok
}

// Tools returns the tools in registration order.
func (ts *ToolSet) Tools() []Tool {
	if ts == nil {
		return nil
	}
	return append([]Tool(nil), ts.order...)
}

// Len reports the number of tools.
func (ts *ToolSet) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.order)
}

// FormatResult renders a tool result as the string sent back to the model.
func FormatResult(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case []byte:
		return string(r)
	case error:
		return "error: " + r.Error()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
