// Copyright (c) Microsoft. All rights reserved.

package agentframework

// ToolChoice controls whether and which tools the model may call.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// ToolChoiceFunction forces a call to the named function.
func ToolChoiceFunction(name string) ToolChoice {
	return ToolChoice("function:" + name)
}

// FunctionName reports the forced function name, if any.
func (tc ToolChoice) FunctionName() (string, bool) {
	const prefix = "function:"
	s := string(tc)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return "", false
}

// ResponseFormat selects structured output. The zero value means plain text.
type ResponseFormat struct {
	// Type is "text", "json_object" or "json_schema".
	Type       string
	SchemaName string
	Schema     map[string]any
}

// ChatOptions tunes a single request. Nil pointers mean "service default".
type ChatOptions struct {
	ModelID        string
	Instructions   string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	Seed           *int64
	User           string
	Tools          []Tool
	ToolChoice     ToolChoice
	ResponseFormat *ResponseFormat
	Metadata       map[string]string
}

// MergeChatOptions layers override on top of base without modifying either.
// Set fields of override win; instructions are joined with a newline; tools
// are merged by name with override replacing base entries of the same name.
func MergeChatOptions(base, override *ChatOptions) *ChatOptions {
	out := &ChatOptions{}
	if base != nil {
		*out = *base
		out.Tools = append([]Tool(nil), base.Tools...)
		out.Metadata = copyMetadata(base.Metadata)
	}
	if override == nil {
		return out
	}

	if override.ModelID != "" {
		out.ModelID = override.ModelID
	}
	if override.Temperature != nil {
		out.Temperature = override.Temperature
	}
	if override.TopP != nil {
		out.TopP = override.TopP
	}
	if override.MaxTokens != nil {
		out.MaxTokens = override.MaxTokens
	}
	if override.Seed != nil {
		out.Seed = override.Seed
	}
	if override.User != "" {
		out.User = override.User
	}
	if override.ToolChoice != "" {
		out.ToolChoice = override.ToolChoice
	}
	if override.ResponseFormat != nil {
		out.ResponseFormat = override.ResponseFormat
	}
	out.Instructions = joinInstructions(out.Instructions, override.Instructions)

	for _, t := range override.Tools {
		replaced := false
		for i, existing := range out.Tools {
			if existing.Name() == t.Name() {
				out.Tools[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			out.Tools = append(out.Tools, t)
		}
	}

	if len(override.Metadata) > 0 {
		if out.Metadata == nil {
			out.Metadata = make(map[string]string, len(override.Metadata))
		}
		for k, v := range override.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func joinInstructions(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n" + b
	}
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
