// Copyright (c) Microsoft. All rights reserved.

package agentframework

import "strings"

// Role identifies the author of a [Message].
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// FinishReason reports why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// Message is a single chat turn.
type Message struct {
	Role       Role
	Contents   Contents
	AuthorName string
	MessageID  string

	// Raw holds the provider representation the message was parsed from.
	Raw any
}

// Text concatenates the message's [TextContent] parts.
func (m *Message) Text() string {
	var b strings.Builder
	for _, c := range m.Contents {
		if t, ok := c.(*TextContent); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// Citations returns the message's [CitationContent] parts.
func (m *Message) Citations() []*CitationContent {
	var out []*CitationContent
	for _, c := range m.Contents {
		if ct, ok := c.(*CitationContent); ok {
			out = append(out, ct)
		}
	}
	return out
}

func textMessage(role Role, text string) Message {
	return Message{Role: role, Contents: Contents{&TextContent{Text: text}}}
}

// NewUserMessage returns a user message holding text.
func NewUserMessage(text string) Message { return textMessage(RoleUser, text) }

// NewAssistantMessage returns an assistant message holding text.
func NewAssistantMessage(text string) Message { return textMessage(RoleAssistant, text) }

// NewSystemMessage returns a system message holding text.
func NewSystemMessage(text string) Message { return textMessage(RoleSystem, text) }

// NewToolMessage returns the tool-role message answering callID.
func NewToolMessage(callID string, result any) Message {
	return Message{
		Role:     RoleTool,
		Contents: Contents{&FunctionResultContent{CallID: callID, Result: result}},
	}
}

// EnsureSystemMessage puts a system message carrying instructions in front of
// messages, unless instructions is empty or a system message is already
// present.
func EnsureSystemMessage(messages []Message, instructions string) []Message {
	if instructions == "" {
		return messages
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			return messages
		}
	}
	out := make([]Message, 0, len(messages)+1)
	out = append(out, NewSystemMessage(instructions))
	return append(out, messages...)
}
