// Copyright (c) Microsoft. All rights reserved.

package agentframework

import "strings"

// UsageDetails holds token counts reported by the service.
type UsageDetails struct {
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
	TotalTokens  int `json:"totalTokens,omitempty"`
}

// Add accumulates other into u.
func (u *UsageDetails) Add(other UsageDetails) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// ChatResponse is a complete model response.
type ChatResponse struct {
	Messages     []Message
	ResponseID   string
	ModelID      string
	FinishReason FinishReason
	Usage        UsageDetails
	Raw          any
}

// Text concatenates the text of every message in the response.
func (r *ChatResponse) Text() string { return joinText(r.Messages) }

// ChatResponseUpdate is one streamed fragment of a model response.
type ChatResponseUpdate struct {
	Contents     Contents
	Role         Role
	ResponseID   string
	ModelID      string
	FinishReason FinishReason
	Usage        UsageDetails
}

// Text concatenates the text parts of the update.
func (u *ChatResponseUpdate) Text() string {
	m := Message{Contents: u.Contents}
	return m.Text()
}

// AgentResponse is the outcome of [Agent.Run].
type AgentResponse struct {
	Messages   []Message
	ResponseID string
	AgentID    string
	Usage      UsageDetails
	Raw        any
}

// Text concatenates the text of every message in the response.
func (r *AgentResponse) Text() string { return joinText(r.Messages) }

func joinText(msgs []Message) string {
	var b strings.Builder
	for i := range msgs {
		b.WriteString(msgs[i].Text())
	}
	return b.String()
}

// MergeUpdates folds streamed updates into a single [ChatResponse]. Adjacent
// text fragments are joined; function-call fragments that share a call ID
// (or follow one without an ID) have their arguments concatenated.
func MergeUpdates(updates []ChatResponseUpdate) *ChatResponse {
	resp := &ChatResponse{}
	role := RoleAssistant
	var merged Contents
	var text strings.Builder
	var lastCall *FunctionCallContent

	flush := func() {
		if text.Len() > 0 {
			merged = append(merged, &TextContent{Text: text.String()})
			text.Reset()
		}
	}

	for _, u := range updates {
		if u.Role != "" {
			role = u.Role
		}
		if u.ResponseID != "" {
			resp.ResponseID = u.ResponseID
		}
		if u.ModelID != "" {
			resp.ModelID = u.ModelID
		}
		if u.FinishReason != "" {
			resp.FinishReason = u.FinishReason
		}
		if u.Usage.TotalTokens > 0 {
			resp.Usage = u.Usage
		}
		for _, c := range u.Contents {
			switch v := c.(type) {
			case *TextContent:
				text.WriteString(v.Text)
			case *FunctionCallContent:
				if lastCall != nil && (v.CallID == "" || v.CallID == lastCall.CallID) {
					lastCall.Arguments += v.Arguments
					if lastCall.Name == "" {
						lastCall.Name = v.Name
					}
					continue
				}
				flush()
				call := *v
				lastCall = &call
				merged = append(merged, lastCall)
			default:
				flush()
				merged = append(merged, c)
			}
		}
	}
	flush()

	if len(merged) > 0 {
		resp.Messages = []Message{{Role: role, Contents: merged}}
	}
	return resp
}

// AgentResponseUpdate is one streamed fragment of [Agent.RunStream].
type AgentResponseUpdate struct {
	Contents   Contents
	Role       Role
	AgentID    string
	ResponseID string
	Usage      UsageDetails
}

// Text concatenates the text parts of the update.
func (u *AgentResponseUpdate) Text() string {
	m := Message{Contents: u.Contents}
	return m.Text()
}
