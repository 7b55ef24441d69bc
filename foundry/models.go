// Copyright (c) Microsoft. All rights reserved.

package foundry

import "encoding/json"

// Agent is a server-side agent: a model with instructions and tools.
type Agent struct {
	ID            string            `json:"id"`
	CreatedAt     int64             `json:"created_at"`
	Name          string            `json:"name,omitempty"`
	Description   string            `json:"description,omitempty"`
	Model         string            `json:"model"`
	Instructions  string            `json:"instructions,omitempty"`
	Tools         []ToolDefinition  `json:"tools"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	TopP          *float64          `json:"top_p,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CreateAgentRequest is the body of CreateAgent and UpdateAgent.
type CreateAgentRequest struct {
	Model         string            `json:"model,omitempty"`
	Name          string            `json:"name,omitempty"`
	Description   string            `json:"description,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
	Tools         []ToolDefinition  `json:"tools,omitempty"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	TopP          *float64          `json:"top_p,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Thread is a conversation container owned by the service.
type Thread struct {
	ID            string            `json:"id"`
	CreatedAt     int64             `json:"created_at"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CreateThreadRequest optionally seeds a thread with messages and resources.
type CreateThreadRequest struct {
	Messages      []CreateMessageRequest `json:"messages,omitempty"`
	ToolResources *ToolResources         `json:"tool_resources,omitempty"`
	Metadata      map[string]string      `json:"metadata,omitempty"`
}

// MessageRole is "user" or "assistant".
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Attachment makes an uploaded file available to tools for one message.
type Attachment struct {
	FileID string           `json:"file_id"`
	Tools  []ToolDefinition `json:"tools"`
}

// CreateMessageRequest adds a message to a thread.
type CreateMessageRequest struct {
	Role        MessageRole       `json:"role"`
	Content     string            `json:"content"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ThreadMessage is a message stored in a thread.
type ThreadMessage struct {
	ID          string           `json:"id"`
	CreatedAt   int64            `json:"created_at"`
	ThreadID    string           `json:"thread_id"`
	Role        MessageRole      `json:"role"`
	Content     []MessageContent `json:"content"`
	AgentID     string           `json:"assistant_id,omitempty"`
	RunID       string           `json:"run_id,omitempty"`
	Attachments []Attachment     `json:"attachments,omitempty"`
}

// MessageContent is one part of a [ThreadMessage]: text or an image file.
type MessageContent struct {
	Type      string       `json:"type"`
	Text      *MessageText `json:"text,omitempty"`
	ImageFile *FileRef     `json:"image_file,omitempty"`
}

type MessageText struct {
	Value       string       `json:"value"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation marks a span of reply text as a citation or generated file.
type Annotation struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	StartIndex   int           `json:"start_index,omitempty"`
	EndIndex     int           `json:"end_index,omitempty"`
	URLCitation  *URLCitation  `json:"url_citation,omitempty"`
	FileCitation *FileCitation `json:"file_citation,omitempty"`
	FilePath     *FileRef      `json:"file_path,omitempty"`
}

type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type FileCitation struct {
	FileID string `json:"file_id"`
	Quote  string `json:"quote,omitempty"`
}

type FileRef struct {
	FileID string `json:"file_id"`
}

// RunStatus is the lifecycle state of a [Run].
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether the run will not change status again.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCancelled, RunStatusFailed, RunStatusCompleted, RunStatusIncomplete, RunStatusExpired:
		return true
	}
	return false
}

// Run is one execution of an agent over a thread.
type Run struct {
	ID                string             `json:"id"`
	ThreadID          string             `json:"thread_id"`
	AgentID           string             `json:"assistant_id"`
	Status            RunStatus          `json:"status"`
	RequiredAction    *RequiredAction    `json:"required_action,omitempty"`
	LastError         *RunLastError      `json:"last_error,omitempty"`
	IncompleteDetails *IncompleteDetails `json:"incomplete_details,omitempty"`
	Model             string             `json:"model,omitempty"`
	Instructions      string             `json:"instructions,omitempty"`
	Usage             *RunUsage          `json:"usage,omitempty"`
	CreatedAt         int64              `json:"created_at"`
	StartedAt         *int64             `json:"started_at,omitempty"`
	CompletedAt       *int64             `json:"completed_at,omitempty"`
}

type RunLastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type IncompleteDetails struct {
	Reason string `json:"reason"`
}

type RunUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RequiredAction lists the function calls the service is waiting on.
type RequiredAction struct {
	Type              string             `json:"type"`
	SubmitToolOutputs *SubmitToolOutputs `json:"submit_tool_outputs,omitempty"`
}

type SubmitToolOutputs struct {
	ToolCalls []RequiredToolCall `json:"tool_calls"`
}

// RequiredToolCall is a function call the client must answer.
type RequiredToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ToolCalls returns the pending calls, or nil.
func (r *Run) ToolCalls() []RequiredToolCall {
	if r.RequiredAction == nil || r.RequiredAction.SubmitToolOutputs == nil {
		return nil
	}
	return r.RequiredAction.SubmitToolOutputs.ToolCalls
}

// RunRequest starts a run.
type RunRequest struct {
	AgentID                string                 `json:"assistant_id"`
	Model                  string                 `json:"model,omitempty"`
	Instructions           string                 `json:"instructions,omitempty"`
	AdditionalInstructions string                 `json:"additional_instructions,omitempty"`
	AdditionalMessages     []CreateMessageRequest `json:"additional_messages,omitempty"`
	Tools                  []ToolDefinition       `json:"tools,omitempty"`
	Temperature            *float64               `json:"temperature,omitempty"`
	MaxPromptTokens        *int                   `json:"max_prompt_tokens,omitempty"`
	MaxCompletionTokens    *int                   `json:"max_completion_tokens,omitempty"`
	Metadata               map[string]string      `json:"metadata,omitempty"`
}

// ToolOutput answers one [RequiredToolCall].
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// RunStep is one unit of work inside a run: a message creation or a batch
// of tool calls.
type RunStep struct {
	ID          string        `json:"id"`
	RunID       string        `json:"run_id"`
	Type        string        `json:"type"`
	Status      string        `json:"status"`
	StepDetails StepDetails   `json:"step_details"`
	LastError   *RunLastError `json:"last_error,omitempty"`
	CreatedAt   int64         `json:"created_at"`
	CompletedAt *int64        `json:"completed_at,omitempty"`
}

type StepDetails struct {
	Type            string `json:"type"`
	MessageCreation *struct {
		MessageID string `json:"message_id"`
	} `json:"message_creation,omitempty"`
	// ToolCalls keeps each call raw; its shape depends on the tool type.
	ToolCalls []json.RawMessage `json:"tool_calls,omitempty"`
}

// StepToolTypes returns the tool type of each call in a tool_calls step.
func (s *RunStep) StepToolTypes() []string {
	var out []string
	for _, raw := range s.StepDetails.ToolCalls {
		var head struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(raw, &head) == nil {
			out = append(out, head.Type)
		}
	}
	return out
}

// File is an uploaded file.
type File struct {
	ID        string `json:"id"`
	Bytes     int64  `json:"bytes"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
	Status    string `json:"status,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// VectorStore indexes files for the file_search tool.
type VectorStore struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	FileCounts struct {
		InProgress int `json:"in_progress"`
		Completed  int `json:"completed"`
		Failed     int `json:"failed"`
		Cancelled  int `json:"cancelled"`
		Total      int `json:"total"`
	} `json:"file_counts"`
	CreatedAt int64 `json:"created_at"`
}

type deletionStatus struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type listPage[T any] struct {
	Data    []T    `json:"data"`
	FirstID string `json:"first_id"`
	LastID  string `json:"last_id"`
	HasMore bool   `json:"has_more"`
}
