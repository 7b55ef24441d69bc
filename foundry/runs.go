// Copyright (c) Microsoft. All rights reserved.

package foundry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

func runPath(threadID, runID string) string {
	return threadPath(threadID) + "/runs/" + url.PathEscape(runID)
}

// CreateRun starts an agent on a thread and returns immediately.
func (c *Client) CreateRun(ctx context.Context, threadID string, req *RunRequest) (*Run, error) {
	var r Run
	if err := c.rest.Do(ctx, http.MethodPost, threadPath(threadID)+"/runs", nil, req, &r); err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "run created", "thread_id", threadID, "run_id", r.ID, "agent_id", req.AgentID)
	return &r, nil
}

func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var r Run
	if err := c.rest.Do(ctx, http.MethodGet, runPath(threadID, runID), nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var r Run
	if err := c.rest.Do(ctx, http.MethodPost, runPath(threadID, runID)+"/cancel", nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SubmitToolOutputs answers a requires_action run.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	body := struct {
		ToolOutputs []ToolOutput `json:"tool_outputs"`
	}{outputs}
	var r Run
	if err := c.rest.Do(ctx, http.MethodPost, runPath(threadID, runID)+"/submit_tool_outputs", nil, body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRunSteps returns the steps of a run in execution order.
func (c *Client) ListRunSteps(ctx context.Context, threadID, runID string) ([]RunStep, error) {
	return listAll(ctx, c, runPath(threadID, runID)+"/steps", url.Values{"order": {"asc"}},
		func(s RunStep) string { return s.ID })
}

// RunAndWait creates a run and polls it to a terminal status, answering
// requires_action with the matching tools from tools. Failed, cancelled and
// expired runs return a *[RunError]; incomplete runs are returned without
// error. If the run outlives the client's RunTimeout it is cancelled and
// ErrRunTimeout is returned.
func (c *Client) RunAndWait(ctx context.Context, threadID string, req *RunRequest, tools *af.ToolSet) (run *Run, err error) {
	start := time.Now()
	if c.metrics != nil {
		defer func() { c.metrics.ObserveRun(req.AgentID, time.Since(start), err) }()
	}

	run, err = c.CreateRun(ctx, threadID, req)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	limiter.Allow() // the create call counts as the first poll
	deadline := start.Add(c.runTimeout)

	for {
		switch run.Status {
		case RunStatusCompleted:
			return run, nil
		case RunStatusIncomplete:
			reason := ""
			if run.IncompleteDetails != nil {
				reason = run.IncompleteDetails.Reason
			}
			slog.WarnContext(ctx, "run incomplete", "run_id", run.ID, "reason", reason)
			return run, nil
		case RunStatusFailed, RunStatusCancelled, RunStatusExpired:
			return run, runError(run)
		}

		if time.Now().After(deadline) {
			c.abandon(ctx, threadID, run.ID)
			return run, &RunError{RunID: run.ID, Status: run.Status, Err: ErrRunTimeout}
		}
		if err := limiter.Wait(ctx); err != nil {
			c.abandon(ctx, threadID, run.ID)
			return run, err
		}

		runID := run.ID
		if run.Status == RunStatusRequiresAction {
			outputs := c.resolveToolCalls(ctx, run.ToolCalls(), tools)
			run, err = c.SubmitToolOutputs(ctx, threadID, runID, outputs)
		} else {
			run, err = c.GetRun(ctx, threadID, runID)
		}
		if err != nil {
			c.abandon(ctx, threadID, runID)
			return nil, err
		}
	}
}

// abandon cancels a run the caller has given up on. It outlives ctx so that
// a cancelled caller does not leave the run consuming tokens.
func (c *Client) abandon(ctx context.Context, threadID, runID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := c.CancelRun(cctx, threadID, runID); err != nil {
		slog.WarnContext(ctx, "cancel run", "run_id", runID, "error", err)
	}
}

func (c *Client) resolveToolCalls(ctx context.Context, calls []RequiredToolCall, tools *af.ToolSet) []ToolOutput {
	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		if call.Type != "" && call.Type != ToolTypeFunction {
			continue
		}
		outputs = append(outputs, ToolOutput{ToolCallID: call.ID, Output: c.invoke(ctx, call, tools)})
	}
	return outputs
}

func (c *Client) invoke(ctx context.Context, call RequiredToolCall, tools *af.ToolSet) string {
	name := call.Function.Name
	tool, ok := tools.Lookup(name)
	if !ok {
		slog.WarnContext(ctx, "service requested unknown tool", "tool", name)
		return errorOutput(fmt.Errorf("%w: %s", af.ErrUnknownTool, name))
	}
	out, err := af.InvokeTool(ctx, tool, json.RawMessage(call.Function.Arguments), c.functionMW...)
	if err != nil {
		slog.WarnContext(ctx, "tool failed", "tool", name, "error", err)
		return errorOutput(err)
	}
	return af.FormatResult(out)
}

func errorOutput(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}

// Reply is the outcome of [Client.Ask].
type Reply struct {
	ThreadID  string
	Text      string
	Citations []*af.CitationContent
	Files     []*af.HostedFileContent
	Message   *ThreadMessage
	Run       *Run
}

// AskOption tunes [Client.Ask].
type AskOption func(*askConfig)

type askConfig struct {
	tools        *af.ToolSet
	instructions string
	attachments  []Attachment
}

// WithLocalTools answers requires_action with ts.
func WithLocalTools(ts *af.ToolSet) AskOption {
	return func(c *askConfig) { c.tools = ts }
}

// WithAdditionalInstructions appends to the agent's instructions for this
// run only.
func WithAdditionalInstructions(s string) AskOption {
	return func(c *askConfig) { c.instructions = s }
}

// WithAttachments attaches uploaded files to the question.
func WithAttachments(a ...Attachment) AskOption {
	return func(c *askConfig) { c.attachments = append(c.attachments, a...) }
}

// Ask posts text to a thread, runs agentID on it and returns the reply. An
// empty threadID starts a new thread.
func (c *Client) Ask(ctx context.Context, agentID, threadID, text string, opts ...AskOption) (*Reply, error) {
	cfg := &askConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if threadID == "" {
		t, err := c.CreateThread(ctx, nil)
		if err != nil {
			return nil, err
		}
		threadID = t.ID
	}
	if _, err := c.CreateMessage(ctx, threadID, &CreateMessageRequest{
		Role:        MessageRoleUser,
		Content:     text,
		Attachments: cfg.attachments,
	}); err != nil {
		return nil, err
	}

	run, err := c.RunAndWait(ctx, threadID, &RunRequest{
		AgentID:                agentID,
		AdditionalInstructions: cfg.instructions,
	}, cfg.tools)
	if err != nil {
		return nil, err
	}

	msg, err := c.LatestReply(ctx, threadID, run.ID)
	if err != nil {
		if errors.Is(err, errNoReply) {
			return &Reply{ThreadID: threadID, Run: run}, nil
		}
		return nil, err
	}
	reply := &Reply{ThreadID: threadID, Text: msg.Text(), Message: msg, Run: run}
	m := msg.ToMessage()
	for _, content := range m.Contents {
		switch v := content.(type) {
		case *af.CitationContent:
			reply.Citations = append(reply.Citations, v)
		case *af.HostedFileContent:
			reply.Files = append(reply.Files, v)
		}
	}
	return reply, nil
}
