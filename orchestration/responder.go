// Copyright (c) Microsoft. All rights reserved.

package orchestration

import (
	"context"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/foundry"
)

// Responder is one participant in an orchestration: it takes a prompt and
// returns text.
type Responder interface {
	Name() string
	Respond(ctx context.Context, input string) (string, error)
}

// LocalResponder adapts an [af.Agent]. Its session keeps the conversation
// across calls.
type LocalResponder struct {
	agent   *af.Agent
	session *af.Session
}

func NewLocalResponder(agent *af.Agent) *LocalResponder {
	return &LocalResponder{agent: agent, session: agent.NewSession()}
}

func (r *LocalResponder) Name() string { return r.agent.Name() }

func (r *LocalResponder) Respond(ctx context.Context, input string) (string, error) {
	resp, err := r.agent.Run(ctx, []af.Message{af.NewUserMessage(input)}, af.WithSession(r.session))
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// ServiceResponder adapts an agent hosted by the Agents service. The first
// call creates a thread; later calls continue it.
type ServiceResponder struct {
	client  *foundry.Client
	agentID string
	name    string
	tools   *af.ToolSet
	session *af.Session
}

// NewServiceResponder wraps agent. tools answers its function calls and
// may be nil.
func NewServiceResponder(client *foundry.Client, agent *foundry.Agent, tools *af.ToolSet) *ServiceResponder {
	name := agent.Name
	if name == "" {
		name = agent.ID
	}
	return &ServiceResponder{client: client, agentID: agent.ID, name: name, tools: tools, session: af.NewSession()}
}

func (r *ServiceResponder) Name() string { return r.name }

// ThreadID returns the service thread, or "" before the first call.
func (r *ServiceResponder) ThreadID() string { return r.session.ServiceID() }

func (r *ServiceResponder) Respond(ctx context.Context, input string) (string, error) {
	reply, err := r.client.Ask(ctx, r.agentID, r.session.ServiceID(), input, foundry.WithLocalTools(r.tools))
	if err != nil {
		return "", err
	}
	if err := r.session.SetServiceID(reply.ThreadID); err != nil {
		return "", err
	}
	return reply.Text, nil
}
