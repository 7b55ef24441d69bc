// Copyright (c) Microsoft. All rights reserved.

package foundry

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
)

// CreateAgent registers a new agent.
func (c *Client) CreateAgent(ctx context.Context, req *CreateAgentRequest) (*Agent, error) {
	var a Agent
	if err := c.rest.Do(ctx, http.MethodPost, "/assistants", nil, req, &a); err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "agent created", "agent_id", a.ID, "name", a.Name, "tools", len(a.Tools))
	return &a, nil
}

func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	var a Agent
	if err := c.rest.Do(ctx, http.MethodGet, "/assistants/"+url.PathEscape(agentID), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAgents returns every agent in the project, newest first.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	return listAll(ctx, c, "/assistants", url.Values{"order": {"desc"}}, func(a Agent) string { return a.ID })
}

// UpdateAgent changes the fields set in req.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, req *CreateAgentRequest) (*Agent, error) {
	var a Agent
	if err := c.rest.Do(ctx, http.MethodPost, "/assistants/"+url.PathEscape(agentID), nil, req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	if err := c.delete(ctx, "/assistants/"+url.PathEscape(agentID)); err != nil {
		return err
	}
	slog.DebugContext(ctx, "agent deleted", "agent_id", agentID)
	return nil
}

// FindAgent returns the newest agent with the given name.
func (c *Client) FindAgent(ctx context.Context, name string) (*Agent, bool, error) {
	agents, err := c.ListAgents(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range agents {
		if agents[i].Name == name {
			return &agents[i], true, nil
		}
	}
	return nil, false, nil
}
