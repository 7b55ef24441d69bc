// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

func TestMetrics_AgentAndTool(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := af.NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ok := af.NewTool("ok", "", nil, func(context.Context, json.RawMessage) (any, error) { return 1, nil })
	bad := af.NewTool("bad", "", nil, func(context.Context, json.RawMessage) (any, error) { return nil, errors.New("x") })
	af.InvokeTool(context.Background(), ok, nil, m.FunctionMiddleware())
	af.InvokeTool(context.Background(), bad, nil, m.FunctionMiddleware())

	client := &mockClient{
		responseFn: func(context.Context, []af.Message, *af.ChatOptions) (*af.ChatResponse, error) {
			return reply("hi"), nil
		},
	}
	agent := af.NewAgent(client, af.WithName("metered"), af.WithAgentMiddleware(m.AgentMiddleware()))
	if _, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("x")}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	counts := map[string]int{}
	for _, mf := range families {
		counts[mf.GetName()] = len(mf.GetMetric())
	}
	if counts["foundry_tool_invocations_total"] != 2 {
		t.Errorf("tool series = %d, want 2 (ok and error)", counts["foundry_tool_invocations_total"])
	}
	if counts["foundry_agent_runs_total"] != 1 || counts["foundry_agent_run_duration_seconds"] != 1 {
		t.Errorf("run series = %v", counts)
	}
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := af.NewMetrics(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := af.NewMetrics(reg); err == nil {
		t.Error("want AlreadyRegistered error")
	}
}
