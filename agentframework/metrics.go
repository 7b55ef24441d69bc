// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records agent runs and tool invocations as Prometheus series.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	toolCalls   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foundry_agent_runs_total",
			Help: "Agent runs by agent and outcome.",
		}, []string{"agent", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "foundry_agent_run_duration_seconds",
			Help:    "Wall time of agent runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"agent"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foundry_tool_invocations_total",
			Help: "Tool invocations by tool and outcome.",
		}, []string{"tool", "status"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.runs, m.runDuration, m.toolCalls} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRun records one run. Service-side runs in the foundry package report
// through it directly.
func (m *Metrics) ObserveRun(agent string, d time.Duration, err error) {
	m.runs.WithLabelValues(agent, status(err)).Inc()
	m.runDuration.WithLabelValues(agent).Observe(d.Seconds())
}

// AgentMiddleware counts and times agent runs.
func (m *Metrics) AgentMiddleware() AgentMiddleware {
	return func(next AgentHandler) AgentHandler {
		return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			m.ObserveRun(req.AgentName, time.Since(start), err)
			return resp, err
		}
	}
}

// FunctionMiddleware counts tool invocations.
func (m *Metrics) FunctionMiddleware() FunctionMiddleware {
	return func(next FunctionHandler) FunctionHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			out, err := next(ctx, tool, args)
			m.toolCalls.WithLabelValues(tool.Name(), status(err)).Inc()
			return out, err
		}
	}
}
