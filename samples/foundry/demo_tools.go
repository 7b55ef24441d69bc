// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Simulated tools. Their answers are stable for a given input so that demo
// runs are repeatable.

type weatherArgs struct {
	Location string `json:"location" jsonschema:"description=City name or location,required"`
	Unit     string `json:"unit"     jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
}

type serviceArgs struct {
	Service string `json:"service" jsonschema:"description=Service or host name,required"`
}

type scaleArgs struct {
	Service  string `json:"service"  jsonschema:"description=Service name,required"`
	Replicas int    `json:"replicas" jsonschema:"description=Replicas to add,minimum=1,maximum=10"`
}

func demoTools() *af.ToolSet {
	return af.NewToolSet(
		af.NewTypedTool("get_weather", "Get the current weather for a location.",
			func(_ context.Context, args weatherArgs) (any, error) {
				temp, unit := 72, "fahrenheit"
				if args.Unit == "celsius" {
					temp, unit = 22, "celsius"
				}
				return map[string]any{"location": args.Location, "temperature": temp, "unit": unit, "condition": "sunny"}, nil
			}),
		af.NewTypedTool("get_time", "Get the current UTC time.",
			func(context.Context, struct{}) (any, error) {
				return time.Now().UTC().Format(time.RFC3339), nil
			}),
		af.NewTypedTool("get_metrics", "Get CPU, memory and p95 latency for a service.",
			func(_ context.Context, args serviceArgs) (any, error) {
				h := seed(args.Service)
				return map[string]any{
					"service":        args.Service,
					"cpu_percent":    40 + h%60,
					"memory_percent": 30 + h%50,
					"p95_latency_ms": 80 + h%400,
				}, nil
			}),
		af.NewTypedTool("restart_service", "Restart a service.",
			func(_ context.Context, args serviceArgs) (any, error) {
				if args.Service == "" {
					return nil, fmt.Errorf("service is required")
				}
				return fmt.Sprintf("%s restarted", args.Service), nil
			}),
		af.NewTypedTool("scale_out", "Add replicas to a service.",
			func(_ context.Context, args scaleArgs) (any, error) {
				if args.Replicas <= 0 {
					args.Replicas = 1
				}
				return fmt.Sprintf("%s scaled out by %d replicas", args.Service, args.Replicas), nil
			}),
	)
}

func seed(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// pick returns the named tools from ts.
func pick(ts *af.ToolSet, names ...string) *af.ToolSet {
	out := af.NewToolSet()
	for _, n := range names {
		if t, ok := ts.Lookup(n); ok {
			out.Add(t)
		}
	}
	return out
}
