// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/foundry"
	"github.com/microsoft/foundry-samples/go/orchestration"
)

func TestIncidentDefinitions_BuiltIn(t *testing.T) {
	a := &app{}
	defs, err := a.incidentDefinitions("")
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "triage", defs[0].Name)
	assert.Equal(t, "remediation", defs[1].Name)

	for _, d := range defs {
		req, err := d.Request(foundry.ToolBindings{Functions: demoTools()})
		require.NoError(t, err, d.Name)
		assert.NotEmpty(t, req.Tools)
		for _, tool := range req.Tools {
			assert.Equal(t, foundry.ToolTypeFunction, tool.Type)
		}
	}
}

func TestDemoTools(t *testing.T) {
	tools := demoTools()
	ctx := context.Background()

	metrics, ok := tools.Lookup("get_metrics")
	require.True(t, ok)
	first, err := metrics.Invoke(ctx, json.RawMessage(`{"service":"web-3"}`))
	require.NoError(t, err)
	again, err := metrics.Invoke(ctx, json.RawMessage(`{"service":"web-3"}`))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	scale, _ := tools.Lookup("scale_out")
	out, err := scale.Invoke(ctx, json.RawMessage(`{"service":"api"}`))
	require.NoError(t, err)
	assert.Equal(t, "api scaled out by 1 replicas", out)

	sub := pick(tools, "get_time", "missing")
	assert.Equal(t, 1, sub.Len())
}

type echo struct{}

func (echo) Name() string { return "echo" }
func (echo) Respond(_ context.Context, in string) (string, error) {
	return strings.ToUpper(in), nil
}

func TestRecordedResponder(t *testing.T) {
	store, err := af.OpenJSONFileStore(filepath.Join(t.TempDir(), "transcript.json"))
	require.NoError(t, err)
	a := &app{store: store}

	r := a.responder(echo{})
	out, err := r.Respond(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out)
	assert.Equal(t, "echo", r.Name())

	reopened, err := af.OpenJSONFileStore(store.Path())
	require.NoError(t, err)
	msgs, err := reopened.ListMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, af.RoleUser, msgs[0].Role)
	assert.Equal(t, "echo", msgs[1].AuthorName)
	assert.Equal(t, "HELLO", msgs[1].Text())
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b c", excerpt(" a\n b\tc ", 10))
	assert.Equal(t, "abcd…", excerpt("abcdefgh", 5))
}

func TestFinishAfterFailedRun(t *testing.T) {
	a := &app{
		diagram: filepath.Join(t.TempDir(), "run.md"),
		seq:     orchestration.NewSequenceLogger(),
	}
	root := &cobra.Command{Use: "foundry", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(&cobra.Command{
		Use: "incident",
		RunE: func(*cobra.Command, []string) error {
			a.seq.Request("User", "Triage", "web-3 down")
			return errors.New("triage failed")
		},
	})
	a.finishAfterRun(root)
	root.SetArgs([]string{"incident"})

	err := root.ExecuteContext(context.Background())
	require.ErrorContains(t, err, "triage failed")

	data, err := os.ReadFile(a.diagram)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sequenceDiagram")
	assert.Contains(t, string(data), "web-3 down")
}
