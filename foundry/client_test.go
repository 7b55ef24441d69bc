// Copyright (c) Microsoft. All rights reserved.

package foundry_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/foundry"
)

type staticCredential struct{}

func (staticCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "tok", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, mux *http.ServeMux, opts *foundry.ClientOptions) *foundry.Client {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, foundry.DefaultAPIVersion, r.URL.Query().Get("api-version"))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	if opts == nil {
		opts = &foundry.ClientOptions{}
	}
	opts.Transport = srv.Client()
	opts.MaxRetries = -1
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	c, err := foundry.NewClient(srv.URL+"/api/projects/p1", staticCredential{}, opts)
	require.NoError(t, err)
	return c
}

func TestAgents_CRUDAndPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects/p1/assistants", func(w http.ResponseWriter, r *http.Request) {
		var req foundry.CreateAgentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, foundry.ToolTypeCodeInterpreter, req.Tools[0].Type)
		writeJSON(w, foundry.Agent{ID: "asst_1", Name: req.Name, Model: req.Model, Tools: req.Tools})
	})
	mux.HandleFunc("GET /api/projects/p1/assistants", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		switch r.URL.Query().Get("after") {
		case "":
			writeJSON(w, map[string]any{
				"data":     []foundry.Agent{{ID: "asst_3", Name: "c"}, {ID: "asst_2", Name: "b"}},
				"last_id":  "asst_2",
				"has_more": true,
			})
		case "asst_2":
			writeJSON(w, map[string]any{"data": []foundry.Agent{{ID: "asst_1", Name: "a"}}, "has_more": false})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("after"))
		}
	})
	var deleted atomic.Bool
	mux.HandleFunc("DELETE /api/projects/p1/assistants/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "asst_1", r.PathValue("id"))
		deleted.Store(true)
		writeJSON(w, map[string]any{"id": "asst_1", "deleted": true})
	})
	c := newClient(t, mux, nil)
	ctx := context.Background()

	a, err := c.CreateAgent(ctx, &foundry.CreateAgentRequest{
		Model: "gpt-4o",
		Name:  "coder",
		Tools: []foundry.ToolDefinition{foundry.CodeInterpreterTool()},
	})
	require.NoError(t, err)
	assert.Equal(t, "asst_1", a.ID)

	agents, err := c.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 3)
	assert.Equal(t, "asst_1", agents[2].ID)

	found, ok, err := c.FindAgent(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "asst_2", found.ID)

	_, ok, err = c.FindAgent(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.DeleteAgent(ctx, "asst_1"))
	assert.True(t, deleted.Load())
}

func TestGetAgent_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects/p1/assistants/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":"not_found","message":"No assistant found"}}`)
	})
	c := newClient(t, mux, nil)

	_, err := c.GetAgent(context.Background(), "asst_x")
	assert.ErrorIs(t, err, af.ErrNotFound)
}

// runServer fakes a run that reports statuses in order on each poll.
func runServer(t *testing.T, mux *http.ServeMux, statuses ...foundry.RunStatus) *atomic.Int32 {
	var polls atomic.Int32
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs", func(w http.ResponseWriter, r *http.Request) {
		var req foundry.RunRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "asst_1", req.AgentID)
		writeJSON(w, foundry.Run{ID: "run_1", ThreadID: r.PathValue("tid"), Status: foundry.RunStatusQueued})
	})
	mux.HandleFunc("GET /api/projects/p1/threads/{tid}/runs/{rid}", func(w http.ResponseWriter, r *http.Request) {
		n := int(polls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		run := foundry.Run{ID: "run_1", Status: statuses[n]}
		if statuses[n] == foundry.RunStatusFailed {
			run.LastError = &foundry.RunLastError{Code: "rate_limit_exceeded", Message: "quota"}
		}
		writeJSON(w, run)
	})
	return &polls
}

func TestRunAndWait_Completed(t *testing.T) {
	mux := http.NewServeMux()
	polls := runServer(t, mux, foundry.RunStatusInProgress, foundry.RunStatusCompleted)
	c := newClient(t, mux, nil)

	run, err := c.RunAndWait(context.Background(), "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, foundry.RunStatusCompleted, run.Status)
	assert.EqualValues(t, 2, polls.Load())
}

func TestRunAndWait_Incomplete(t *testing.T) {
	mux := http.NewServeMux()
	runServer(t, mux, foundry.RunStatusIncomplete)
	c := newClient(t, mux, nil)

	run, err := c.RunAndWait(context.Background(), "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, foundry.RunStatusIncomplete, run.Status)
}

func TestRunAndWait_Failed(t *testing.T) {
	mux := http.NewServeMux()
	runServer(t, mux, foundry.RunStatusFailed)
	c := newClient(t, mux, nil)

	_, err := c.RunAndWait(context.Background(), "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, nil)
	require.ErrorIs(t, err, foundry.ErrRunFailed)
	require.ErrorIs(t, err, af.ErrExecution)
	var re *foundry.RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "run_1", re.RunID)
	assert.Equal(t, "rate_limit_exceeded", re.Code)
	assert.Contains(t, err.Error(), "quota")
}

func TestRunAndWait_TerminalStatuses(t *testing.T) {
	for _, tc := range []struct {
		status foundry.RunStatus
		want   error
	}{
		{foundry.RunStatusFailed, foundry.ErrRunFailed},
		{foundry.RunStatusCancelled, foundry.ErrRunCancelled},
		{foundry.RunStatusExpired, foundry.ErrRunExpired},
	} {
		t.Run(string(tc.status), func(t *testing.T) {
			mux := http.NewServeMux()
			runServer(t, mux, foundry.RunStatusInProgress, tc.status)
			c := newClient(t, mux, nil)

			run, err := c.RunAndWait(context.Background(), "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, nil)
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, af.ErrExecution)
			assert.Equal(t, tc.status, run.Status)
			var re *foundry.RunError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tc.status, re.Status)
		})
	}
}

func TestRunAndWait_TimeoutCancelsRun(t *testing.T) {
	mux := http.NewServeMux()
	runServer(t, mux, foundry.RunStatusInProgress)
	var cancelled atomic.Bool
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs/{rid}/cancel", func(w http.ResponseWriter, r *http.Request) {
		cancelled.Store(true)
		writeJSON(w, foundry.Run{ID: "run_1", Status: foundry.RunStatusCancelling})
	})
	c := newClient(t, mux, &foundry.ClientOptions{RunTimeout: 20 * time.Millisecond})

	_, err := c.RunAndWait(context.Background(), "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, nil)
	require.ErrorIs(t, err, foundry.ErrRunTimeout)
	assert.True(t, cancelled.Load())
}

func TestRunAndWait_RequiresAction(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs", func(w http.ResponseWriter, r *http.Request) {
		run := foundry.Run{ID: "run_1", Status: foundry.RunStatusRequiresAction, RequiredAction: &foundry.RequiredAction{
			Type:              "submit_tool_outputs",
			SubmitToolOutputs: &foundry.SubmitToolOutputs{},
		}}
		for _, c := range []struct{ id, name, args string }{
			{"call_1", "get_weather", `{"city":"Paris"}`},
			{"call_2", "launch_rockets", `{}`},
		} {
			call := foundry.RequiredToolCall{ID: c.id, Type: "function"}
			call.Function.Name, call.Function.Arguments = c.name, c.args
			run.RequiredAction.SubmitToolOutputs.ToolCalls = append(run.RequiredAction.SubmitToolOutputs.ToolCalls, call)
		}
		writeJSON(w, run)
	})
	submitted := make(chan []foundry.ToolOutput, 1)
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs/{rid}/submit_tool_outputs", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ToolOutputs []foundry.ToolOutput `json:"tool_outputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		submitted <- body.ToolOutputs
		writeJSON(w, foundry.Run{ID: "run_1", Status: foundry.RunStatusCompleted})
	})

	type weatherArgs struct {
		City string `json:"city"`
	}
	var seen []string
	tools := af.NewToolSet(af.NewTypedTool("get_weather", "Weather", func(_ context.Context, a weatherArgs) (any, error) {
		return map[string]string{"city": a.City, "sky": "clear"}, nil
	}))
	c := newClient(t, mux, &foundry.ClientOptions{
		FunctionMiddleware: []af.FunctionMiddleware{func(next af.FunctionHandler) af.FunctionHandler {
			return func(ctx context.Context, tool af.Tool, args json.RawMessage) (any, error) {
				seen = append(seen, tool.Name())
				return next(ctx, tool, args)
			}
		}},
	})

	run, err := c.RunAndWait(context.Background(), "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, tools)
	require.NoError(t, err)
	assert.Equal(t, foundry.RunStatusCompleted, run.Status)

	outputs := <-submitted
	require.Len(t, outputs, 2)
	assert.Equal(t, "call_1", outputs[0].ToolCallID)
	assert.JSONEq(t, `{"city":"Paris","sky":"clear"}`, outputs[0].Output)
	assert.Equal(t, "call_2", outputs[1].ToolCallID)
	assert.Contains(t, outputs[1].Output, `"error"`)
	assert.Contains(t, outputs[1].Output, "launch_rockets")
	assert.Equal(t, []string{"get_weather"}, seen)
}

func TestRunAndWait_TimeoutWhileRequiringAction(t *testing.T) {
	mux := http.NewServeMux()
	pending := func() foundry.Run {
		call := foundry.RequiredToolCall{ID: "call_1", Type: "function"}
		call.Function.Name, call.Function.Arguments = "ping", `{}`
		return foundry.Run{ID: "run_1", Status: foundry.RunStatusRequiresAction, RequiredAction: &foundry.RequiredAction{
			Type:              "submit_tool_outputs",
			SubmitToolOutputs: &foundry.SubmitToolOutputs{ToolCalls: []foundry.RequiredToolCall{call}},
		}}
	}
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, pending())
	})
	var submits atomic.Int32
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs/{rid}/submit_tool_outputs", func(w http.ResponseWriter, r *http.Request) {
		submits.Add(1)
		writeJSON(w, pending())
	})
	var cancelled atomic.Bool
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs/{rid}/cancel", func(w http.ResponseWriter, r *http.Request) {
		cancelled.Store(true)
		writeJSON(w, foundry.Run{ID: "run_1", Status: foundry.RunStatusCancelling})
	})
	tools := af.NewToolSet(af.NewTool("ping", "Ping", nil, func(context.Context, json.RawMessage) (any, error) {
		return "pong", nil
	}))
	c := newClient(t, mux, &foundry.ClientOptions{
		PollInterval: 5 * time.Millisecond,
		RunTimeout:   30 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	_, err := c.RunAndWait(ctx, "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, tools)
	require.ErrorIs(t, err, foundry.ErrRunTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, cancelled.Load())
	assert.Positive(t, submits.Load())
	assert.Less(t, submits.Load(), int32(50))
}

func TestRunAndWait_SubmitFailureCancelsRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs", func(w http.ResponseWriter, r *http.Request) {
		call := foundry.RequiredToolCall{ID: "call_1", Type: "function"}
		call.Function.Name = "ping"
		writeJSON(w, foundry.Run{ID: "run_1", Status: foundry.RunStatusRequiresAction, RequiredAction: &foundry.RequiredAction{
			Type:              "submit_tool_outputs",
			SubmitToolOutputs: &foundry.SubmitToolOutputs{ToolCalls: []foundry.RequiredToolCall{call}},
		}})
	})
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs/{rid}/submit_tool_outputs", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"bad_request","message":"stale call"}}`, http.StatusBadRequest)
	})
	var cancelled atomic.Bool
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/runs/{rid}/cancel", func(w http.ResponseWriter, r *http.Request) {
		cancelled.Store(true)
		writeJSON(w, foundry.Run{ID: "run_1", Status: foundry.RunStatusCancelling})
	})
	c := newClient(t, mux, nil)

	_, err := c.RunAndWait(context.Background(), "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, nil)
	require.Error(t, err)
	assert.True(t, cancelled.Load())
}

func TestRunAndWait_Metrics(t *testing.T) {
	mux := http.NewServeMux()
	runServer(t, mux, foundry.RunStatusCompleted)
	reg := prometheus.NewRegistry()
	m, err := af.NewMetrics(reg)
	require.NoError(t, err)
	c := newClient(t, mux, &foundry.ClientOptions{Metrics: m})

	_, err = c.RunAndWait(context.Background(), "thread_1", &foundry.RunRequest{AgentID: "asst_1"}, nil)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "foundry_agent_runs_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, total)
}

func TestAsk_ReplyWithCitations(t *testing.T) {
	mux := http.NewServeMux()
	runServer(t, mux, foundry.RunStatusCompleted)
	mux.HandleFunc("POST /api/projects/p1/threads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, foundry.Thread{ID: "thread_9"})
	})
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "thread_9", r.PathValue("tid"))
		var req foundry.CreateMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, foundry.MessageRoleUser, req.Role)
		assert.Equal(t, "What is new in Go?", req.Content)
		writeJSON(w, foundry.ThreadMessage{ID: "msg_1", Role: req.Role})
	})
	mux.HandleFunc("GET /api/projects/p1/threads/{tid}/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "run_1", r.URL.Query().Get("run_id"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		io.WriteString(w, `{"data":[{
			"id":"msg_2","role":"assistant","assistant_id":"asst_1","run_id":"run_1",
			"content":[{"type":"text","text":{
				"value":"Go 1.24 adds generic type aliases【3:0†source】.",
				"annotations":[{"type":"url_citation","text":"【3:0†source】",
					"url_citation":{"url":"https://go.dev/doc/go1.24","title":"Go 1.24 Release Notes"}}]
			}}]
		}],"has_more":false}`)
	})
	c := newClient(t, mux, nil)

	reply, err := c.Ask(context.Background(), "asst_1", "", "What is new in Go?")
	require.NoError(t, err)
	assert.Equal(t, "thread_9", reply.ThreadID)
	assert.Contains(t, reply.Text, "generic type aliases")
	require.Len(t, reply.Citations, 1)
	assert.Equal(t, "https://go.dev/doc/go1.24", reply.Citations[0].URL)
	assert.Equal(t, "Go 1.24 Release Notes", reply.Citations[0].Title)
	assert.Equal(t, "run_1", reply.Run.ID)
}

func TestAsk_NoReply(t *testing.T) {
	mux := http.NewServeMux()
	runServer(t, mux, foundry.RunStatusCompleted)
	mux.HandleFunc("POST /api/projects/p1/threads/{tid}/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, foundry.ThreadMessage{ID: "msg_1"})
	})
	mux.HandleFunc("GET /api/projects/p1/threads/{tid}/messages", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[],"has_more":false}`)
	})
	c := newClient(t, mux, nil)

	reply, err := c.Ask(context.Background(), "asst_1", "thread_1", "hello")
	require.NoError(t, err)
	assert.Empty(t, reply.Text)
	assert.Equal(t, "thread_1", reply.ThreadID)
}

func TestFilesAndVectorStore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects/p1/files", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, foundry.PurposeAgents, r.FormValue("purpose"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		writeJSON(w, foundry.File{ID: "file_1", Filename: hdr.Filename, Purpose: foundry.PurposeAgents})
	})
	mux.HandleFunc("POST /api/projects/p1/vector_stores", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name    string   `json:"name"`
			FileIDs []string `json:"file_ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"file_1"}, body.FileIDs)
		writeJSON(w, foundry.VectorStore{ID: "vs_1", Name: body.Name, Status: "in_progress"})
	})
	var polls atomic.Int32
	mux.HandleFunc("GET /api/projects/p1/vector_stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		vs := foundry.VectorStore{ID: "vs_1", Status: "in_progress"}
		if polls.Add(1) > 1 {
			vs.Status = "completed"
			vs.FileCounts.Completed, vs.FileCounts.Total = 1, 1
		}
		writeJSON(w, vs)
	})
	mux.HandleFunc("GET /api/projects/p1/files/{id}/content", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "# Handbook")
	})
	c := newClient(t, mux, nil)
	ctx := context.Background()

	f, err := c.UploadFile(ctx, "docs/handbook.md", []byte("# Handbook"))
	require.NoError(t, err)
	assert.Equal(t, "handbook.md", f.Filename)

	vs, err := c.CreateVectorStore(ctx, "handbook", []string{f.ID})
	require.NoError(t, err)
	vs, err = c.WaitVectorStore(ctx, vs.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", vs.Status)
	assert.EqualValues(t, 2, polls.Load())

	data, err := c.FileContent(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Handbook", string(data))
}

func TestWaitVectorStore_Timeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects/p1/vector_stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, foundry.VectorStore{ID: "vs_1", Status: "in_progress"})
	})
	c := newClient(t, mux, &foundry.ClientOptions{RunTimeout: 20 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	vs, err := c.WaitVectorStore(ctx, "vs_1")
	require.ErrorIs(t, err, foundry.ErrVectorStoreTimeout)
	require.NotNil(t, vs)
	assert.Equal(t, "vs_1", vs.ID)
	assert.NoError(t, ctx.Err())
}

func TestWaitVectorStore_AllFilesFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects/p1/vector_stores/{id}", func(w http.ResponseWriter, r *http.Request) {
		vs := foundry.VectorStore{ID: "vs_1", Status: "completed"}
		vs.FileCounts.Failed, vs.FileCounts.Total = 2, 2
		writeJSON(w, vs)
	})
	c := newClient(t, mux, nil)

	_, err := c.WaitVectorStore(context.Background(), "vs_1")
	assert.ErrorIs(t, err, af.ErrService)
}
