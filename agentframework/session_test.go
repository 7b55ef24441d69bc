// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

func TestSession_ModeLock(t *testing.T) {
	s := af.NewSession()
	if s.ID() == "" {
		t.Fatal("empty ID")
	}
	if err := s.SetServiceID("thread_1"); err != nil {
		t.Fatalf("SetServiceID: %v", err)
	}
	if err := s.SetServiceID("thread_1"); err != nil {
		t.Errorf("rebinding same thread: %v", err)
	}
	if err := s.SetServiceID("thread_2"); !errors.Is(err, af.ErrSessionModeLocked) {
		t.Errorf("rebinding other thread: %v", err)
	}
	if err := s.SetStore(af.NewInMemoryStore()); !errors.Is(err, af.ErrSessionModeLocked) {
		t.Errorf("SetStore on service session: %v", err)
	}

	local := af.NewSession(af.WithSessionStore(af.NewInMemoryStore()))
	if err := local.SetServiceID("thread_1"); !errors.Is(err, af.ErrSessionModeLocked) {
		t.Errorf("SetServiceID on local session: %v", err)
	}
}

func TestSession_IDsAreUnique(t *testing.T) {
	if af.NewSession().ID() == af.NewSession().ID() {
		t.Error("IDs collide")
	}
}

func TestJSONFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "transcript.json")
	ctx := context.Background()

	store, err := af.OpenJSONFileStore(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	msgs := []af.Message{
		af.NewUserMessage("what time is it?"),
		{Role: af.RoleAssistant, Contents: af.Contents{&af.FunctionCallContent{CallID: "c1", Name: "time", Arguments: `{"tz":"UTC"}`}}},
		af.NewToolMessage("c1", "noon"),
		{Role: af.RoleAssistant, AuthorName: "clock", Contents: af.Contents{
			&af.TextContent{Text: "It is noon."},
			&af.CitationContent{Marker: "[1]", URL: "https://time.example", Title: "Time"},
			&af.HostedFileContent{FileID: "assistant-file-1", Filename: "chart.png"},
		}},
	}
	if err := store.AddMessages(ctx, msgs[:2]); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}
	if err := store.AddMessages(ctx, msgs[2:]); err != nil {
		t.Fatalf("AddMessages: %v", err)
	}

	reopened, err := af.OpenJSONFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ := reopened.ListMessages(ctx)
	if len(got) != 4 {
		t.Fatalf("got %d messages", len(got))
	}
	call := got[1].Contents[0].(*af.FunctionCallContent)
	if call.Arguments != `{"tz":"UTC"}` || call.Name != "time" {
		t.Errorf("call = %+v", call)
	}
	if r := got[2].Contents[0].(*af.FunctionResultContent); r.Result != "noon" {
		t.Errorf("result = %v", r.Result)
	}
	if got[3].AuthorName != "clock" || got[3].Text() != "It is noon." || len(got[3].Citations()) != 1 {
		t.Errorf("answer = %+v", got[3])
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestOpenJSONFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := af.OpenJSONFileStore(path); err == nil {
		t.Error("want decode error")
	}
}

func TestUnmarshalMessages_UnknownType(t *testing.T) {
	_, err := af.UnmarshalMessages([]byte(`[{"role":"user","contents":[{"$type":"audio"}]}]`))
	if err == nil {
		t.Error("want error for unknown $type")
	}
}
