// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"
	"errors"
	"testing"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

func TestResponseStream_Collect(t *testing.T) {
	s := af.NewResponseStream(context.Background(), func(ctx context.Context, ch chan<- int) error {
		for i := 1; i <= 3; i++ {
			ch <- i
		}
		return nil
	})
	defer s.Close()

	got, err := s.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("got %v", got)
	}
}

func TestResponseStream_ProducerError(t *testing.T) {
	boom := errors.New("boom")
	s := af.NewResponseStream(context.Background(), func(ctx context.Context, ch chan<- string) error {
		ch <- "partial"
		return boom
	})
	defer s.Close()

	got, err := s.Collect(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("values before error = %v", got)
	}
}

func TestResponseStream_CloseStopsProducer(t *testing.T) {
	stopped := make(chan struct{})
	s := af.NewResponseStream(context.Background(), func(ctx context.Context, ch chan<- int) error {
		defer close(stopped)
		for i := 0; ; i++ {
			select {
			case ch <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	if v, ok, err := s.Next(context.Background()); err != nil || !ok || v != 0 {
		t.Fatalf("Next = %v %v %v", v, ok, err)
	}
	s.Close()
	<-stopped
}

func TestMapStream(t *testing.T) {
	src := af.NewResponseStream(context.Background(), func(ctx context.Context, ch chan<- int) error {
		ch <- 2
		ch <- 3
		return nil
	})
	sq := af.MapStream(context.Background(), src, func(v int) int { return v * v })
	defer sq.Close()

	got, err := sq.Collect(context.Background())
	if err != nil || len(got) != 2 || got[0] != 4 || got[1] != 9 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestMergeUpdates(t *testing.T) {
	updates := []af.ChatResponseUpdate{
		{Role: af.RoleAssistant, ResponseID: "r1", Contents: af.Contents{&af.TextContent{Text: "Hel"}}},
		{Contents: af.Contents{&af.TextContent{Text: "lo"}}},
		{Contents: af.Contents{&af.FunctionCallContent{CallID: "c1", Name: "f", Arguments: `{"a":`}}},
		{Contents: af.Contents{&af.FunctionCallContent{Arguments: `1}`}}},
		{FinishReason: af.FinishReasonToolCalls, Usage: af.UsageDetails{TotalTokens: 9}},
	}
	resp := af.MergeUpdates(updates)

	if resp.ResponseID != "r1" || resp.FinishReason != af.FinishReasonToolCalls || resp.Usage.TotalTokens != 9 {
		t.Errorf("metadata = %+v", resp)
	}
	if resp.Text() != "Hello" {
		t.Errorf("Text = %q", resp.Text())
	}
	calls := af.FunctionCalls(resp)
	if len(calls) != 1 || calls[0].Arguments != `{"a":1}` || calls[0].Name != "f" {
		t.Errorf("calls = %+v", calls)
	}
}
