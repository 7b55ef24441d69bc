// Copyright (c) Microsoft. All rights reserved.

package rag_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/rag"
	"github.com/microsoft/foundry-samples/go/search"
)

type fakeIndex struct {
	docs    []search.Document
	queries []search.Query
	results []search.Result
	failKey string
}

func (f *fakeIndex) UploadDocuments(_ context.Context, docs []search.Document) (int, error) {
	for _, d := range docs {
		if d.ID == f.failKey {
			return len(docs) - 1, &search.IndexingError{Failed: map[string]string{d.ID: "too large"}}
		}
	}
	f.docs = append(f.docs, docs...)
	return len(docs), nil
}

func (f *fakeIndex) Search(_ context.Context, q search.Query) ([]search.Result, error) {
	f.queries = append(f.queries, q)
	return f.results, nil
}

type fakeChat struct {
	got []af.Message
}

func (f *fakeChat) Response(_ context.Context, messages []af.Message, _ *af.ChatOptions) (*af.ChatResponse, error) {
	f.got = messages
	return &af.ChatResponse{
		Messages: []af.Message{af.NewAssistantMessage("Returns are accepted within 30 days [1].")},
		Usage:    af.UsageDetails{InputTokens: 120, OutputTokens: 12, TotalTokens: 132},
	}, nil
}

func (f *fakeChat) StreamResponse(context.Context, []af.Message, *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	panic("not used")
}

func TestPipeline_Ingest(t *testing.T) {
	idx := &fakeIndex{}
	emb := &fakeEmbedder{}
	p := rag.NewPipeline(emb, idx, rag.WithChunker(rag.TextChunker{Size: 60, Overlap: 10}))

	docs := []rag.Document{
		rag.NewDocument("handbook.md", handbook),
		rag.NewDocument("blank.txt", "  "),
	}
	stats, err := p.Ingest(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Greater(t, stats.Chunks, 3)
	assert.Equal(t, stats.Chunks, stats.Uploaded)
	assert.Positive(t, stats.Tokens)

	require.Len(t, idx.docs, stats.Chunks)
	for i, d := range idx.docs {
		assert.True(t, search.IsValidKey(d.ID), d.ID)
		assert.Equal(t, i, d.ChunkIndex)
		assert.Equal(t, "handbook.md", d.Source)
		assert.Equal(t, "Zava Handbook", d.Title)
		assert.Len(t, d.ContentVector, 2)
	}

	// Re-ingesting produces the same keys.
	first := idx.docs[0].ID
	idx.docs = nil
	_, err = p.Ingest(context.Background(), docs[:1])
	require.NoError(t, err)
	assert.Equal(t, first, idx.docs[0].ID)
}

func TestPipeline_IngestPartialFailure(t *testing.T) {
	doc := rag.NewDocument("a.txt", "One short document.")
	idx := &fakeIndex{failKey: doc.ID + "-0"}
	p := rag.NewPipeline(&fakeEmbedder{}, idx)

	stats, err := p.Ingest(context.Background(), []rag.Document{doc})
	var ie *search.IndexingError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 0, stats.Uploaded)
}

func TestPipeline_RetrieveModes(t *testing.T) {
	idx := &fakeIndex{}
	emb := &fakeEmbedder{}
	ctx := context.Background()

	_, err := rag.NewPipeline(emb, idx, rag.WithTopK(3)).Retrieve(ctx, "return policy", 0)
	require.NoError(t, err)
	q := idx.queries[0]
	assert.Equal(t, search.ModeHybrid, q.Mode)
	assert.Equal(t, "return policy", q.Text)
	assert.Equal(t, []float32{13, 1}, q.Vector)
	assert.Equal(t, 3, q.Top)

	_, err = rag.NewPipeline(emb, idx, rag.WithSearchMode(search.ModeKeyword), rag.WithSemanticRanking(true)).Retrieve(ctx, "hours", 2)
	require.NoError(t, err)
	q = idx.queries[1]
	assert.Nil(t, q.Vector)
	assert.True(t, q.Semantic)
	assert.Equal(t, 2, q.Top)

	_, err = rag.NewPipeline(emb, idx, rag.WithSearchMode(search.ModeVector), rag.WithSemanticRanking(true)).Retrieve(ctx, "hours", 2)
	require.NoError(t, err)
	q = idx.queries[2]
	assert.Empty(t, q.Text)
	assert.False(t, q.Semantic)
	assert.NotNil(t, q.Vector)

	_, err = rag.NewPipeline(emb, idx).Retrieve(ctx, "  ", 1)
	assert.ErrorIs(t, err, af.ErrInvalidRequest)
}

func TestPipeline_Answer(t *testing.T) {
	idx := &fakeIndex{results: []search.Result{
		{Document: search.Document{ID: "a-0", Source: "returns.md", Title: "Return Policy", Content: "Returns within 30 days."}},
		{Document: search.Document{ID: "b-0", Source: "hours.md", Content: "Open nine to five."}},
	}}
	chat := &fakeChat{}
	p := rag.NewPipeline(&fakeEmbedder{}, idx, rag.WithChatClient(chat))

	ans, err := p.Answer(context.Background(), "How long do I have to return a tent?")
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "[1]")
	assert.Len(t, ans.Sources, 2)
	assert.Equal(t, 132, ans.Usage.TotalTokens)

	require.Len(t, chat.got, 2)
	assert.Equal(t, af.RoleSystem, chat.got[0].Role)
	prompt := chat.got[1].Text()
	assert.Contains(t, prompt, "[1] returns.md (Return Policy)\nReturns within 30 days.")
	assert.Contains(t, prompt, "[2] hours.md\n")
	assert.True(t, strings.HasSuffix(prompt, "Question: How long do I have to return a tent?"))
}

func TestPipeline_AnswerWithoutSources(t *testing.T) {
	chat := &fakeChat{}
	p := rag.NewPipeline(&fakeEmbedder{}, &fakeIndex{}, rag.WithChatClient(chat))

	ans, err := p.Answer(context.Background(), "Anything?")
	require.NoError(t, err)
	assert.Equal(t, rag.NoSourcesAnswer, ans.Text)
	assert.Nil(t, chat.got)

	_, err = rag.NewPipeline(&fakeEmbedder{}, &fakeIndex{}).Answer(context.Background(), "Anything?")
	assert.Error(t, err)
}

func TestSearchContextProvider(t *testing.T) {
	idx := &fakeIndex{results: []search.Result{
		{Document: search.Document{Source: "returns.md", Content: "Returns within 30 days."}},
	}}
	provider := &rag.SearchContextProvider{Pipeline: rag.NewPipeline(&fakeEmbedder{}, idx), K: 1}
	ctx := context.Background()

	ic, err := provider.Invoking(ctx, []af.Message{
		af.NewUserMessage("earlier question"),
		af.NewAssistantMessage("earlier answer"),
		af.NewUserMessage("What is the return window?"),
	})
	require.NoError(t, err)
	require.NotNil(t, ic)
	assert.Contains(t, ic.Instructions, "Returns within 30 days.")
	assert.Equal(t, "What is the return window?", idx.queries[0].Text)
	assert.Equal(t, 1, idx.queries[0].Top)

	ic, err = provider.Invoking(ctx, []af.Message{af.NewAssistantMessage("hi")})
	require.NoError(t, err)
	assert.Nil(t, ic)
}

func TestSearchContextProvider_WithAgent(t *testing.T) {
	idx := &fakeIndex{results: []search.Result{
		{Document: search.Document{Source: "returns.md", Content: "Returns within 30 days."}},
	}}
	chat := &fakeChat{}
	agent := af.NewAgent(chat,
		af.WithInstructions("You are the Zava support agent."),
		af.WithContextProvider(&rag.SearchContextProvider{Pipeline: rag.NewPipeline(&fakeEmbedder{}, idx)}),
	)

	_, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("Return window?")})
	require.NoError(t, err)
	require.NotEmpty(t, chat.got)
	assert.Equal(t, af.RoleSystem, chat.got[0].Role)
	assert.Contains(t, chat.got[0].Text(), "Zava support agent")
	assert.Contains(t, chat.got[0].Text(), "Returns within 30 days.")
}
