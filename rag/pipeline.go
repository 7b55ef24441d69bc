// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/search"
)

// Index stores and queries chunks. *search.Client satisfies it.
type Index interface {
	UploadDocuments(ctx context.Context, docs []search.Document) (int, error)
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
}

// DefaultAnswerInstructions is the system prompt used by [Pipeline.Answer].
const DefaultAnswerInstructions = `You answer questions using only the numbered sources provided.
Cite the sources you use as [n]. If the sources do not contain the answer, say that you do not know.`

// NoSourcesAnswer is returned by [Pipeline.Answer] when retrieval finds
// nothing; the model is not called.
const NoSourcesAnswer = "I could not find anything relevant in the indexed documents."

// Pipeline chunks, embeds and indexes documents, and answers questions from
// what it indexed.
type Pipeline struct {
	chunker      TextChunker
	embedder     Embedder
	index        Index
	chat         af.ChatClient
	mode         search.Mode
	semantic     bool
	topK         int
	instructions string
}

type PipelineOption func(*Pipeline)

func WithChunker(c TextChunker) PipelineOption { return func(p *Pipeline) { p.chunker = c } }

// WithChatClient sets the model used by Answer.
func WithChatClient(c af.ChatClient) PipelineOption { return func(p *Pipeline) { p.chat = c } }

// WithTopK sets how many chunks are retrieved. Default 5.
func WithTopK(k int) PipelineOption {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithSearchMode selects keyword, vector or hybrid retrieval. Default hybrid.
func WithSearchMode(m search.Mode) PipelineOption { return func(p *Pipeline) { p.mode = m } }

// WithSemanticRanking reranks retrieved chunks with the semantic ranker.
func WithSemanticRanking(on bool) PipelineOption { return func(p *Pipeline) { p.semantic = on } }

func WithAnswerInstructions(s string) PipelineOption {
	return func(p *Pipeline) { p.instructions = s }
}

func NewPipeline(embedder Embedder, index Index, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		chunker:      TextChunker{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap},
		embedder:     embedder,
		index:        index,
		mode:         search.ModeHybrid,
		topK:         5,
		instructions: DefaultAnswerInstructions,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// IngestStats summarizes an [Pipeline.Ingest] call.
type IngestStats struct {
	Documents int
	Chunks    int
	Tokens    int
	Uploaded  int
}

// Ingest chunks and embeds docs and uploads the chunks. Chunk keys derive
// from the document ID and chunk position, so ingesting a document again
// overwrites its chunks. On an *[search.IndexingError] the stats still
// count what was stored.
func (p *Pipeline) Ingest(ctx context.Context, docs []Document) (IngestStats, error) {
	var stats IngestStats
	var batch []search.Document
	for _, doc := range docs {
		chunks := p.chunker.Split(doc.Text)
		if len(chunks) == 0 {
			continue
		}
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
			stats.Tokens += c.Tokens
		}
		vecs, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return stats, fmt.Errorf("embed %s: %w", doc.Source, err)
		}
		for i, c := range chunks {
			batch = append(batch, search.Document{
				ID:            fmt.Sprintf("%s-%d", doc.ID, c.Index),
				Content:       c.Text,
				Title:         doc.Title,
				Source:        doc.Source,
				ChunkIndex:    c.Index,
				ContentVector: vecs[i],
			})
		}
		stats.Documents++
		stats.Chunks += len(chunks)
		slog.DebugContext(ctx, "chunked document", "source", doc.Source, "chunks", len(chunks))
	}
	if len(batch) == 0 {
		return stats, nil
	}
	n, err := p.index.UploadDocuments(ctx, batch)
	stats.Uploaded = n
	slog.InfoContext(ctx, "ingested documents", "documents", stats.Documents, "chunks", stats.Chunks, "uploaded", n)
	return stats, err
}

// Retrieve returns the k chunks most relevant to question. k <= 0 uses the
// pipeline's top-k.
func (p *Pipeline) Retrieve(ctx context.Context, question string, k int) ([]search.Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", af.ErrInvalidRequest)
	}
	if k <= 0 {
		k = p.topK
	}
	q := search.Query{Mode: p.mode, Text: question, Top: k, Semantic: p.semantic}
	if p.mode != search.ModeKeyword {
		vecs, err := p.embedder.Embed(ctx, []string{question})
		if err != nil {
			return nil, fmt.Errorf("embed question: %w", err)
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("%w: %d embeddings for the question", af.ErrInvalidResponse, len(vecs))
		}
		q.Vector = vecs[0]
	}
	if p.mode == search.ModeVector {
		q.Text = ""
		q.Semantic = false
	}
	return p.index.Search(ctx, q)
}

// Answer is a grounded reply and the chunks it was grounded on.
type Answer struct {
	Text    string
	Sources []search.Result
	Usage   af.UsageDetails
}

// Answer retrieves sources for question and asks the chat model to answer
// from them.
func (p *Pipeline) Answer(ctx context.Context, question string) (*Answer, error) {
	if p.chat == nil {
		return nil, errors.New("rag: pipeline has no chat client")
	}
	sources, err := p.Retrieve(ctx, question, 0)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return &Answer{Text: NoSourcesAnswer}, nil
	}
	messages := []af.Message{
		af.NewSystemMessage(p.instructions),
		af.NewUserMessage(FormatSources(sources) + "\nQuestion: " + question),
	}
	resp, err := p.chat.Response(ctx, messages, nil)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: resp.Text(), Sources: sources, Usage: resp.Usage}, nil
}

// FormatSources numbers results from 1 for citation as [n].
func FormatSources(results []search.Result) string {
	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s", i+1, r.Source)
		if r.Title != "" {
			fmt.Fprintf(&b, " (%s)", r.Title)
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(r.Content))
		b.WriteString("\n\n")
	}
	return b.String()
}
