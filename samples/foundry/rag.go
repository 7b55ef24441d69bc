// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/rag"
	"github.com/microsoft/foundry-samples/go/search"
)

type ragFlags struct {
	mode     string
	top      int
	semantic bool
}

func newRAGCmd(a *app) *cobra.Command {
	f := &ragFlags{}
	cmd := &cobra.Command{
		Use:   "rag",
		Short: "Chunk, embed and index documents, then query and answer from them",
	}
	p := cmd.PersistentFlags()
	p.StringVar(&f.mode, "mode", string(search.ModeHybrid), "retrieval mode: keyword, vector or hybrid")
	p.IntVar(&f.top, "top", 0, "chunks to retrieve (default from settings)")
	p.BoolVar(&f.semantic, "semantic", false, "rerank with the semantic ranker")
	cmd.AddCommand(newRAGIndexCmd(a, f), newRAGQueryCmd(a, f), newRAGAskCmd(a, f))
	return cmd
}

// pipeline builds the retrieval pipeline over the configured index. chat may
// be nil for commands that do not generate answers.
func (a *app) pipeline(f *ragFlags, chat af.ChatClient) (*rag.Pipeline, *search.Client, error) {
	mode := search.Mode(f.mode)
	switch mode {
	case search.ModeKeyword, search.ModeVector, search.ModeHybrid:
	default:
		return nil, nil, fmt.Errorf("unknown mode %q", f.mode)
	}
	idx, err := a.searchClient()
	if err != nil {
		return nil, nil, err
	}
	emb, err := a.embedder()
	if err != nil {
		return nil, nil, err
	}
	counter, err := rag.NewTiktokenCounter()
	if err != nil {
		return nil, nil, err
	}
	top := f.top
	if top <= 0 {
		top = a.settings.Search.TopK
	}
	opts := []rag.PipelineOption{
		rag.WithChunker(rag.TextChunker{
			Size:    a.settings.Chunking.Size,
			Overlap: a.settings.Chunking.Overlap,
			Counter: counter,
		}),
		rag.WithTopK(top),
		rag.WithSearchMode(mode),
		rag.WithSemanticRanking(f.semantic),
	}
	if chat != nil {
		opts = append(opts, rag.WithChatClient(chat))
	}
	return rag.NewPipeline(emb, idx, opts...), idx, nil
}

func newRAGIndexCmd(a *app, f *ragFlags) *cobra.Command {
	var (
		fromBlob bool
		prefix   string
		recreate bool
	)
	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Index a directory, or the configured blob container with --blob",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, idx, err := a.pipeline(f, nil)
			if err != nil {
				return err
			}

			var loader rag.Loader
			switch {
			case fromBlob:
				client, err := a.blobClient()
				if err != nil {
					return err
				}
				loader = rag.BlobLoader{Client: client, Container: a.settings.Storage.Container, Prefix: prefix}
			case len(args) == 1:
				loader = rag.DirLoader{Root: args[0]}
			default:
				return errors.New("give a directory or --blob")
			}

			if recreate {
				if err := idx.DeleteIndex(ctx); err != nil {
					return err
				}
			}
			if _, err := idx.CreateOrUpdateIndex(ctx, search.RAGIndex(idx.IndexName(), a.settings.OpenAI.EmbeddingDimensions)); err != nil {
				return err
			}

			docs, err := loader.Load(ctx)
			if err != nil {
				return err
			}
			stats, err := p.Ingest(ctx, docs)
			fmt.Printf("Indexed %d documents as %d chunks (%d tokens); %d uploaded\n",
				stats.Documents, stats.Chunks, stats.Tokens, stats.Uploaded)
			if err != nil {
				return err
			}
			n, err := idx.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Index %s now holds %d chunks\n", idx.IndexName(), n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromBlob, "blob", false, "load documents from the configured storage container")
	cmd.Flags().StringVar(&prefix, "prefix", "", "blob name prefix")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "delete the index first")
	return cmd
}

func newRAGQueryCmd(a *app, f *ragFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query <question>",
		Short: "Print the chunks retrieved for a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := a.pipeline(f, nil)
			if err != nil {
				return err
			}
			results, err := p.Retrieve(cmd.Context(), strings.Join(args, " "), 0)
			if err != nil {
				return err
			}
			for i, r := range results {
				score := r.Score
				if r.RerankerScore > 0 {
					score = r.RerankerScore
				}
				fmt.Printf("[%d] %.3f %s#%d\n", i+1, score, r.Source, r.ChunkIndex)
				text := r.Content
				if len(r.Captions) > 0 {
					text = r.Captions[0]
				}
				fmt.Printf("    %s\n", excerpt(text, 200))
			}
			return nil
		},
	}
}

func newRAGAskCmd(a *app, f *ragFlags) *cobra.Command {
	var useAgent bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q := strings.Join(args, " ")
			chat, err := a.chatClient()
			if err != nil {
				return err
			}
			p, _, err := a.pipeline(f, chat)
			if err != nil {
				return err
			}

			if useAgent {
				agent := af.NewAgent(chat,
					af.WithName("rag-agent"),
					af.WithInstructions("Answer from the provided sources only. If they do not cover the question, say so."),
					af.WithContextProvider(&rag.SearchContextProvider{Pipeline: p}),
					af.WithAgentMiddleware(af.LoggingMiddleware(a.logger), a.metrics.AgentMiddleware()),
				)
				a.seq.Request("User", "rag-agent", q)
				resp, err := agent.Run(ctx, []af.Message{af.NewUserMessage(q)})
				if err != nil {
					return err
				}
				a.seq.Reply("rag-agent", "User", resp.Text())
				fmt.Println(resp.Text())
				return nil
			}

			a.seq.Request("User", "Search", q)
			ans, err := p.Answer(ctx, q)
			if err != nil {
				return err
			}
			a.seq.Reply("Search", "User", fmt.Sprintf("%d sources", len(ans.Sources)))
			fmt.Println(ans.Text)
			for i, s := range ans.Sources {
				fmt.Printf("  [%d] %s (%s)\n", i+1, s.Source, s.Title)
			}
			if ans.Usage.TotalTokens > 0 {
				fmt.Printf("  [tokens: %d in, %d out]\n", ans.Usage.InputTokens, ans.Usage.OutputTokens)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&useAgent, "agent", false, "answer through an agent grounded by a search context provider")
	return cmd
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
