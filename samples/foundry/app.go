// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/config"
	"github.com/microsoft/foundry-samples/go/foundry"
	"github.com/microsoft/foundry-samples/go/openai"
	"github.com/microsoft/foundry-samples/go/orchestration"
	"github.com/microsoft/foundry-samples/go/rag"
	"github.com/microsoft/foundry-samples/go/search"
)

// app holds the global flags and the clients built from them. Clients are
// created on first use so that each command only needs the settings it
// touches.
type app struct {
	configPath  string
	verbose     bool
	metricsAddr string
	diagram     string
	transcript  string
	upload      bool

	settings *config.Settings
	logger   *slog.Logger
	metrics  *af.Metrics
	server   *http.Server
	cred     azcore.TokenCredential
	seq      *orchestration.SequenceLogger
	store    *af.JSONFileStore
	redis    *redis.Client
}

func (a *app) setup(ctx context.Context) error {
	s, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		s.Log.Level = "debug"
	}
	a.settings = s
	a.logger = config.NewLogger(s.Log, os.Stderr)
	slog.SetDefault(a.logger)

	reg := prometheus.NewRegistry()
	if a.metrics, err = af.NewMetrics(reg); err != nil {
		return err
	}
	if a.metricsAddr != "" {
		a.serveMetrics(reg)
	}

	a.seq = orchestration.NewSequenceLogger()
	if a.transcript != "" {
		if a.store, err = af.OpenJSONFileStore(a.transcript); err != nil {
			return err
		}
	}
	a.logger.DebugContext(ctx, "configured", "config", a.configPath, "metrics_addr", a.metricsAddr)
	return nil
}

func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.server = &http.Server{Addr: a.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", "addr", a.metricsAddr, "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", a.metricsAddr)
}

// finish writes the run artifacts and stops the metrics server.
func (a *app) finish(ctx context.Context) error {
	if a.seq == nil {
		return nil
	}
	var errs []error
	var artifacts []string
	if a.diagram != "" && a.seq.Len() > 0 {
		f, err := os.Create(a.diagram)
		if err == nil {
			_, err = a.seq.WriteTo(f)
			err = errors.Join(err, f.Close())
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("write diagram: %w", err))
		} else {
			fmt.Printf("Sequence diagram written to %s\n", a.diagram)
			artifacts = append(artifacts, a.diagram)
		}
	}
	if a.store != nil {
		artifacts = append(artifacts, a.store.Path())
	}
	if a.upload && len(artifacts) > 0 {
		errs = append(errs, a.uploadArtifacts(ctx, artifacts))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		errs = append(errs, a.server.Shutdown(shutdownCtx))
	}
	return errors.Join(errs...)
}

func (a *app) uploadArtifacts(ctx context.Context, paths []string) error {
	client, err := a.blobClient()
	if err != nil {
		return err
	}
	sink := rag.BlobSink{Client: client, Container: a.settings.Storage.Container}
	if err := sink.EnsureContainer(ctx); err != nil {
		return err
	}
	prefix := "runs/" + time.Now().UTC().Format("20060102T150405Z") + "/"
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		url, err := sink.Upload(ctx, prefix+filepath.Base(p), data)
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded %s\n", url)
	}
	return nil
}

func (a *app) credential() (azcore.TokenCredential, error) {
	if a.cred == nil {
		cred, err := config.Credential()
		if err != nil {
			return nil, err
		}
		a.cred = cred
	}
	return a.cred, nil
}

func (a *app) foundryClient() (*foundry.Client, error) {
	p := a.settings.Project
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cred, err := a.credential()
	if err != nil {
		return nil, err
	}
	return foundry.NewClient(p.Endpoint, cred, &foundry.ClientOptions{
		APIVersion:         p.APIVersion,
		PollInterval:       p.PollInterval,
		RunTimeout:         p.RunTimeout,
		FunctionMiddleware: a.functionMiddleware(),
		Metrics:            a.metrics,
	})
}

// openAIOptions authenticates with the API key when one is configured and
// with Entra ID otherwise.
func (a *app) openAIOptions(deployment string) ([]openai.Option, error) {
	o := a.settings.OpenAI
	opts := []openai.Option{
		openai.WithEndpoint(o.Endpoint),
		openai.WithAPIVersion(o.APIVersion),
		openai.WithDeployment(deployment),
	}
	if o.APIKey != "" {
		return append(opts, openai.WithAPIKey(o.APIKey)), nil
	}
	cred, err := a.credential()
	if err != nil {
		return nil, err
	}
	return append(opts, openai.WithAzureCredential(cred)), nil
}

func (a *app) chatClient() (*openai.Client, error) {
	if err := a.settings.OpenAI.Validate(); err != nil {
		return nil, err
	}
	opts, err := a.openAIOptions(a.settings.OpenAI.ChatDeployment)
	if err != nil {
		return nil, err
	}
	return openai.New(opts...), nil
}

// localAgent builds a chat-completions agent with logging and metrics.
func (a *app) localAgent(name, instructions string, tools ...af.Tool) (*af.Agent, error) {
	client, err := a.chatClient()
	if err != nil {
		return nil, err
	}
	return af.NewAgent(client,
		af.WithName(name),
		af.WithInstructions(instructions),
		af.WithTools(tools...),
		af.WithAgentMiddleware(af.LoggingMiddleware(a.logger), a.metrics.AgentMiddleware()),
		af.WithFunctionMiddleware(a.functionMiddleware()...),
	), nil
}

func (a *app) functionMiddleware() []af.FunctionMiddleware {
	return []af.FunctionMiddleware{af.FunctionLoggingMiddleware(a.logger), a.metrics.FunctionMiddleware()}
}

func (a *app) embedder() (*rag.CachedEmbedder, error) {
	o := a.settings.OpenAI
	if err := o.ValidateEmbeddings(); err != nil {
		return nil, err
	}
	opts, err := a.openAIOptions(o.EmbeddingDeployment)
	if err != nil {
		return nil, err
	}
	emb := openai.NewEmbedder(append(opts, openai.WithDimensions(o.EmbeddingDimensions))...)

	var cache rag.Cache
	switch c := a.settings.Cache; c.Type {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		cache = rag.NewRedisCache(a.redis, c.TTL)
	case "none":
		cache = rag.NopCache{}
	case "memory", "":
		cache = rag.NewMemoryCache()
	default:
		return nil, fmt.Errorf("unknown cache type %q (want memory, redis or none)", c.Type)
	}
	return rag.NewCachedEmbedder(emb, emb.Model(), cache), nil
}

func (a *app) searchClient() (*search.Client, error) {
	s := a.settings.Search
	if err := s.Validate(); err != nil {
		return nil, err
	}
	auth := search.Auth{APIKey: s.APIKey}
	if s.APIKey == "" {
		cred, err := a.credential()
		if err != nil {
			return nil, err
		}
		auth.Credential = cred
	}
	return search.NewClient(s.Endpoint, s.Index, auth, &search.ClientOptions{APIVersion: s.APIVersion})
}

func (a *app) blobClient() (*azblob.Client, error) {
	s := a.settings.Storage
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var cred azcore.TokenCredential
	if s.ConnectionString == "" {
		var err error
		if cred, err = a.credential(); err != nil {
			return nil, err
		}
	}
	return rag.NewBlobClient(s.AccountURL, s.ConnectionString, cred, nil)
}

// responder wraps r so that its exchanges are appended to the --transcript
// file, if one was given.
func (a *app) responder(r orchestration.Responder) orchestration.Responder {
	if a.store == nil {
		return r
	}
	return &recorded{Responder: r, store: a.store}
}

// recorded appends each prompt and reply to a transcript.
type recorded struct {
	orchestration.Responder
	store af.MessageStore
}

func (r *recorded) Respond(ctx context.Context, input string) (string, error) {
	out, err := r.Responder.Respond(ctx, input)
	if err != nil {
		return "", err
	}
	prompt := af.NewUserMessage(input)
	prompt.AuthorName = "orchestrator"
	reply := af.NewAssistantMessage(out)
	reply.AuthorName = r.Name()
	if err := r.store.AddMessages(ctx, []af.Message{prompt, reply}); err != nil {
		slog.WarnContext(ctx, "transcript", "error", err)
	}
	return out, nil
}

// withApp wires the global flags and the setup and teardown hooks into
// root. Call it after the subcommands are added.
func withApp(root *cobra.Command, a *app) {
	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "settings file (yaml, json or toml)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	f.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	f.StringVar(&a.diagram, "diagram", "", "write the Mermaid sequence diagram of the run to this file")
	f.StringVar(&a.transcript, "transcript", "", "append every orchestration exchange to this JSON file")
	f.BoolVar(&a.upload, "upload", false, "upload the diagram and transcript to the configured blob container")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error { return a.setup(cmd.Context()) }
	a.finishAfterRun(root)
}

// finishAfterRun wraps the RunE of cmd and its subcommands so that finish
// runs whether or not the command failed. Cobra skips post-run hooks when
// RunE returns an error.
func (a *app) finishAfterRun(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 2*time.Minute)
				defer cancel()
				err = errors.Join(err, a.finish(ctx))
			}()
			return run(cmd, args)
		}
	}
	for _, sub := range cmd.Commands() {
		a.finishAfterRun(sub)
	}
}
