// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Agent combines a [ChatClient] with instructions, tools, middleware and
// session handling.
//
//	agent := agentframework.NewAgent(client,
//	    agentframework.WithName("triage"),
//	    agentframework.WithInstructions("Classify the incident."),
//	    agentframework.WithTools(lookupTool),
//	)
type Agent struct {
	id              string
	name            string
	description     string
	client          ChatClient
	instructions    string
	tools           []Tool
	defaultOptions  *ChatOptions
	storeFactory    func() MessageStore
	contextProvider ContextProvider
	agentMW         []AgentMiddleware
	chatMW          []ChatMiddleware
	functionMW      []FunctionMiddleware
	invocation      InvocationConfig
}

// AgentOption configures an [Agent].
type AgentOption func(*Agent)

// WithID overrides the generated agent ID.
func WithID(id string) AgentOption {
	return func(a *Agent) { a.id = id }
}

func WithName(name string) AgentOption {
	return func(a *Agent) { a.name = name }
}

func WithDescription(desc string) AgentOption {
	return func(a *Agent) { a.description = desc }
}

// WithInstructions sets the system prompt.
func WithInstructions(instructions string) AgentOption {
	return func(a *Agent) { a.instructions = instructions }
}

// WithTools adds tools available on every run.
func WithTools(tools ...Tool) AgentOption {
	return func(a *Agent) { a.tools = append(a.tools, tools...) }
}

// WithDefaultOptions sets options that per-run options are merged over.
func WithDefaultOptions(opts *ChatOptions) AgentOption {
	return func(a *Agent) { a.defaultOptions = opts }
}

// WithMessageStoreFactory chooses the store given to new local sessions.
// The default is [NewInMemoryStore].
func WithMessageStoreFactory(f func() MessageStore) AgentOption {
	return func(a *Agent) { a.storeFactory = f }
}

func WithContextProvider(cp ContextProvider) AgentOption {
	return func(a *Agent) { a.contextProvider = cp }
}

// WithAgentMiddleware appends agent-level middleware. The first one added is
// the outermost.
func WithAgentMiddleware(mws ...AgentMiddleware) AgentOption {
	return func(a *Agent) { a.agentMW = append(a.agentMW, mws...) }
}

// WithChatMiddleware appends middleware around every non-streaming model
// call, including each round of the tool loop.
func WithChatMiddleware(mws ...ChatMiddleware) AgentOption {
	return func(a *Agent) { a.chatMW = append(a.chatMW, mws...) }
}

// WithFunctionMiddleware appends middleware around every tool invocation.
func WithFunctionMiddleware(mws ...FunctionMiddleware) AgentOption {
	return func(a *Agent) { a.functionMW = append(a.functionMW, mws...) }
}

func WithInvocationConfig(cfg InvocationConfig) AgentOption {
	return func(a *Agent) { a.invocation = cfg }
}

// NewAgent returns an agent backed by client.
func NewAgent(client ChatClient, opts ...AgentOption) *Agent {
	a := &Agent{
		id:         uuid.NewString(),
		client:     client,
		invocation: DefaultInvocationConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) ID() string          { return a.id }
func (a *Agent) Name() string        { return a.name }
func (a *Agent) Description() string { return a.description }

// RunOption configures one call to [Agent.Run] or [Agent.RunStream].
type RunOption func(*runConfig)

type runConfig struct {
	session *Session
	tools   []Tool
	options *ChatOptions
}

// WithSession continues the conversation held by s.
func WithSession(s *Session) RunOption {
	return func(c *runConfig) { c.session = s }
}

// WithRunTools adds tools for this run only.
func WithRunTools(tools ...Tool) RunOption {
	return func(c *runConfig) { c.tools = append(c.tools, tools...) }
}

// WithRunOptions merges opts over the agent defaults for this run.
func WithRunOptions(opts *ChatOptions) RunOption {
	return func(c *runConfig) { c.options = opts }
}

// NewSession returns a local session using the agent's store factory.
func (a *Agent) NewSession() *Session {
	return NewSession(WithSessionStore(a.newStore()))
}

func (a *Agent) newStore() MessageStore {
	if a.storeFactory != nil {
		return a.storeFactory()
	}
	return NewInMemoryStore()
}

// Run sends messages to the model, resolving tool calls, and returns the
// final answer. With a session, prior history is prepended and the exchange
// is appended to it.
func (a *Agent) Run(ctx context.Context, messages []Message, opts ...RunOption) (*AgentResponse, error) {
	cfg := buildRunConfig(opts)
	req := &AgentRequest{
		AgentName: a.name,
		Messages:  messages,
		Session:   cfg.session,
		Options:   a.chatOptions(cfg),
	}
	return chainAgent(a.run, a.agentMW...)(ctx, req)
}

func (a *Agent) run(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
	opts := MergeChatOptions(req.Options, nil)
	all, cp, err := a.prepare(ctx, req, opts)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "agent run",
		"agent_id", a.id,
		"agent_name", a.name,
		"message_count", len(all),
		"tool_count", len(opts.Tools),
	)

	chat := ChainChat(a.client.Response, a.chatMW...)
	var (
		resp     *ChatResponse
		produced []Message
	)
	if len(opts.Tools) > 0 {
		resp, produced, err = runToolLoop(ctx, chat, all, opts, a.invocation, a.functionMW)
	} else {
		resp, err = chat(ctx, all, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	out := append(produced, resp.Messages...)
	a.finish(ctx, req, cp, out)

	return &AgentResponse{
		Messages:   out,
		ResponseID: resp.ResponseID,
		AgentID:    a.id,
		Usage:      resp.Usage,
		Raw:        resp.Raw,
	}, nil
}

// RunStream is the streaming form of [Run]. Tool calls in the stream are
// resolved between rounds and the follow-up answer is streamed too. Agent
// and chat middleware do not apply to streaming runs.
func (a *Agent) RunStream(ctx context.Context, messages []Message, opts ...RunOption) (*ResponseStream[AgentResponseUpdate], error) {
	cfg := buildRunConfig(opts)
	req := &AgentRequest{AgentName: a.name, Messages: messages, Session: cfg.session, Options: a.chatOptions(cfg)}
	chatOpts := req.Options
	all, cp, err := a.prepare(ctx, req, chatOpts)
	if err != nil {
		return nil, err
	}
	inv := a.invocation.withDefaults()
	tools := NewToolSet(chatOpts.Tools...)

	return NewResponseStream(ctx, func(ctx context.Context, ch chan<- AgentResponseUpdate) error {
		var produced []Message
		for round := 0; round < inv.MaxIterations; round++ {
			src, err := a.client.StreamResponse(ctx, all, chatOpts)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrExecution, err)
			}
			var updates []ChatResponseUpdate
			for {
				u, ok, err := src.Next(ctx)
				if err != nil {
					src.Close()
					return fmt.Errorf("%w: %w", ErrExecution, err)
				}
				if !ok {
					break
				}
				updates = append(updates, u)
				select {
				case ch <- AgentResponseUpdate{Contents: u.Contents, Role: u.Role, AgentID: a.id, ResponseID: u.ResponseID, Usage: u.Usage}:
				case <-ctx.Done():
					src.Close()
					return ctx.Err()
				}
			}
			src.Close()

			merged := MergeUpdates(updates)
			produced = append(produced, merged.Messages...)
			calls := FunctionCalls(merged)
			if len(calls) == 0 || tools.Len() == 0 {
				a.finish(ctx, req, cp, produced)
				return nil
			}
			all = append(all, merged.Messages...)
			for _, call := range calls {
				result, _, err := callTool(ctx, tools, call, inv, a.functionMW)
				if err != nil {
					return err
				}
				msg := NewToolMessage(call.CallID, result)
				all = append(all, msg)
				produced = append(produced, msg)
			}
		}
		return fmt.Errorf("%w: tool loop exceeded %d iterations", ErrExecution, inv.MaxIterations)
	}), nil
}

func buildRunConfig(opts []RunOption) *runConfig {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (a *Agent) chatOptions(cfg *runConfig) *ChatOptions {
	opts := MergeChatOptions(a.defaultOptions, cfg.options)
	tools := make([]Tool, 0, len(a.tools)+len(cfg.tools)+len(opts.Tools))
	tools = append(tools, a.tools...)
	tools = append(tools, opts.Tools...)
	tools = append(tools, cfg.tools...)
	opts.Tools = NewToolSet(tools...).Tools()
	opts.Instructions = joinInstructions(a.instructions, opts.Instructions)
	return opts
}

func (a *Agent) provider(s *Session) ContextProvider {
	if s != nil && s.ContextProvider() != nil {
		return s.ContextProvider()
	}
	return a.contextProvider
}

// prepare builds the full message list for the model and folds the context
// provider's contribution into opts.
func (a *Agent) prepare(ctx context.Context, req *AgentRequest, opts *ChatOptions) ([]Message, ContextProvider, error) {
	var all []Message
	if req.Session != nil {
		if store := req.Session.Store(); store != nil {
			history, err := store.ListMessages(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: load history: %w", ErrSession, err)
			}
			all = append(all, history...)
		}
	}
	all = append(all, req.Messages...)

	cp := a.provider(req.Session)
	if cp != nil {
		extra, err := cp.Invoking(ctx, all)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: context provider: %w", ErrExecution, err)
		}
		if extra != nil {
			opts.Instructions = joinInstructions(opts.Instructions, extra.Instructions)
			if len(extra.Messages) > 0 {
				all = append(append([]Message(nil), extra.Messages...), all...)
			}
			if len(extra.Tools) > 0 {
				opts.Tools = NewToolSet(append(opts.Tools, extra.Tools...)...).Tools()
			}
		}
	}
	return EnsureSystemMessage(all, opts.Instructions), cp, nil
}

// finish records the exchange in the session and notifies the context
// provider. Failures are logged; the answer has already been produced.
func (a *Agent) finish(ctx context.Context, req *AgentRequest, cp ContextProvider, response []Message) {
	if s := req.Session; s != nil && s.ServiceID() == "" {
		store := s.Store()
		if store == nil {
			store = a.newStore()
			if err := s.SetStore(store); err != nil {
				slog.WarnContext(ctx, "session store", "session_id", s.ID(), "error", err)
				store = nil
			}
		}
		if store != nil {
			exchange := append(append([]Message(nil), req.Messages...), response...)
			if err := store.AddMessages(ctx, exchange); err != nil {
				slog.WarnContext(ctx, "persist session history", "session_id", s.ID(), "error", err)
			}
		}
	}
	if cp != nil {
		if err := cp.Invoked(ctx, req.Messages, response); err != nil {
			slog.WarnContext(ctx, "context provider invoked hook", "error", err)
		}
	}
}
