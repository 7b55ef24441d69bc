// Copyright (c) Microsoft. All rights reserved.

package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"
)

// Stage is one hop of a [Chain].
type Stage struct {
	Responder Responder
	// Prompt is a text/template rendered with {{.Input}}, the previous
	// stage's output, and {{.Original}}, the chain's input. Empty passes
	// the input through unchanged.
	Prompt string
}

// StepResult records one hop.
type StepResult struct {
	Stage    string
	Prompt   string
	Output   string
	Duration time.Duration
}

type ChainResult struct {
	Output string
	Steps  []StepResult
}

// Chain feeds each stage's output to the next stage.
type Chain struct {
	stages  []Stage
	prompts []*template.Template
	log     *SequenceLogger
	caller  string
}

type ChainOption func(*Chain)

// WithSequenceLogger records every hop in l.
func WithSequenceLogger(l *SequenceLogger) ChainOption { return func(c *Chain) { c.log = l } }

// WithCaller names the participant that drives the chain. Default "User".
func WithCaller(name string) ChainOption { return func(c *Chain) { c.caller = name } }

// NewChain parses the stage prompts.
func NewChain(stages []Stage, opts ...ChainOption) (*Chain, error) {
	if len(stages) == 0 {
		return nil, errors.New("chain needs at least one stage")
	}
	c := &Chain{stages: stages, caller: "User"}
	for i, s := range stages {
		if s.Responder == nil {
			return nil, fmt.Errorf("stage %d has no responder", i)
		}
		var t *template.Template
		if s.Prompt != "" {
			var err error
			t, err = template.New(s.Responder.Name()).Option("missingkey=error").Parse(s.Prompt)
			if err != nil {
				return nil, fmt.Errorf("stage %s prompt: %w", s.Responder.Name(), err)
			}
		}
		c.prompts = append(c.prompts, t)
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type promptData struct {
	Input    string
	Original string
}

// Run passes input through every stage in order. On error the result holds
// the steps completed so far.
func (c *Chain) Run(ctx context.Context, input string) (*ChainResult, error) {
	res := &ChainResult{}
	current := input
	for i, s := range c.stages {
		name := s.Responder.Name()
		prompt := current
		if t := c.prompts[i]; t != nil {
			var b strings.Builder
			if err := t.Execute(&b, promptData{Input: current, Original: input}); err != nil {
				return res, fmt.Errorf("stage %s prompt: %w", name, err)
			}
			prompt = b.String()
		}

		c.request(name, prompt)
		start := time.Now()
		out, err := s.Responder.Respond(ctx, prompt)
		if err != nil {
			c.note(name, "failed: "+err.Error())
			return res, fmt.Errorf("stage %s: %w", name, err)
		}
		c.reply(name, out)
		slog.InfoContext(ctx, "chain stage", "stage", name, "index", i, "duration", time.Since(start))

		res.Steps = append(res.Steps, StepResult{Stage: name, Prompt: prompt, Output: out, Duration: time.Since(start)})
		current = out
	}
	res.Output = current
	return res, nil
}

func (c *Chain) request(to, msg string) {
	if c.log != nil {
		c.log.Request(c.caller, to, msg)
	}
}

func (c *Chain) reply(from, msg string) {
	if c.log != nil {
		c.log.Reply(from, c.caller, msg)
	}
}

func (c *Chain) note(over, msg string) {
	if c.log != nil {
		c.log.Note(over, msg)
	}
}
