// Copyright (c) Microsoft. All rights reserved.

package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	DefaultIncidentIterations = 3
	DefaultStopPhrase         = "no action needed"
)

// IncidentResolver alternates a triage agent and a remediation agent until
// triage reports that nothing more needs doing.
type IncidentResolver struct {
	Triage      Responder
	Remediation Responder
	// MaxIterations bounds the triage rounds. Default 3.
	MaxIterations int
	// StopPhrase ends the loop when it appears in a triage reply, ignoring
	// case. Default "no action needed".
	StopPhrase string
	Log        *SequenceLogger
}

// Round is one triage and, unless the incident was resolved, one
// remediation.
type Round struct {
	Iteration   int
	Triage      string
	Remediation string
}

// Resolution is the outcome of [IncidentResolver.Resolve]. Resolved is false
// when the iteration budget ran out.
type Resolution struct {
	Resolved   bool
	Iterations int
	Rounds     []Round
}

// Resolve works on incident until triage reports the stop phrase or the
// iteration budget is spent. Running out of iterations is not an error.
func (r *IncidentResolver) Resolve(ctx context.Context, incident string) (*Resolution, error) {
	maxIter := r.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultIncidentIterations
	}
	stop := r.StopPhrase
	if stop == "" {
		stop = DefaultStopPhrase
	}

	res := &Resolution{}
	for i := 1; i <= maxIter; i++ {
		res.Iterations = i
		round := Round{Iteration: i}

		prompt := triagePrompt(incident, res.Rounds, stop)
		r.log(func(l *SequenceLogger) { l.Request("Orchestrator", r.Triage.Name(), prompt) })
		assessment, err := r.Triage.Respond(ctx, prompt)
		if err != nil {
			return res, fmt.Errorf("triage round %d: %w", i, err)
		}
		r.log(func(l *SequenceLogger) { l.Reply(r.Triage.Name(), "Orchestrator", assessment) })
		round.Triage = assessment

		if strings.Contains(strings.ToLower(assessment), strings.ToLower(stop)) {
			res.Rounds = append(res.Rounds, round)
			res.Resolved = true
			r.log(func(l *SequenceLogger) { l.Note("Orchestrator", fmt.Sprintf("resolved after %d rounds", i)) })
			slog.InfoContext(ctx, "incident resolved", "iterations", i)
			return res, nil
		}

		prompt = remediationPrompt(incident, assessment)
		r.log(func(l *SequenceLogger) { l.Request("Orchestrator", r.Remediation.Name(), prompt) })
		fix, err := r.Remediation.Respond(ctx, prompt)
		if err != nil {
			return res, fmt.Errorf("remediation round %d: %w", i, err)
		}
		r.log(func(l *SequenceLogger) { l.Reply(r.Remediation.Name(), "Orchestrator", fix) })
		round.Remediation = fix
		res.Rounds = append(res.Rounds, round)
		slog.DebugContext(ctx, "incident round", "iteration", i)
	}
	r.log(func(l *SequenceLogger) { l.Note("Orchestrator", fmt.Sprintf("unresolved after %d rounds", maxIter)) })
	slog.WarnContext(ctx, "incident unresolved", "iterations", maxIter)
	return res, nil
}

func (r *IncidentResolver) log(fn func(*SequenceLogger)) {
	if r.Log != nil {
		fn(r.Log)
	}
}

func triagePrompt(incident string, history []Round, stop string) string {
	var b strings.Builder
	b.WriteString("Incident report:\n")
	b.WriteString(incident)
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString("Remediation applied so far:\n")
		for _, h := range history {
			fmt.Fprintf(&b, "%d. %s\n", h.Iteration, h.Remediation)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Assess the current state. If the incident is resolved, reply with %q. Otherwise describe what still needs to change.", stop)
	return b.String()
}

func remediationPrompt(incident, assessment string) string {
	return "Incident report:\n" + incident + "\n\nTriage assessment:\n" + assessment +
		"\n\nPropose concrete remediation steps."
}
