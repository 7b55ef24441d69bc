// Copyright (c) Microsoft. All rights reserved.

// Package orchestration composes agents by prompt: a [Chain] feeds each
// agent's answer to the next, and an [IncidentResolver] loops a triage and a
// remediation agent. Exchanges can be recorded with a [SequenceLogger] and
// rendered as a Mermaid sequence diagram.
package orchestration
