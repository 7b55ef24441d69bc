// Copyright (c) Microsoft. All rights reserved.

package foundry

import (
	"errors"
	"fmt"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Run outcome errors. They wrap af.ErrExecution.
var (
	ErrRunFailed    = fmt.Errorf("%w: run failed", af.ErrExecution)
	ErrRunCancelled = fmt.Errorf("%w: run cancelled", af.ErrExecution)
	ErrRunExpired   = fmt.Errorf("%w: run expired", af.ErrExecution)
	ErrRunTimeout   = fmt.Errorf("%w: run timed out", af.ErrExecution)

	ErrVectorStoreTimeout = fmt.Errorf("%w: vector store indexing timed out", af.ErrExecution)

	errNoReply = errors.New("no assistant reply")
)

// RunError carries the run and, for failed runs, the service's last_error.
type RunError struct {
	RunID   string
	Status  RunStatus
	Code    string
	Message string
	Err     error
}

func (e *RunError) Error() string {
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("run %s %s: %s: %s", e.RunID, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("run %s %s", e.RunID, e.Status)
}

func (e *RunError) Unwrap() error { return e.Err }

func runError(run *Run) error {
	e := &RunError{RunID: run.ID, Status: run.Status}
	if run.LastError != nil {
		e.Code, e.Message = run.LastError.Code, run.LastError.Message
	}
	switch run.Status {
	case RunStatusFailed:
		e.Err = ErrRunFailed
	case RunStatusCancelled:
		e.Err = ErrRunCancelled
	case RunStatusExpired:
		e.Err = ErrRunExpired
	default:
		return nil
	}
	return e
}
