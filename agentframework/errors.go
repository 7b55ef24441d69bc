// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Match them with errors.Is.
var (
	ErrAgent             = errors.New("agent error")
	ErrExecution         = fmt.Errorf("%w: execution", ErrAgent)
	ErrSession           = fmt.Errorf("%w: session", ErrAgent)
	ErrSessionModeLocked = fmt.Errorf("%w: mode already set", ErrSession)

	ErrService         = errors.New("service error")
	ErrAuth            = fmt.Errorf("%w: authentication", ErrService)
	ErrInvalidRequest  = fmt.Errorf("%w: invalid request", ErrService)
	ErrContentFilter   = fmt.Errorf("%w: content filter", ErrInvalidRequest)
	ErrNotFound        = fmt.Errorf("%w: not found", ErrService)
	ErrRateLimited     = fmt.Errorf("%w: rate limited", ErrService)
	ErrInvalidResponse = fmt.Errorf("%w: invalid response", ErrService)

	ErrTool          = errors.New("tool error")
	ErrToolExecution = fmt.Errorf("%w: execution", ErrTool)
	ErrUnknownTool   = fmt.Errorf("%w: unknown tool", ErrTool)
)

// ServiceError describes a failed call to a backend service. Err is the
// sentinel the status maps to.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError classifies a failed HTTP exchange. Every backend client in
// this module funnels its failures through here so callers can rely on one
// status policy.
func NewServiceError(status int, code, message string) *ServiceError {
	e := &ServiceError{StatusCode: status, Code: code, Message: message}
	switch {
	case code == "content_filter" || code == "ResponsibleAIPolicyViolation":
		e.Err = ErrContentFilter
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Err = ErrAuth
	case status == http.StatusNotFound:
		e.Err = ErrNotFound
	case status == http.StatusTooManyRequests:
		e.Err = ErrRateLimited
	case status == http.StatusBadRequest:
		e.Err = ErrInvalidRequest
	default:
		e.Err = ErrService
	}
	return e
}

// ToolError wraps a failure raised while invoking a [Tool].
type ToolError struct {
	ToolName string
	Message  string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.ToolName, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }
