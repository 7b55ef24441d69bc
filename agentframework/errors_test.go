// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"errors"
	"fmt"
	"testing"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

func TestNewServiceError_StatusPolicy(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
	}{
		{401, "", af.ErrAuth},
		{403, "PermissionDenied", af.ErrAuth},
		{400, "", af.ErrInvalidRequest},
		{400, "content_filter", af.ErrContentFilter},
		{400, "ResponsibleAIPolicyViolation", af.ErrContentFilter},
		{404, "", af.ErrNotFound},
		{429, "", af.ErrRateLimited},
		{500, "", af.ErrService},
		{503, "", af.ErrService},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.status, tt.code), func(t *testing.T) {
			err := error(af.NewServiceError(tt.status, tt.code, "msg"))
			if !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.want)
			}
			if !errors.Is(err, af.ErrService) {
				t.Error("every service error wraps ErrService")
			}
			var se *af.ServiceError
			if !errors.As(err, &se) || se.StatusCode != tt.status {
				t.Errorf("errors.As = %+v", se)
			}
		})
	}
}

func TestContentFilterIsInvalidRequest(t *testing.T) {
	if !errors.Is(af.ErrContentFilter, af.ErrInvalidRequest) {
		t.Error("ErrContentFilter should wrap ErrInvalidRequest")
	}
}

func TestServiceError_Message(t *testing.T) {
	err := af.NewServiceError(404, "NotFound", "no such agent")
	if got := err.Error(); got != "service error 404 (NotFound): no such agent" {
		t.Errorf("Error() = %q", got)
	}
	err = af.NewServiceError(500, "", "boom")
	if got := err.Error(); got != "service error 500: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSessionErrorsAreAgentErrors(t *testing.T) {
	if !errors.Is(af.ErrSessionModeLocked, af.ErrSession) || !errors.Is(af.ErrSession, af.ErrAgent) {
		t.Error("session errors should wrap ErrAgent")
	}
}
