// Copyright (c) Microsoft. All rights reserved.

package foundry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

func threadPath(threadID string) string { return "/threads/" + url.PathEscape(threadID) }

// CreateThread starts a conversation. req may be nil.
func (c *Client) CreateThread(ctx context.Context, req *CreateThreadRequest) (*Thread, error) {
	if req == nil {
		req = &CreateThreadRequest{}
	}
	var t Thread
	if err := c.rest.Do(ctx, http.MethodPost, "/threads", nil, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	var t Thread
	if err := c.rest.Do(ctx, http.MethodGet, threadPath(threadID), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.delete(ctx, threadPath(threadID))
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID string, req *CreateMessageRequest) (*ThreadMessage, error) {
	var m ThreadMessage
	if err := c.rest.Do(ctx, http.MethodPost, threadPath(threadID)+"/messages", nil, req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns the whole thread, oldest first.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	return listAll(ctx, c, threadPath(threadID)+"/messages", url.Values{"order": {"asc"}},
		func(m ThreadMessage) string { return m.ID })
}

// LatestReply returns the newest assistant message, restricted to runID
// when it is non-empty.
func (c *Client) LatestReply(ctx context.Context, threadID, runID string) (*ThreadMessage, error) {
	q := url.Values{"order": {"desc"}, "limit": {strconv.Itoa(20)}}
	if runID != "" {
		q.Set("run_id", runID)
	}
	var page listPage[ThreadMessage]
	if err := c.rest.Do(ctx, http.MethodGet, threadPath(threadID)+"/messages", q, nil, &page); err != nil {
		return nil, err
	}
	for i := range page.Data {
		if page.Data[i].Role == MessageRoleAssistant {
			return &page.Data[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %w in thread %s", af.ErrNotFound, errNoReply, threadID)
}

// Text joins the message's text parts.
func (m *ThreadMessage) Text() string {
	var parts []string
	for _, c := range m.Content {
		if c.Text != nil {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// ToMessage converts the message to framework form. Citations become
// [af.CitationContent]; images and generated files become
// [af.HostedFileContent].
func (m *ThreadMessage) ToMessage() af.Message {
	role := af.RoleUser
	if m.Role == MessageRoleAssistant {
		role = af.RoleAssistant
	}
	msg := af.Message{Role: role, MessageID: m.ID, AuthorName: m.AgentID, Raw: m}
	for _, c := range m.Content {
		switch {
		case c.Text != nil:
			msg.Contents = append(msg.Contents, &af.TextContent{Text: c.Text.Value})
			for _, a := range c.Text.Annotations {
				if ac := annotationContent(a); ac != nil {
					msg.Contents = append(msg.Contents, ac)
				}
			}
		case c.ImageFile != nil:
			msg.Contents = append(msg.Contents, &af.HostedFileContent{FileID: c.ImageFile.FileID})
		}
	}
	return msg
}

func annotationContent(a Annotation) af.Content {
	switch {
	case a.URLCitation != nil:
		return &af.CitationContent{Marker: a.Text, URL: a.URLCitation.URL, Title: a.URLCitation.Title}
	case a.FileCitation != nil:
		return &af.CitationContent{Marker: a.Text, FileID: a.FileCitation.FileID, Quote: a.FileCitation.Quote}
	case a.FilePath != nil:
		name := a.Text
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		return &af.HostedFileContent{FileID: a.FilePath.FileID, Filename: name}
	}
	return nil
}
