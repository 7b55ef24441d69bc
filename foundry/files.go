// Copyright (c) Microsoft. All rights reserved.

package foundry

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/internal/azrest"
)

// PurposeAgents marks files for use by agent tools.
const PurposeAgents = "assistants"

// UploadFile stores data under filename for use by file_search and
// code_interpreter.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte) (*File, error) {
	ct := mime.TypeByExtension(filepath.Ext(filename))
	if ct == "" {
		ct = "application/octet-stream"
	}
	var f File
	err := c.rest.DoMultipart(ctx, "/files", map[string]any{
		"purpose": PurposeAgents,
		"file":    azrest.FilePart(filepath.Base(filename), ct, data),
	}, &f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UploadFileFromPath reads path and uploads it.
func (c *Client) UploadFileFromPath(ctx context.Context, path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.UploadFile(ctx, filepath.Base(path), data)
}

func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.delete(ctx, "/files/"+url.PathEscape(fileID))
}

// FileContent downloads a file, such as a chart written by the code
// interpreter.
func (c *Client) FileContent(ctx context.Context, fileID string) ([]byte, error) {
	return c.rest.DoRaw(ctx, "/files/"+url.PathEscape(fileID)+"/content", nil)
}

// CreateVectorStore indexes fileIDs for file_search. Indexing continues in
// the background; see [Client.WaitVectorStore].
func (c *Client) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (*VectorStore, error) {
	body := struct {
		Name    string   `json:"name"`
		FileIDs []string `json:"file_ids,omitempty"`
	}{name, fileIDs}
	var vs VectorStore
	if err := c.rest.Do(ctx, http.MethodPost, "/vector_stores", nil, body, &vs); err != nil {
		return nil, err
	}
	return &vs, nil
}

func (c *Client) GetVectorStore(ctx context.Context, id string) (*VectorStore, error) {
	var vs VectorStore
	if err := c.rest.Do(ctx, http.MethodGet, "/vector_stores/"+url.PathEscape(id), nil, nil, &vs); err != nil {
		return nil, err
	}
	return &vs, nil
}

// WaitVectorStore polls until indexing finishes. A store whose files all
// failed, or one that expired, is an error. Indexing that outlasts the
// client's RunTimeout returns the last status seen with ErrVectorStoreTimeout.
func (c *Client) WaitVectorStore(ctx context.Context, id string) (*VectorStore, error) {
	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	deadline := time.Now().Add(c.runTimeout)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		vs, err := c.GetVectorStore(ctx, id)
		if err != nil {
			return nil, err
		}
		switch vs.Status {
		case "completed":
			if vs.FileCounts.Total > 0 && vs.FileCounts.Failed == vs.FileCounts.Total {
				return vs, fmt.Errorf("%w: vector store %s: all %d files failed", af.ErrService, id, vs.FileCounts.Total)
			}
			return vs, nil
		case "expired", "failed":
			return vs, fmt.Errorf("%w: vector store %s %s", af.ErrService, id, vs.Status)
		}
		if time.Now().After(deadline) {
			return vs, fmt.Errorf("%w: vector store %s still %s", ErrVectorStoreTimeout, id, vs.Status)
		}
	}
}

func (c *Client) DeleteVectorStore(ctx context.Context, id string) error {
	return c.delete(ctx, "/vector_stores/"+url.PathEscape(id))
}
