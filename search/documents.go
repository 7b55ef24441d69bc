// Copyright (c) Microsoft. All rights reserved.

package search

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strings"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// Document is one chunk stored in a [RAGIndex].
type Document struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Title         string    `json:"title,omitempty"`
	Source        string    `json:"source,omitempty"`
	ChunkIndex    int       `json:"chunk_index"`
	ContentVector []float32 `json:"content_vector,omitempty"`
}

type indexAction struct {
	Action string `json:"@search.action"`
	Document
}

type indexResult struct {
	Key          string `json:"key"`
	Status       bool   `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StatusCode   int    `json:"statusCode"`
}

// IndexingError reports the documents the service rejected. Documents not
// listed were stored.
type IndexingError struct {
	Failed map[string]string // key -> error message
}

func (e *IndexingError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Failed))
	if len(keys) == 0 {
		return "search: indexing failed"
	}
	return fmt.Sprintf("search: %d documents failed to index (first %s: %s)", len(keys), keys[0], e.Failed[keys[0]])
}

func (e *IndexingError) Unwrap() error { return af.ErrService }

// UploadDocuments merges or uploads docs in batches of [MaxBatchSize]. It
// returns the number of documents stored; per-document failures are
// collected into an *[IndexingError] and do not stop later batches.
func (c *Client) UploadDocuments(ctx context.Context, docs []Document) (int, error) {
	for _, d := range docs {
		if !IsValidKey(d.ID) {
			return 0, fmt.Errorf("%w: invalid document key %q", af.ErrInvalidRequest, d.ID)
		}
	}
	failed := map[string]string{}
	stored := 0
	for start := 0; start < len(docs); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(docs))
		batch := make([]indexAction, 0, end-start)
		for _, d := range docs[start:end] {
			batch = append(batch, indexAction{Action: "mergeOrUpload", Document: d})
		}
		body := struct {
			Value []indexAction `json:"value"`
		}{batch}
		var resp struct {
			Value []indexResult `json:"value"`
		}
		// 207 means some documents failed.
		err := c.rest.Do(ctx, http.MethodPost, c.indexPath()+"/docs/index", nil, body, &resp,
			http.StatusOK, http.StatusMultiStatus)
		if err != nil {
			return stored, err
		}
		for _, r := range resp.Value {
			if r.Status {
				stored++
			} else {
				failed[r.Key] = r.ErrorMessage
			}
		}
		slog.DebugContext(ctx, "indexed batch", "index", c.index, "documents", len(batch), "failed", len(failed))
	}
	if len(failed) > 0 {
		return stored, &IndexingError{Failed: failed}
	}
	return stored, nil
}

var (
	validKey   = regexp.MustCompile(`^[A-Za-z0-9_\-=]+$`)
	invalidKey = regexp.MustCompile(`[^A-Za-z0-9_\-=]+`)
)

// IsValidKey reports whether s may be used as a document key: letters,
// digits, underscore, dash and equals sign only.
func IsValidKey(s string) bool {
	return len(s) <= 1024 && validKey.MatchString(s)
}

// SanitizeKey replaces every run of disallowed characters with a dash.
func SanitizeKey(s string) string {
	s = invalidKey.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "doc"
	}
	return s
}
