// Copyright (c) Microsoft. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/internal/azrest"
)

const (
	// DefaultAPIVersion is the Search data-plane version.
	DefaultAPIVersion = "2024-07-01"
	// Scope is the Entra ID scope for Azure AI Search.
	Scope = "https://search.azure.com/.default"

	// MaxBatchSize is the service limit on documents per indexing request.
	MaxBatchSize = 1000
)

// Auth selects API key or Entra ID authentication. Credential wins when both
// are set.
type Auth struct {
	Credential azcore.TokenCredential
	APIKey     string
}

type ClientOptions struct {
	APIVersion string
	Transport  policy.Transporter
	MaxRetries int32
}

// Client reads and writes one index.
type Client struct {
	rest  *azrest.Client
	index string
}

// NewClient connects to https://<service>.search.windows.net for index.
func NewClient(endpoint, index string, auth Auth, opts *ClientOptions) (*Client, error) {
	if index == "" {
		return nil, errors.New("search: index name is required")
	}
	if opts == nil {
		opts = &ClientOptions{}
	}
	version := opts.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	rest, err := azrest.New("search", endpoint, version,
		azrest.Auth{Credential: auth.Credential, Scope: Scope, APIKey: auth.APIKey},
		&azrest.Options{Transport: opts.Transport, MaxRetries: opts.MaxRetries},
	)
	if err != nil {
		return nil, err
	}
	return &Client{rest: rest, index: index}, nil
}

// IndexName returns the index the client is bound to.
func (c *Client) IndexName() string { return c.index }

func (c *Client) indexPath() string { return "/indexes/" + url.PathEscape(c.index) }

// CreateOrUpdateIndex puts idx. idx.Name must match the client's index.
func (c *Client) CreateOrUpdateIndex(ctx context.Context, idx *Index) (*Index, error) {
	if idx.Name != c.index {
		return nil, fmt.Errorf("%w: index %q does not match client index %q", af.ErrInvalidRequest, idx.Name, c.index)
	}
	var out Index
	err := c.rest.Do(ctx, http.MethodPut, c.indexPath(), nil, idx, &out,
		http.StatusOK, http.StatusCreated, http.StatusNoContent)
	if err != nil {
		return nil, err
	}
	if out.Name == "" {
		out = *idx
	}
	return &out, nil
}

func (c *Client) GetIndex(ctx context.Context) (*Index, error) {
	var out Index
	if err := c.rest.Do(ctx, http.MethodGet, c.indexPath(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteIndex removes the index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context) error {
	err := c.rest.Do(ctx, http.MethodDelete, c.indexPath(), nil, nil, nil, http.StatusNoContent, http.StatusOK)
	if errors.Is(err, af.ErrNotFound) {
		return nil
	}
	return err
}

// Count returns the number of documents in the index.
func (c *Client) Count(ctx context.Context) (int64, error) {
	raw, err := c.rest.DoRaw(ctx, c.indexPath()+"/docs/$count", nil)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(strings.TrimPrefix(string(raw), "\ufeff"))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: count %q", af.ErrInvalidResponse, s)
	}
	return n, nil
}
