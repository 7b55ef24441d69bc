// Copyright (c) Microsoft. All rights reserved.

package foundry

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	af "github.com/microsoft/foundry-samples/go/agentframework"
	"github.com/microsoft/foundry-samples/go/internal/azrest"
)

const (
	// DefaultAPIVersion is the Agents data-plane version.
	DefaultAPIVersion = "2025-05-01"
	// Scope is the Entra ID scope for the Agents service.
	Scope = "https://ai.azure.com/.default"

	defaultPollInterval = time.Second
	defaultRunTimeout   = 5 * time.Minute
	pageSize            = 100
)

// ClientOptions tunes a [Client]. The zero value is usable.
type ClientOptions struct {
	APIVersion string
	// PollInterval paces run and vector store polling. Default 1s.
	PollInterval time.Duration
	// RunTimeout bounds RunAndWait. The run is cancelled when it expires.
	// Default 5m.
	RunTimeout time.Duration
	// FunctionMiddleware wraps local tool calls made for requires_action.
	FunctionMiddleware []af.FunctionMiddleware
	// Metrics, when set, records every RunAndWait.
	Metrics *af.Metrics

	Transport  policy.Transporter
	MaxRetries int32
}

// Client talks to the Azure AI Agents service of one Foundry project.
type Client struct {
	rest         *azrest.Client
	pollInterval time.Duration
	runTimeout   time.Duration
	functionMW   []af.FunctionMiddleware
	metrics      *af.Metrics
}

// NewClient connects to a project endpoint such as
// https://<resource>.services.ai.azure.com/api/projects/<project>.
func NewClient(endpoint string, cred azcore.TokenCredential, opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}
	version := opts.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	rest, err := azrest.New("foundry", endpoint, version,
		azrest.Auth{Credential: cred, Scope: Scope},
		&azrest.Options{Transport: opts.Transport, MaxRetries: opts.MaxRetries},
	)
	if err != nil {
		return nil, err
	}
	c := &Client{
		rest:         rest,
		pollInterval: opts.PollInterval,
		runTimeout:   opts.RunTimeout,
		functionMW:   opts.FunctionMiddleware,
		metrics:      opts.Metrics,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.runTimeout <= 0 {
		c.runTimeout = defaultRunTimeout
	}
	return c, nil
}

// listAll follows has_more/after cursors until the list is exhausted.
func listAll[T any](ctx context.Context, c *Client, path string, query url.Values, id func(T) string) ([]T, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("limit", strconv.Itoa(pageSize))

	var out []T
	for {
		var page listPage[T]
		if err := c.rest.Do(ctx, http.MethodGet, path, q, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if !page.HasMore || len(page.Data) == 0 {
			return out, nil
		}
		after := page.LastID
		if after == "" {
			after = id(page.Data[len(page.Data)-1])
		}
		q.Set("after", after)
	}
}

func (c *Client) delete(ctx context.Context, path string) error {
	var st deletionStatus
	return c.rest.Do(ctx, http.MethodDelete, path, nil, nil, &st)
}
