// Copyright (c) Microsoft. All rights reserved.

// Package azrest is the shared plumbing for the Azure data-plane REST APIs
// called directly by this module: an azcore pipeline with retry and
// authentication, JSON round trips, and error classification.
package azrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

const moduleVersion = "v0.1.0"

// Auth selects how requests are authenticated. Credential wins over APIKey.
type Auth struct {
	Credential azcore.TokenCredential
	Scope      string

	APIKey    string
	KeyHeader string // defaults to "api-key"
}

// Options tunes the pipeline.
type Options struct {
	// Transport replaces the default HTTP client, e.g. with an httptest
	// server's client.
	Transport policy.Transporter
	// MaxRetries overrides the azcore default of 3. Negative disables
	// retries.
	MaxRetries int32
}

// Client sends requests to one service endpoint.
type Client struct {
	endpoint   string
	apiVersion string
	pl         runtime.Pipeline
}

// New builds a client for endpoint. apiVersion is added to every request.
func New(module, endpoint, apiVersion string, auth Auth, opts *Options) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("azrest: endpoint is required")
	}
	var authPolicy policy.Policy
	switch {
	case auth.Credential != nil:
		if auth.Scope == "" {
			return nil, errors.New("azrest: token scope is required")
		}
		authPolicy = runtime.NewBearerTokenPolicy(auth.Credential, []string{auth.Scope}, nil)
	case auth.APIKey != "":
		header := auth.KeyHeader
		if header == "" {
			header = "api-key"
		}
		authPolicy = runtime.NewKeyCredentialPolicy(azcore.NewKeyCredential(auth.APIKey), header, nil)
	default:
		return nil, errors.New("azrest: a credential or API key is required")
	}

	clientOpts := &policy.ClientOptions{}
	if opts != nil {
		clientOpts.Transport = opts.Transport
		if opts.MaxRetries != 0 {
			clientOpts.Retry.MaxRetries = opts.MaxRetries
		}
	}
	pl := runtime.NewPipeline(module, moduleVersion, runtime.PipelineOptions{
		PerRetry: []policy.Policy{authPolicy},
	}, clientOpts)

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiVersion: apiVersion,
		pl:         pl,
	}, nil
}

// Endpoint returns the service root the client was built with.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values) (*policy.Request, error) {
	req, err := runtime.NewRequest(ctx, method, runtime.JoinPaths(c.endpoint, path))
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if c.apiVersion != "" {
		q.Set("api-version", c.apiVersion)
	}
	req.Raw().URL.RawQuery = q.Encode()
	req.Raw().Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends body as JSON (when non-nil) and decodes the response into out
// (when non-nil). ok lists the accepted status codes; the default is 200
// and 201.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any, ok ...int) error {
	req, err := c.newRequest(ctx, method, path, query)
	if err != nil {
		return err
	}
	if body != nil {
		if err := runtime.MarshalAsJSON(req, body); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}
	return c.send(req, out, ok)
}

// DoMultipart posts a multipart/form-data body. File parts are given as
// [streaming.MultipartContent]; other values are sent as plain fields.
func (c *Client) DoMultipart(ctx context.Context, path string, fields map[string]any, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	if err := runtime.SetMultipartFormData(req, fields); err != nil {
		return fmt.Errorf("encode multipart %s: %w", path, err)
	}
	return c.send(req, out, nil)
}

// DoRaw returns the undecoded body of a successful GET.
func (c *Client) DoRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return nil, err
	}
	req.Raw().Header.Set("Accept", "*/*")
	resp, err := c.pl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", af.ErrService, err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return nil, responseError(resp)
	}
	return runtime.Payload(resp)
}

func (c *Client) send(req *policy.Request, out any, ok []int) error {
	if len(ok) == 0 {
		ok = []int{http.StatusOK, http.StatusCreated}
	}
	resp, err := c.pl.Do(req)
	if err != nil {
		if ctxErr := req.Raw().Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", af.ErrService, err)
	}
	if !runtime.HasStatusCode(resp, ok...) {
		return responseError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := runtime.UnmarshalAsJSON(resp, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", af.ErrInvalidResponse, req.Raw().URL.Path, err)
	}
	return nil
}

// responseError classifies a failed response. Both the OpenAI-style
// {"error":{"code","message"}} and the OData style used by Search share this
// shape.
func responseError(resp *http.Response) error {
	body, _ := runtime.Payload(resp)
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	code := payload.Error.Code
	if code == "" {
		code = resp.Header.Get("x-ms-error-code")
	}
	msg := payload.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return af.NewServiceError(resp.StatusCode, code, msg)
}

// FilePart wraps data as a multipart file field for [Client.DoMultipart].
func FilePart(filename, contentType string, data []byte) streaming.MultipartContent {
	return streaming.MultipartContent{
		Body:        streaming.NopCloser(bytes.NewReader(data)),
		ContentType: contentType,
		Filename:    filename,
	}
}
