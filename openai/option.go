// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	af "github.com/microsoft/foundry-samples/go/agentframework"
)

// DefaultAPIVersion is the Azure OpenAI data-plane version used when none is
// configured.
const DefaultAPIVersion = "2024-10-21"

type clientConfig struct {
	endpoint        string
	apiVersion      string
	baseURL         string
	apiKey          string
	azureCredential azcore.TokenCredential
	deployment      string
	dimensions      int
	httpClient      *http.Client
	maxRetries      *int
	chatMiddleware  []af.ChatMiddleware
}

// Option configures a [Client] or an [Embedder].
type Option func(*clientConfig)

// WithEndpoint targets an Azure OpenAI resource, e.g.
// https://my-resource.openai.azure.com.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) { c.endpoint = endpoint }
}

// WithAPIVersion overrides [DefaultAPIVersion].
func WithAPIVersion(v string) Option {
	return func(c *clientConfig) { c.apiVersion = v }
}

// WithBaseURL targets a plain OpenAI-compatible endpoint instead of Azure.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithAPIKey authenticates with a key. On Azure it is sent as the api-key
// header; elsewhere as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithAzureCredential authenticates with Entra ID. It takes precedence over
// an API key.
func WithAzureCredential(cred azcore.TokenCredential) Option {
	return func(c *clientConfig) { c.azureCredential = cred }
}

// WithDeployment sets the deployment (Azure) or model name used when a
// request does not name one.
func WithDeployment(name string) Option {
	return func(c *clientConfig) { c.deployment = name }
}

// WithDimensions requests shortened embeddings. Zero keeps the model's
// native size.
func WithDimensions(n int) Option {
	return func(c *clientConfig) { c.dimensions = n }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithMaxRetries overrides the SDK's retry count for 408/429/5xx responses.
func WithMaxRetries(n int) Option {
	return func(c *clientConfig) { c.maxRetries = &n }
}

// WithChatMiddleware wraps [Client.Response]. The first middleware is the
// outermost.
func WithChatMiddleware(mw ...af.ChatMiddleware) Option {
	return func(c *clientConfig) { c.chatMiddleware = append(c.chatMiddleware, mw...) }
}

func newConfig(opts []Option) *clientConfig {
	cfg := &clientConfig{apiVersion: DefaultAPIVersion}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// requestOptions translates the configuration into openai-go options.
func (c *clientConfig) requestOptions() []option.RequestOption {
	var opts []option.RequestOption
	if c.endpoint != "" {
		opts = append(opts, azure.WithEndpoint(c.endpoint, c.apiVersion))
		switch {
		case c.azureCredential != nil:
			opts = append(opts, azure.WithTokenCredential(c.azureCredential))
		case c.apiKey != "":
			opts = append(opts, azure.WithAPIKey(c.apiKey))
		}
	} else {
		if c.baseURL != "" {
			opts = append(opts, option.WithBaseURL(c.baseURL))
		}
		key := c.apiKey
		if key == "" {
			// local OpenAI-compatible servers accept any key
			key = "unused"
		}
		opts = append(opts, option.WithAPIKey(key))
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	if c.maxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*c.maxRetries))
	}
	return opts
}
