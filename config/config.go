// Copyright (c) Microsoft. All rights reserved.

// Package config loads sample settings from a .env file, an optional config
// file and the well-known Azure environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the full sample configuration.
type Settings struct {
	Project  ProjectSettings  `mapstructure:"project"`
	OpenAI   OpenAISettings   `mapstructure:"openai"`
	Search   SearchSettings   `mapstructure:"search"`
	Storage  StorageSettings  `mapstructure:"storage"`
	Tools    ToolSettings     `mapstructure:"tools"`
	Cache    CacheSettings    `mapstructure:"cache"`
	Chunking ChunkingSettings `mapstructure:"chunking"`
	Log      LogSettings      `mapstructure:"log"`
}

// ProjectSettings addresses an Azure AI Foundry project.
type ProjectSettings struct {
	Endpoint        string        `mapstructure:"endpoint"`
	ModelDeployment string        `mapstructure:"model_deployment"`
	APIVersion      string        `mapstructure:"api_version"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	RunTimeout      time.Duration `mapstructure:"run_timeout"`
}

// OpenAISettings addresses an Azure OpenAI resource. An empty APIKey means
// Entra ID.
type OpenAISettings struct {
	Endpoint            string `mapstructure:"endpoint"`
	APIKey              string `mapstructure:"api_key"`
	APIVersion          string `mapstructure:"api_version"`
	ChatDeployment      string `mapstructure:"chat_deployment"`
	EmbeddingDeployment string `mapstructure:"embedding_deployment"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`
}

type SearchSettings struct {
	Endpoint   string `mapstructure:"endpoint"`
	APIKey     string `mapstructure:"api_key"`
	Index      string `mapstructure:"index"`
	APIVersion string `mapstructure:"api_version"`
	TopK       int    `mapstructure:"top_k"`
}

// StorageSettings addresses a Blob Storage container. ConnectionString
// takes precedence over AccountURL.
type StorageSettings struct {
	AccountURL       string `mapstructure:"account_url"`
	Container        string `mapstructure:"container"`
	ConnectionString string `mapstructure:"connection_string"`
}

// ToolSettings holds the project connections used by hosted tools.
type ToolSettings struct {
	BingConnectionID    string `mapstructure:"bing_connection_id"`
	BrowserConnectionID string `mapstructure:"browser_connection_id"`
	SearchConnectionID  string `mapstructure:"search_connection_id"`
}

// CacheSettings selects the embedding cache: memory, redis or none.
type CacheSettings struct {
	Type          string        `mapstructure:"type"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type ChunkingSettings struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// LogSettings configures [NewLogger].
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Environment maps setting keys to the environment variables that override
// them.
var Environment = map[string]string{
	"project.endpoint":            "AZURE_AI_PROJECT_ENDPOINT",
	"project.model_deployment":    "AZURE_AI_MODEL_DEPLOYMENT_NAME",
	"project.api_version":         "AZURE_AI_AGENTS_API_VERSION",
	"openai.endpoint":             "AZURE_OPENAI_ENDPOINT",
	"openai.api_key":              "AZURE_OPENAI_API_KEY",
	"openai.api_version":          "AZURE_OPENAI_API_VERSION",
	"openai.chat_deployment":      "AZURE_OPENAI_CHAT_DEPLOYMENT",
	"openai.embedding_deployment": "AZURE_OPENAI_EMBEDDING_DEPLOYMENT",
	"search.endpoint":             "AZURE_SEARCH_ENDPOINT",
	"search.api_key":              "AZURE_SEARCH_API_KEY",
	"search.index":                "AZURE_SEARCH_INDEX",
	"storage.account_url":         "AZURE_STORAGE_ACCOUNT_URL",
	"storage.container":           "AZURE_STORAGE_CONTAINER",
	"storage.connection_string":   "AZURE_STORAGE_CONNECTION_STRING",
	"tools.bing_connection_id":    "BING_CONNECTION_ID",
	"tools.browser_connection_id": "BROWSER_AUTOMATION_CONNECTION_ID",
	"tools.search_connection_id":  "AI_SEARCH_CONNECTION_ID",
	"cache.type":                  "EMBEDDING_CACHE",
	"cache.redis_addr":            "REDIS_ADDR",
	"cache.redis_password":        "REDIS_PASSWORD",
	"log.level":                   "LOG_LEVEL",
	"log.format":                  "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project.endpoint", "")
	v.SetDefault("project.model_deployment", "gpt-4o")
	v.SetDefault("project.api_version", "2025-05-01")
	v.SetDefault("project.poll_interval", time.Second)
	v.SetDefault("project.run_timeout", 5*time.Minute)

	v.SetDefault("openai.endpoint", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.api_version", "2024-10-21")
	v.SetDefault("openai.chat_deployment", "gpt-4o")
	v.SetDefault("openai.embedding_deployment", "text-embedding-3-small")
	v.SetDefault("openai.embedding_dimensions", 1536)

	v.SetDefault("search.endpoint", "")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.index", "rag-demo-index")
	v.SetDefault("search.api_version", "2024-07-01")
	v.SetDefault("search.top_k", 5)

	v.SetDefault("storage.account_url", "")
	v.SetDefault("storage.container", "documents")
	v.SetDefault("storage.connection_string", "")

	v.SetDefault("tools.bing_connection_id", "")
	v.SetDefault("tools.browser_connection_id", "")
	v.SetDefault("tools.search_connection_id", "")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("chunking.size", 1000)
	v.SetDefault("chunking.overlap", 200)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads .env from the working directory if present, then path (YAML,
// JSON or TOML by extension) if non-empty, then the environment. Later
// sources win.
func Load(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	for key, env := range Environment {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &s, nil
}
