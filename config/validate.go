// Copyright (c) Microsoft. All rights reserved.

package config

import (
	"errors"
	"fmt"
)

// ErrMissingSetting reports a required setting that has no value.
var ErrMissingSetting = errors.New("config: missing setting")

// MissingSettingError names the missing key and the variable that sets it.
type MissingSettingError struct {
	Key string
	Env string
}

func (e *MissingSettingError) Error() string {
	if e.Env == "" {
		return fmt.Sprintf("config: %s is required", e.Key)
	}
	return fmt.Sprintf("config: %s is required (set %s)", e.Key, e.Env)
}

func (e *MissingSettingError) Unwrap() error { return ErrMissingSetting }

func missing(key string) error {
	return &MissingSettingError{Key: key, Env: Environment[key]}
}

// Validate checks the settings needed by the Agents service samples.
func (p ProjectSettings) Validate() error {
	if p.Endpoint == "" {
		return missing("project.endpoint")
	}
	if p.ModelDeployment == "" {
		return missing("project.model_deployment")
	}
	return nil
}

// Validate checks the settings needed for chat. Embedding settings are
// checked by [OpenAISettings.ValidateEmbeddings].
func (o OpenAISettings) Validate() error {
	if o.Endpoint == "" {
		return missing("openai.endpoint")
	}
	if o.ChatDeployment == "" {
		return missing("openai.chat_deployment")
	}
	return nil
}

func (o OpenAISettings) ValidateEmbeddings() error {
	if o.Endpoint == "" {
		return missing("openai.endpoint")
	}
	if o.EmbeddingDeployment == "" {
		return missing("openai.embedding_deployment")
	}
	if o.EmbeddingDimensions <= 0 {
		return missing("openai.embedding_dimensions")
	}
	return nil
}

func (s SearchSettings) Validate() error {
	if s.Endpoint == "" {
		return missing("search.endpoint")
	}
	if s.Index == "" {
		return missing("search.index")
	}
	return nil
}

// Validate requires a connection string or an account URL, plus a container.
func (s StorageSettings) Validate() error {
	if s.ConnectionString == "" && s.AccountURL == "" {
		return missing("storage.account_url")
	}
	if s.Container == "" {
		return missing("storage.container")
	}
	return nil
}
