// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MessageStore persists the history of a local [Session].
type MessageStore interface {
	ListMessages(ctx context.Context) ([]Message, error)
	AddMessages(ctx context.Context, msgs []Message) error
}

// InMemoryStore keeps messages in memory. It is safe for concurrent use.
type InMemoryStore struct {
	mu       sync.Mutex
	messages []Message
}

func NewInMemoryStore() *InMemoryStore { return &InMemoryStore{} }

func (s *InMemoryStore) ListMessages(context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...), nil
}

func (s *InMemoryStore) AddMessages(_ context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
	return nil
}

// JSONFileStore is an [InMemoryStore] mirrored to a JSON transcript file.
// The file is rewritten in full on every append via a temp file and rename,
// so readers never observe a partial transcript.
type JSONFileStore struct {
	InMemoryStore
	path string
}

// OpenJSONFileStore loads the transcript at path, or starts empty if the file
// does not exist.
func OpenJSONFileStore(path string) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	msgs, err := UnmarshalMessages(data)
	if err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	s.messages = msgs
	return s, nil
}

func (s *JSONFileStore) Path() string { return s.path }

func (s *JSONFileStore) AddMessages(_ context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := append(append([]Message(nil), s.messages...), msgs...)
	data, err := MarshalMessages(all)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.messages = all
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp transcript: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
