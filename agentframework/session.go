// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Session holds conversation state across runs. It is either service-backed,
// where history lives in a remote thread named by ServiceID, or local, where
// history lives in a [MessageStore]. Once a mode is chosen it cannot change.
type Session struct {
	mu              sync.Mutex
	id              string
	serviceID       string
	store           MessageStore
	contextProvider ContextProvider
}

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithSessionStore makes the session local, backed by store.
func WithSessionStore(store MessageStore) SessionOption {
	return func(s *Session) { s.store = store }
}

// WithServiceID makes the session service-backed.
func WithServiceID(id string) SessionOption {
	return func(s *Session) { s.serviceID = id }
}

// WithSessionContextProvider overrides the agent's context provider for runs
// in this session.
func WithSessionContextProvider(cp ContextProvider) SessionOption {
	return func(s *Session) { s.contextProvider = cp }
}

// NewSession returns a session with a random ID and no mode chosen yet.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{id: uuid.NewString()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// ServiceID returns the remote thread ID, or "" for local sessions.
func (s *Session) ServiceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serviceID
}

// SetServiceID binds the session to a remote thread.
func (s *Session) SetServiceID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return fmt.Errorf("%w: session %s is local", ErrSessionModeLocked, s.id)
	}
	if s.serviceID != "" && s.serviceID != id {
		return fmt.Errorf("%w: session %s is bound to %s", ErrSessionModeLocked, s.id, s.serviceID)
	}
	s.serviceID = id
	return nil
}

// Store returns the local store, or nil.
func (s *Session) Store() MessageStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// SetStore makes the session local.
func (s *Session) SetStore(store MessageStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serviceID != "" {
		return fmt.Errorf("%w: session %s is service-backed", ErrSessionModeLocked, s.id)
	}
	if s.store != nil && s.store != store {
		return fmt.Errorf("%w: session %s already has a store", ErrSessionModeLocked, s.id)
	}
	s.store = store
	return nil
}

func (s *Session) ContextProvider() ContextProvider { return s.contextProvider }
