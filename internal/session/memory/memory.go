// Package memory is an in-process StateStore. State is lost on restart.
package memory

import (
	"context"
	"sync"

	"yeargrid/internal/core"
	"yeargrid/internal/session"
)

type Store struct {
	mu     sync.RWMutex
	states map[string]core.State
}

var _ session.StateStore = (*Store)(nil)

func New() *Store {
	return &Store{states: make(map[string]core.State)}
}

func (s *Store) Load(_ context.Context, id string) (core.State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	return st, ok, nil
}

func (s *Store) Save(_ context.Context, id string, st core.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = st
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
