package tokenstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process [Store] for tests and short-lived clients. It
// holds the record in a mutex-guarded slot; it does not survive restarts.
type Memory struct {
	mu      sync.RWMutex
	tokens  Tokens
	present bool
}

// NewMemory describes the newmemory operation and its observable behavior.
//
// NewMemory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the stored record, if any.
func (m *Memory) Get(_ context.Context) (Tokens, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens, m.present, nil
}

// Set overwrites the record in one step.
func (m *Memory) Set(_ context.Context, t Tokens) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokens, err)
	}

	m.mu.Lock()
	m.tokens = t
	m.present = true
	m.mu.Unlock()

	return nil
}

// Clear removes the record. Clearing an empty store is a no-op.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.tokens = Tokens{}
	m.present = false
	m.mu.Unlock()

	return nil
}
