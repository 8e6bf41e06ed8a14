package flow

import (
	"errors"
	"sync"
)

// InMemoryStore is a thread-safe in-memory implementation of the Store interface
type InMemoryStore struct {
	mu      sync.RWMutex
	pending map[string]*PendingAuthorization
}

// NewInMemoryStore creates a new in-memory authorization-code store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		pending: make(map[string]*PendingAuthorization),
	}
}

// Put stores a pending authorization under its code
func (s *InMemoryStore) Put(pending *PendingAuthorization) error {
	if pending == nil {
		return errors.New("pending authorization cannot be nil")
	}
	if pending.Code == "" {
		return errors.New("authorization code cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[pending.Code] = pending.Clone()
	return nil
}

// Peek reads a pending authorization without consuming it
func (s *InMemoryStore) Peek(code string) (*PendingAuthorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending, exists := s.pending[code]
	if !exists {
		return nil, ErrCodeNotFound
	}
	return pending.Clone(), nil
}

// Consume removes and returns a pending authorization. A code can be
// consumed exactly once.
func (s *InMemoryStore) Consume(code string) (*PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, exists := s.pending[code]
	if !exists {
		return nil, ErrCodeNotFound
	}
	delete(s.pending, code)
	return pending, nil
}
