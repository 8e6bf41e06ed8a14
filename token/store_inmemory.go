package token

import (
	"errors"
	"sync"
	"time"
)

type storedToken struct {
	record RefreshTokenRecord
	origin OriginalAuthentication
}

// InMemoryStore is a thread-safe in-memory implementation of the Store interface
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*storedToken
}

// NewInMemoryStore creates a new in-memory refresh token store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[string]*storedToken),
	}
}

// StoreRefreshToken stores a refresh token with its originating authentication
func (s *InMemoryStore) StoreRefreshToken(record *RefreshTokenRecord, origin *OriginalAuthentication) error {
	if record == nil || record.Token == "" {
		return errors.New("refresh token record cannot be empty")
	}
	if origin == nil {
		return errors.New("original authentication cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &storedToken{record: *record, origin: *origin}
	stored.origin.Scopes = append([]string(nil), origin.Scopes...)
	s.tokens[record.Token] = stored
	return nil
}

// ReadRefreshToken resolves a refresh token value without consuming it
func (s *InMemoryStore) ReadRefreshToken(value string) (*RefreshTokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.tokens[value]
	if !exists {
		return nil, ErrRefreshTokenNotFound
	}
	if stored.record.Expired(time.Now()) {
		return nil, ErrRefreshTokenNotFound
	}
	record := stored.record
	return &record, nil
}

// ReadAuthentication loads the original authentication tied to a record
func (s *InMemoryStore) ReadAuthentication(record *RefreshTokenRecord) (*OriginalAuthentication, error) {
	if record == nil {
		return nil, ErrAuthenticationNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.tokens[record.Token]
	if !exists {
		return nil, ErrAuthenticationNotFound
	}
	origin := stored.origin
	origin.Scopes = append([]string(nil), stored.origin.Scopes...)
	return &origin, nil
}

// Delete removes a refresh token
func (s *InMemoryStore) Delete(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, value)
	return nil
}
