package spid

import (
	"errors"
	"sync"
	"time"
)

var ErrRequestNotFound = errors.New("authentication request not found")

// AuthnRequest records an outbound SPID authentication request so that the
// response arriving at the assertion consumer can be correlated with what was
// actually asked.
type AuthnRequest struct {
	ID             string
	RegistrationID string
	IssueInstant   time.Time
	RequestedACR   ACR
	RelayState     string
	CreatedAt      time.Time
}

func (r *AuthnRequest) Clone() *AuthnRequest {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// RequestStore holds in-flight authentication requests keyed by request ID.
// Consume removes the request: a response may only answer a request once.
type RequestStore interface {
	Put(request *AuthnRequest) error
	Consume(requestID string) (*AuthnRequest, error)
}

// InMemoryRequestStore is a thread-safe in-memory implementation of the
// RequestStore interface. Requests that are never answered expire after a
// TTL and are swept on the next write.
type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]*AuthnRequest
	ttl      time.Duration
	nowFunc  func() time.Time
}

type RequestStoreOption func(*InMemoryRequestStore)

func WithRequestTTL(ttl time.Duration) RequestStoreOption {
	return func(s *InMemoryRequestStore) {
		s.ttl = ttl
	}
}

func WithRequestNowFunc(now func() time.Time) RequestStoreOption {
	return func(s *InMemoryRequestStore) {
		s.nowFunc = now
	}
}

// NewInMemoryRequestStore creates a new in-memory request store
func NewInMemoryRequestStore(options ...RequestStoreOption) *InMemoryRequestStore {
	s := &InMemoryRequestStore{
		requests: make(map[string]*AuthnRequest),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.ttl == 0 {
		s.ttl = 5 * time.Minute
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s
}

func (s *InMemoryRequestStore) expired(request *AuthnRequest, now time.Time) bool {
	return now.Sub(request.CreatedAt) > s.ttl
}

// Put stores an outbound request under its ID
func (s *InMemoryRequestStore) Put(request *AuthnRequest) error {
	if request == nil {
		return errors.New("request cannot be nil")
	}
	if request.ID == "" {
		return errors.New("request ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for id, pending := range s.requests {
		if s.expired(pending, now) {
			delete(s.requests, id)
		}
	}

	stored := request.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	s.requests[stored.ID] = stored
	return nil
}

// Consume removes and returns a stored request. An expired request behaves
// as if it was never stored.
func (s *InMemoryRequestStore) Consume(requestID string) (*AuthnRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, exists := s.requests[requestID]
	if !exists {
		return nil, ErrRequestNotFound
	}
	delete(s.requests, requestID)
	if s.expired(request, s.nowFunc()) {
		return nil, ErrRequestNotFound
	}
	return request, nil
}
