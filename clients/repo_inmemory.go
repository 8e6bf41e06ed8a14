package clients

import (
	"errors"
	"sync"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewInMemoryRepo creates a new in-memory client repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		clients: make(map[string]*Client),
	}
}

// Upsert stores or updates a client configuration
func (r *InMemoryRepo) Upsert(client *Client) error {
	if client == nil {
		return errors.New("client cannot be nil")
	}
	if client.ID == "" {
		return errors.New("client ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modifications
	r.clients[client.ID] = client.Clone()
	return nil
}

// Get retrieves a client configuration by ID
func (r *InMemoryRepo) Get(clientID string) (*Client, error) {
	if clientID == "" {
		return nil, ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	client, exists := r.clients[clientID]
	if !exists {
		return nil, ErrNotFound
	}
	return client.Clone(), nil
}

// Delete removes a client configuration
func (r *InMemoryRepo) Delete(clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, clientID)
	return nil
}

// List returns clients belonging to a realm
func (r *InMemoryRepo) List(realmID string, offset, limit int) ([]*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		if realmID == "" || c.RealmID == realmID {
			all = append(all, c.Clone())
		}
	}
	if offset >= len(all) {
		return []*Client{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
