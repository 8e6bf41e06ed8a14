package realms

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("realm not found")

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	realms map[string]*Realm
}

// NewInMemoryRepo creates a new in-memory realm repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		realms: make(map[string]*Realm),
	}
}

// Upsert stores or updates a realm
func (r *InMemoryRepo) Upsert(realm *Realm) error {
	if realm == nil {
		return errors.New("realm cannot be nil")
	}
	if realm.ID == "" {
		return errors.New("realm ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *realm
	r.realms[realm.ID] = &clone
	return nil
}

// Get retrieves a realm by ID
func (r *InMemoryRepo) Get(realmID string) (*Realm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	realm, exists := r.realms[realmID]
	if !exists {
		return nil, ErrNotFound
	}
	clone := *realm
	return &clone, nil
}

// Delete removes a realm
func (r *InMemoryRepo) Delete(realmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.realms, realmID)
	return nil
}

// List returns registered realms
func (r *InMemoryRepo) List(offset, limit int) ([]*Realm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Realm, 0, len(r.realms))
	for _, realm := range r.realms {
		clone := *realm
		all = append(all, &clone)
	}
	if offset >= len(all) {
		return []*Realm{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
