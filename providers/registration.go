// Package providers manages the identity providers a realm federates with:
// SPID/SAML relying party registrations with their signed metadata, and
// upstream OIDC providers reached through discovery.
package providers

import (
	"errors"
	"sync"

	"github.com/scc-digitalhub/AAC-sub005/spid"
)

var ErrRegistrationNotFound = errors.New("provider registration not found")

// ContactPerson is the technical contact published in SP metadata.
type ContactPerson struct {
	Company      string
	EmailAddress string
	IPACode      string
}

// Organization is the organization block published in SP metadata.
type Organization struct {
	Name        string
	DisplayName string
	URL         string
}

// RelyingParty is a SPID service provider registration within a realm. It
// carries the signing material used for metadata and authentication
// requests, plus the endpoints and attribute set published to the identity
// provider federation.
type RelyingParty struct {
	RegistrationID string
	RealmID        string
	EntityID       string

	// PEM-encoded signing material for metadata and request signatures.
	SigningKeyPEM  string
	SigningCertPEM string

	AssertionConsumerURL string
	SingleLogoutURL      string

	RequestedACR        spid.ACR
	RequestedAttributes []spid.Attribute

	Organization Organization
	Contact      ContactPerson

	// Authorities granted to principals authenticated through this
	// registration.
	Authorities []string

	// IdPMetadataXML is the raw metadata of the upstream identity provider,
	// parsed on demand to obtain its SSO endpoint and signing certificates.
	IdPMetadataXML string
}

func (rp *RelyingParty) Clone() *RelyingParty {
	if rp == nil {
		return nil
	}
	clone := *rp
	clone.RequestedAttributes = append([]spid.Attribute(nil), rp.RequestedAttributes...)
	clone.Authorities = append([]string(nil), rp.Authorities...)
	return &clone
}

// Repo provides access to relying party registrations.
type Repo interface {
	Get(registrationID string) (*RelyingParty, error)
	Upsert(rp *RelyingParty) error
	Delete(registrationID string) error
	ListByRealm(realmID string) ([]*RelyingParty, error)
}

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu            sync.RWMutex
	registrations map[string]*RelyingParty
}

// NewInMemoryRepo creates a new in-memory registration repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		registrations: make(map[string]*RelyingParty),
	}
}

// Get retrieves a registration by ID
func (r *InMemoryRepo) Get(registrationID string) (*RelyingParty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rp, exists := r.registrations[registrationID]
	if !exists {
		return nil, ErrRegistrationNotFound
	}
	return rp.Clone(), nil
}

// Upsert creates or replaces a registration
func (r *InMemoryRepo) Upsert(rp *RelyingParty) error {
	if rp == nil {
		return errors.New("registration cannot be nil")
	}
	if rp.RegistrationID == "" {
		return errors.New("registration ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.registrations[rp.RegistrationID] = rp.Clone()
	return nil
}

// Delete removes a registration
func (r *InMemoryRepo) Delete(registrationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registrations[registrationID]; !exists {
		return ErrRegistrationNotFound
	}
	delete(r.registrations, registrationID)
	return nil
}

// ListByRealm returns all registrations belonging to a realm
func (r *InMemoryRepo) ListByRealm(realmID string) ([]*RelyingParty, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*RelyingParty
	for _, rp := range r.registrations {
		if rp.RealmID == realmID {
			result = append(result, rp.Clone())
		}
	}
	return result, nil
}
