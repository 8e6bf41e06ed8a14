package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var ErrOIDCProviderNotFound = errors.New("oidc provider not found")

// OIDCProvider is an upstream OpenID Connect provider a realm federates
// with. Endpoints are resolved through discovery from the issuer URL.
type OIDCProvider struct {
	RegistrationID string
	RealmID        string
	IssuerURL      string
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	Scopes         []string
	Authorities    []string
}

func (p *OIDCProvider) Clone() *OIDCProvider {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Scopes = append([]string(nil), p.Scopes...)
	clone.Authorities = append([]string(nil), p.Authorities...)
	return &clone
}

// OIDCRepo provides access to upstream OIDC provider registrations.
type OIDCRepo interface {
	Get(registrationID string) (*OIDCProvider, error)
	Upsert(provider *OIDCProvider) error
	Delete(registrationID string) error
}

// InMemoryOIDCRepo is a thread-safe in-memory implementation of the OIDCRepo
// interface
type InMemoryOIDCRepo struct {
	mu        sync.RWMutex
	providers map[string]*OIDCProvider
}

func NewInMemoryOIDCRepo() *InMemoryOIDCRepo {
	return &InMemoryOIDCRepo{
		providers: make(map[string]*OIDCProvider),
	}
}

func (r *InMemoryOIDCRepo) Get(registrationID string) (*OIDCProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[registrationID]
	if !exists {
		return nil, ErrOIDCProviderNotFound
	}
	return provider.Clone(), nil
}

func (r *InMemoryOIDCRepo) Upsert(provider *OIDCProvider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}
	if provider.RegistrationID == "" {
		return errors.New("registration ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider.RegistrationID] = provider.Clone()
	return nil
}

func (r *InMemoryOIDCRepo) Delete(registrationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[registrationID]; !exists {
		return ErrOIDCProviderNotFound
	}
	delete(r.providers, registrationID)
	return nil
}

// OIDCConnector performs the upstream leg of a federated OIDC login:
// discovery, code exchange, and ID token verification. Discovered providers
// are cached per registration.
type OIDCConnector struct {
	repo OIDCRepo

	mu         sync.Mutex
	discovered map[string]*oidc.Provider
}

func NewOIDCConnector(repo OIDCRepo) *OIDCConnector {
	return &OIDCConnector{
		repo:       repo,
		discovered: make(map[string]*oidc.Provider),
	}
}

// AuthCodeURL builds the authorization URL to redirect the user to.
func (c *OIDCConnector) AuthCodeURL(ctx context.Context, registrationID, state string) (string, error) {
	registration, provider, err := c.resolve(ctx, registrationID)
	if err != nil {
		return "", err
	}
	config := c.oauth2Config(registration, provider)
	return config.AuthCodeURL(state), nil
}

// Exchange redeems an authorization code at the upstream provider and
// verifies the returned ID token.
func (c *OIDCConnector) Exchange(ctx context.Context, registrationID, code string) (*oidc.IDToken, error) {
	registration, provider, err := c.resolve(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	config := c.oauth2Config(registration, provider)
	oauth2Token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[OIDCConnector.Exchange] code exchange")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, pkgerrors.New("[OIDCConnector.Exchange] token response carries no id_token")
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: registration.ClientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[OIDCConnector.Exchange] verify id_token")
	}
	return idToken, nil
}

func (c *OIDCConnector) resolve(ctx context.Context, registrationID string) (*OIDCProvider, *oidc.Provider, error) {
	registration, err := c.repo.Get(registrationID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, "[OIDCConnector.resolve] lookup registration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	provider, exists := c.discovered[registrationID]
	if !exists {
		provider, err = oidc.NewProvider(ctx, registration.IssuerURL)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(err, "[OIDCConnector.resolve] discovery")
		}
		c.discovered[registrationID] = provider
	}
	return registration, provider, nil
}

func (c *OIDCConnector) oauth2Config(registration *OIDCProvider, provider *oidc.Provider) *oauth2.Config {
	scopes := registration.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID}
	}
	return &oauth2.Config{
		ClientID:     registration.ClientID,
		ClientSecret: registration.ClientSecret,
		RedirectURL:  registration.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}
}
