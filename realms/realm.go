package realms

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// RealmConfig holds per-realm token issuance settings.
type RealmConfig struct {
	// Issuer is the issuer URL stamped into tokens minted for this realm and
	// accepted as audience on inbound client assertions.
	Issuer string `json:"issuer"`

	// Audience is the default audience for realm access tokens.
	Audience string `json:"audience"`

	AccessTokenExpiry time.Duration `json:"accessTokenExpiry"`
}

// RealmKeys holds the realm's signing key material in PEM form.
type RealmKeys struct {
	KeyID         string `json:"keyId"`
	PrivateKeyPEM string `json:"privateKeyPem"`
	PublicKeyPEM  string `json:"publicKeyPem"`
}

// HasKeys reports whether the realm has a signing key pair configured.
func (k RealmKeys) HasKeys() bool {
	return k.PrivateKeyPEM != "" && k.PublicKeyPEM != ""
}

// Realm is a tenant of the identity server. Each realm registers its own
// clients and federated identity providers.
type Realm struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Config RealmConfig `json:"config"`
	Keys   RealmKeys   `json:"keys,omitempty"`
}

// New creates a realm, validating the identifier and applying defaults.
func New(id, name string, config RealmConfig) (*Realm, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("[realms.New] realm ID is required")
	}
	if config.AccessTokenExpiry == 0 {
		config.AccessTokenExpiry = 15 * time.Minute
	}
	return &Realm{
		ID:     id,
		Name:   name,
		Config: config,
	}, nil
}
