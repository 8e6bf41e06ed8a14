package clients

// AuthMethod is a token endpoint client authentication method, using the
// registered RFC 7591 metadata values.
type AuthMethod string

const (
	// AuthMethodSecretBasic authenticates with client_id/client_secret in an
	// Authorization: Basic header (RFC 6749 §2.3.1).
	AuthMethodSecretBasic AuthMethod = "client_secret_basic"

	// AuthMethodSecretPost authenticates with client_id/client_secret as
	// form-encoded body parameters.
	AuthMethodSecretPost AuthMethod = "client_secret_post"

	// AuthMethodPrivateKeyJWT authenticates with a client assertion signed
	// with the client's registered key pair (RFC 7523).
	AuthMethodPrivateKeyJWT AuthMethod = "private_key_jwt"

	// AuthMethodSecretJWT authenticates with a client assertion HMAC-signed
	// with the client secret (RFC 7523).
	AuthMethodSecretJWT AuthMethod = "client_secret_jwt"

	// AuthMethodNone is for public clients: no client credential, the
	// authorization code is bound with PKCE instead (RFC 7636).
	AuthMethodNone AuthMethod = "none"
)

// SecretEncoding selects how the stored client secret is compared against a
// presented secret.
type SecretEncoding string

const (
	// SecretEncodingPlain stores the secret as-is and compares in constant
	// time. This is the default and keeps client_secret_jwt usable, which
	// needs the raw secret as HMAC key.
	SecretEncodingPlain SecretEncoding = "plain"

	// SecretEncodingBcrypt stores a bcrypt hash of the secret. Clients using
	// this encoding cannot use client_secret_jwt.
	SecretEncodingBcrypt SecretEncoding = "bcrypt"
)

// Client is the stored configuration of an OAuth2/OIDC client within a realm.
// Instances returned by a Repo are snapshots: the authentication engine never
// mutates them.
type Client struct {
	ID             string         `json:"id"`
	RealmID        string         `json:"realmId"`
	Description    string         `json:"description"`
	Secret         string         `json:"secret"`
	SecretEncoding SecretEncoding `json:"secretEncoding,omitempty"`

	// AuthMethods is the set of token endpoint authentication methods the
	// client may use. A method outside this set is rejected even when the
	// presented credential would otherwise verify.
	AuthMethods []AuthMethod `json:"authMethods"`

	// JWKS holds the client's JSON Web Key Set as serialized JSON. Required
	// for private_key_jwt clients.
	JWKS string `json:"jwks,omitempty"`

	// RefreshTokenRotation enables the refresh-token rotation grant for this
	// client. When false, rotation requests are rejected outright.
	RefreshTokenRotation bool `json:"refreshTokenRotation"`

	// Authorities are the granted authorities attached to the authenticated
	// principal. They are looked up independently of the authentication
	// scheme: a credential authenticates identity, not authorization.
	Authorities []string `json:"authorities"`

	RedirectURIs []string `json:"redirectURIs"`
	Scopes       []string `json:"scopes"`
}

// AllowsMethod reports whether the client may authenticate with the given
// method.
func (c *Client) AllowsMethod(m AuthMethod) bool {
	for _, allowed := range c.AuthMethods {
		if allowed == m {
			return true
		}
	}
	return false
}

// Encoding returns the secret encoding, defaulting to plain for clients
// registered before the field existed.
func (c *Client) Encoding() SecretEncoding {
	if c.SecretEncoding == "" {
		return SecretEncodingPlain
	}
	return c.SecretEncoding
}

// HasScope checks if the client has permission for a specific scope
func (c *Client) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, used by repositories to hand out snapshots.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	clone := *c
	clone.AuthMethods = append([]AuthMethod(nil), c.AuthMethods...)
	clone.Authorities = append([]string(nil), c.Authorities...)
	clone.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	clone.Scopes = append([]string(nil), c.Scopes...)
	return &clone
}
