// Package authn implements token endpoint client authentication: extracting
// candidate credentials from incoming requests, verifying them per scheme,
// and collapsing failures into opaque OAuth2 errors.
package authn

// Kind identifies the authentication scheme a candidate credential belongs
// to. Each kind maps to exactly one validator.
type Kind string

const (
	KindSecretBasic     Kind = "secret_basic"
	KindSecretPost      Kind = "secret_post"
	KindPKCE            Kind = "pkce"
	KindJwtAssertion    Kind = "jwt_assertion"
	KindRefreshRotation Kind = "refresh_rotation"
	KindSamlResponse    Kind = "saml_response"
)

// Candidate is an unverified credential pulled from a request. Exactly the
// fields for its Kind are set; everything else is zero. Secret material is
// held only for the duration of validation and erased afterwards.
type Candidate struct {
	Kind     Kind
	ClientID string

	// Secret is the presented client secret (secret_basic, secret_post).
	Secret string

	// Code and CodeVerifier carry a PKCE exchange (pkce).
	Code         string
	CodeVerifier string

	// Assertion is the raw compact JWT (jwt_assertion).
	Assertion string

	// RefreshToken is the presented refresh token (refresh_rotation).
	RefreshToken string

	// SamlResponse is the base64-decoded response document and
	// RegistrationID the relying party it arrived at (saml_response).
	SamlResponse   []byte
	RegistrationID string
}

// Erase zeroes the secret material. Callers defer it as soon as a candidate
// is extracted so secrets do not outlive validation.
func (c *Candidate) Erase() {
	if c == nil {
		return
	}
	c.Secret = ""
	c.CodeVerifier = ""
	c.Assertion = ""
	c.RefreshToken = ""
	c.SamlResponse = nil
}
