package token

// Response represents the response from an OAuth2 token request as defined
// in RFC 6749. Returned from the token endpoint for all grant types.
type Response struct {
	// AccessToken is the JWT token used to access protected resources.
	// Usage: include in Authorization header: "Bearer <access_token>"
	AccessToken *string `json:"access_token,omitempty"`

	// TokenType indicates how to use the access token (always "bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Rotates on each use when the client has rotation enabled.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is the space-separated list of granted scopes. May be less than
	// requested if some scopes were denied.
	Scope string `json:"scope,omitempty"`
}
