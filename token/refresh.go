package token

import (
	"errors"
	"time"
)

var (
	ErrRefreshTokenNotFound   = errors.New("refresh token not found")
	ErrAuthenticationNotFound = errors.New("original authentication not found")
)

// RefreshTokenRecord is a stored refresh token handle.
type RefreshTokenRecord struct {
	Token     string
	ClientID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record's validity window has passed. Records
// without an ExpiresAt never expire by time.
func (r *RefreshTokenRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// OriginalAuthentication captures the grant a refresh token was minted from.
// The rotation validator re-checks it on every rotation: rotation is only
// trusted when the origin flow was a PKCE-protected, user-delegated
// authorization_code grant with offline_access.
type OriginalAuthentication struct {
	ClientID            string
	GrantType           string
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string

	// Subject is the authenticated user the grant was delegated by. Empty
	// for client-only grants such as client_credentials.
	Subject string
}

// HasUserAuthentication reports whether the originating grant carried a
// typed user authentication.
func (a *OriginalAuthentication) HasUserAuthentication() bool {
	return a != nil && a.Subject != ""
}

// HasScope reports whether the originating grant included a scope.
func (a *OriginalAuthentication) HasScope(scope string) bool {
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Store is the token store consulted by the refresh-rotation validator. Reads
// never consume: actual rotation (invalidate old, mint new) happens
// downstream once the engine approves.
type Store interface {
	ReadRefreshToken(value string) (*RefreshTokenRecord, error)
	ReadAuthentication(record *RefreshTokenRecord) (*OriginalAuthentication, error)
	StoreRefreshToken(record *RefreshTokenRecord, origin *OriginalAuthentication) error
	Delete(value string) error
}
