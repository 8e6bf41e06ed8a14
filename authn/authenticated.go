package authn

import (
	"github.com/scc-digitalhub/AAC-sub005/clients"
	"github.com/scc-digitalhub/AAC-sub005/token"
)

// Authenticated is the principal produced by a successful validation. It
// carries the client snapshot, the method that actually authenticated it,
// and whatever grant context the scheme established.
type Authenticated struct {
	Client *clients.Client

	// Method is the authentication method the credential verified under,
	// which for jwt_assertion depends on the signing algorithm family.
	Method clients.AuthMethod

	RealmID string

	// Subject is the delegating user, when the scheme establishes one
	// (refresh rotation, SAML). Empty for pure client authentication.
	Subject string

	// Scopes granted by the originating flow, when the scheme carries them.
	Scopes []string

	// Authorities granted to the principal.
	Authorities []string

	// Origin is set for refresh rotation: the original authentication the
	// rotated token chain descends from.
	Origin *token.OriginalAuthentication

	// ConsumedRefreshToken is the refresh token that authenticated a
	// rotation, to be invalidated when the replacement is minted.
	ConsumedRefreshToken string
}
