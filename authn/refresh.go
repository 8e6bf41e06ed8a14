package authn

import (
	"github.com/scc-digitalhub/AAC-sub005/clients"
	"github.com/scc-digitalhub/AAC-sub005/token"
)

// RefreshRotationValidator authenticates a public client by possession of a
// rotating refresh token. Possession alone is not enough: rotation is only
// trusted when the client opted in and the token descends from a
// PKCE-protected, user-delegated authorization_code grant with
// offline_access.
type RefreshRotationValidator struct {
	clients clients.Repo
	store   token.Store
}

func NewRefreshRotationValidator(clientRepo clients.Repo, store token.Store) *RefreshRotationValidator {
	return &RefreshRotationValidator{clients: clientRepo, store: store}
}

func (v *RefreshRotationValidator) Validate(candidate *Candidate) (*Authenticated, error) {
	record, err := v.store.ReadRefreshToken(candidate.RefreshToken)
	if err != nil {
		return nil, invalidClient(err)
	}

	if candidate.ClientID != "" && candidate.ClientID != record.ClientID {
		return nil, invalidClient(errOriginNotEligible)
	}

	client, err := v.clients.Get(record.ClientID)
	if err != nil {
		return nil, invalidClient(errClientNotFound)
	}
	if !client.RefreshTokenRotation {
		return nil, invalidClient(errRotationNotAllowed)
	}

	origin, err := v.store.ReadAuthentication(record)
	if err != nil {
		return nil, invalidClient(err)
	}

	if origin.GrantType != "authorization_code" {
		return nil, invalidClient(errOriginNotEligible)
	}
	if !origin.HasUserAuthentication() {
		return nil, invalidClient(errOriginNotEligible)
	}
	if !origin.HasScope("offline_access") {
		return nil, invalidClient(errOriginNotEligible)
	}
	if origin.CodeChallenge == "" || origin.CodeChallengeMethod == "" {
		return nil, invalidClient(errOriginNotEligible)
	}

	return &Authenticated{
		Client:               client,
		Method:               clients.AuthMethodNone,
		RealmID:              client.RealmID,
		Subject:              origin.Subject,
		Scopes:               origin.Scopes,
		Authorities:          client.Authorities,
		Origin:               origin,
		ConsumedRefreshToken: record.Token,
	}, nil
}
