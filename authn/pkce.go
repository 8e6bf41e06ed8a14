package authn

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/scc-digitalhub/AAC-sub005/clients"
	"github.com/scc-digitalhub/AAC-sub005/flow"
)

// PKCEValidator verifies a code_verifier against the challenge recorded with
// the pending authorization (RFC 7636). Verification peeks at the pending
// record without consuming it: consumption belongs to the code exchange
// itself, after the whole request is approved.
type PKCEValidator struct {
	clients clients.Repo
	store   flow.Store
}

func NewPKCEValidator(clientRepo clients.Repo, store flow.Store) *PKCEValidator {
	return &PKCEValidator{clients: clientRepo, store: store}
}

func (v *PKCEValidator) Validate(candidate *Candidate) (*Authenticated, error) {
	pending, err := v.store.Peek(candidate.Code)
	if err != nil {
		return nil, invalidClient(err)
	}

	clientID := candidate.ClientID
	if clientID == "" {
		clientID = pending.ClientID
	}
	if clientID != pending.ClientID {
		return nil, invalidClient(errVerifierMismatch)
	}

	client, err := v.clients.Get(clientID)
	if err != nil {
		return nil, invalidClient(errClientNotFound)
	}
	if !client.AllowsMethod(clients.AuthMethodNone) {
		return nil, invalidClient(errMethodNotAllowed)
	}

	// A pending authorization without a challenge cannot be verified; it is
	// rejected rather than accepted without proof, so a stripped challenge
	// never downgrades the exchange.
	if pending.CodeChallenge == "" {
		return nil, invalidClient(errChallengeMissing)
	}

	method := pending.CodeChallengeMethod
	if method == "" {
		method = "plain"
	}

	var derived string
	switch method {
	case "plain":
		derived = candidate.CodeVerifier
	case "S256":
		derived = ComputeChallenge(candidate.CodeVerifier)
	default:
		return nil, invalidClient(errVerifierMismatch)
	}

	if subtle.ConstantTimeCompare([]byte(derived), []byte(pending.CodeChallenge)) != 1 {
		return nil, invalidClient(errVerifierMismatch)
	}

	return &Authenticated{
		Client:      client,
		Method:      clients.AuthMethodNone,
		RealmID:     client.RealmID,
		Subject:     pending.Subject,
		Scopes:      pending.Scopes,
		Authorities: client.Authorities,
	}, nil
}

// ComputeChallenge derives the S256 code challenge for a verifier:
// base64url-encoded SHA-256 without padding (RFC 7636 §4.2).
func ComputeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
