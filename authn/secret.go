package authn

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/scc-digitalhub/AAC-sub005/clients"
)

// SecretValidator verifies client_secret_basic and client_secret_post
// candidates against the stored client secret.
type SecretValidator struct {
	repo clients.Repo
}

func NewSecretValidator(repo clients.Repo) *SecretValidator {
	return &SecretValidator{repo: repo}
}

// Validate verifies the presented secret. Every failure collapses to the
// same opaque rejection: an unknown client and a wrong secret are
// indistinguishable from outside.
func (v *SecretValidator) Validate(candidate *Candidate) (*Authenticated, error) {
	method := clients.AuthMethodSecretBasic
	if candidate.Kind == KindSecretPost {
		method = clients.AuthMethodSecretPost
	}

	// An empty presentation never authenticates, even when the stored
	// secret is itself empty.
	if candidate.ClientID == "" || candidate.Secret == "" {
		return nil, invalidClient(errSecretMismatch)
	}

	client, err := v.repo.Get(candidate.ClientID)
	if err != nil {
		// Burn comparable time for unknown clients so lookup failures are
		// not distinguishable from secret mismatches by timing.
		secretsMatch("", candidate.Secret)
		return nil, invalidClient(errClientNotFound)
	}

	if !client.AllowsMethod(method) {
		return nil, invalidClient(errMethodNotAllowed)
	}

	// A client without a stored secret cannot authenticate by secret.
	if client.Secret == "" {
		return nil, invalidClient(errSecretMismatch)
	}

	switch client.Encoding() {
	case clients.SecretEncodingBcrypt:
		if bcrypt.CompareHashAndPassword([]byte(client.Secret), []byte(candidate.Secret)) != nil {
			return nil, invalidClient(errSecretMismatch)
		}
	default:
		if !secretsMatch(client.Secret, candidate.Secret) {
			return nil, invalidClient(errSecretMismatch)
		}
	}

	return &Authenticated{
		Client:      client,
		Method:      method,
		RealmID:     client.RealmID,
		Authorities: client.Authorities,
	}, nil
}

// secretsMatch compares two secrets in constant time. Both sides are hashed
// first so the comparison length does not depend on either input.
func secretsMatch(stored, presented string) bool {
	storedSum := sha256.Sum256([]byte(stored))
	presentedSum := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(storedSum[:], presentedSum[:]) == 1
}
