package authn

import (
	"crypto/rsa"
	"encoding/json"
	"strings"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/scc-digitalhub/AAC-sub005/clients"
)

// JwtAssertionValidator verifies RFC 7523 client assertions. The signing
// algorithm family decides which registered method the assertion verifies
// under: RSA signatures are private_key_jwt against the client's JWKS, HMAC
// signatures are client_secret_jwt against the raw client secret.
type JwtAssertionValidator struct {
	repo   clients.Repo
	claims *ClaimsValidator
	replay *ReplayCache
}

func NewJwtAssertionValidator(repo clients.Repo, claimsValidator *ClaimsValidator, replay *ReplayCache) *JwtAssertionValidator {
	return &JwtAssertionValidator{
		repo:   repo,
		claims: claimsValidator,
		replay: replay,
	}
}

func (v *JwtAssertionValidator) Validate(candidate *Candidate) (*Authenticated, error) {
	// First pass without verification, only to learn which client claims to
	// be speaking. Nothing from this pass is trusted until the signature
	// verifies.
	unverified, _, err := jwt.NewParser().ParseUnverified(candidate.Assertion, jwt.MapClaims{})
	if err != nil {
		return nil, invalidRequest("client_assertion is not a valid JWT")
	}
	clientID, err := unverified.Claims.GetIssuer()
	if err != nil || clientID == "" {
		return nil, invalidClient(errAssertionInvalid)
	}

	client, err := v.repo.Get(clientID)
	if err != nil {
		return nil, invalidClient(errClientNotFound)
	}

	method, err := methodForAlgorithm(unverified.Method.Alg())
	if err != nil {
		return nil, invalidClient(err)
	}
	if !client.AllowsMethod(method) {
		return nil, invalidClient(errMethodNotAllowed)
	}

	keyfunc, err := v.keyfuncFor(client, method)
	if err != nil {
		return nil, invalidClient(err)
	}

	// Temporal validation is handled by the claims validator, with skew and
	// window policy the library's defaults do not express.
	parsed, err := jwt.NewParser(jwt.WithoutClaimsValidation()).Parse(candidate.Assertion, keyfunc)
	if err != nil || !parsed.Valid {
		return nil, invalidClient(errAssertionInvalid)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, invalidClient(errAssertionInvalid)
	}
	if err := v.claims.Validate(mapClaims, clientID); err != nil {
		return nil, invalidClient(err)
	}

	if v.replay != nil {
		jti, _ := mapClaims["jti"].(string)
		if !v.replay.Observe(clientID, jti) {
			return nil, invalidClient(errAssertionReplayed)
		}
	}

	return &Authenticated{
		Client:      client,
		Method:      method,
		RealmID:     client.RealmID,
		Authorities: client.Authorities,
	}, nil
}

// methodForAlgorithm maps a JWS algorithm to the authentication method it
// verifies under.
func methodForAlgorithm(alg string) (clients.AuthMethod, error) {
	switch {
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		return clients.AuthMethodPrivateKeyJWT, nil
	case strings.HasPrefix(alg, "HS"):
		return clients.AuthMethodSecretJWT, nil
	default:
		return "", errors.Errorf("unsupported assertion algorithm %s", alg)
	}
}

func (v *JwtAssertionValidator) keyfuncFor(client *clients.Client, method clients.AuthMethod) (jwt.Keyfunc, error) {
	switch method {
	case clients.AuthMethodSecretJWT:
		if client.Encoding() != clients.SecretEncodingPlain {
			return nil, errors.New("client_secret_jwt requires a plain-encoded secret")
		}
		secret := []byte(client.Secret)
		return func(token *jwt.Token) (any, error) {
			return secret, nil
		}, nil

	case clients.AuthMethodPrivateKeyJWT:
		if client.JWKS == "" {
			return nil, errors.New("client has no registered JWKS")
		}
		var keySet jose.JSONWebKeySet
		if err := json.Unmarshal([]byte(client.JWKS), &keySet); err != nil {
			return nil, errors.Wrap(err, "parse client JWKS")
		}
		return func(token *jwt.Token) (any, error) {
			kid, _ := token.Header["kid"].(string)
			return rsaKeyFromSet(&keySet, kid)
		}, nil

	default:
		return nil, errors.Errorf("no key material for method %s", method)
	}
}

// rsaKeyFromSet selects the verification key: by kid when the assertion
// names one, otherwise the first RSA key in the set.
func rsaKeyFromSet(keySet *jose.JSONWebKeySet, kid string) (*rsa.PublicKey, error) {
	if kid != "" {
		for _, key := range keySet.Key(kid) {
			if publicKey, ok := key.Public().Key.(*rsa.PublicKey); ok {
				return publicKey, nil
			}
		}
		return nil, errors.Errorf("no RSA key %s in client JWKS", kid)
	}

	for _, key := range keySet.Keys {
		if publicKey, ok := key.Public().Key.(*rsa.PublicKey); ok {
			return publicKey, nil
		}
	}
	return nil, errors.New("no RSA key in client JWKS")
}
