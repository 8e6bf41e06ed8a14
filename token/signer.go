package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs access token claims on behalf of a realm.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)

	// Keyfunc resolves the verification key for a parsed token header.
	Keyfunc(token *jwt.Token) (any, error)
}

// KeyPairSigner signs with an RSA key pair and publishes the public half
// through the realm JWKS endpoint.
type KeyPairSigner struct {
	keyPair *KeyPair
}

func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{keyPair: keyPair}
}

func (s *KeyPairSigner) Sign(claims jwt.MapClaims) (string, error) {
	tok := jwt.NewWithClaims(s.keyPair.GetSigningMethod(), claims)
	tok.Header["kid"] = s.keyPair.KeyID

	signed, err := tok.SignedString(s.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "[KeyPairSigner.Sign] sign claims")
	}
	return signed, nil
}

func (s *KeyPairSigner) Keyfunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, errors.Errorf("[KeyPairSigner.Keyfunc] unexpected signing method: %v", token.Header["alg"])
	}
	return s.keyPair.PublicKey, nil
}

// GetJWKS returns the key set containing the signer's public key.
func (s *KeyPairSigner) GetJWKS() (*JWKS, error) {
	jwk, err := s.keyPair.ToJWK()
	if err != nil {
		return nil, errors.Wrap(err, "[KeyPairSigner.GetJWKS] convert key")
	}
	return &JWKS{Keys: []JWK{*jwk}}, nil
}
