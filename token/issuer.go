package token

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/scc-digitalhub/AAC-sub005/realms"
)

// Issuer mints realm-scoped access and refresh tokens once the
// authentication engine has produced a principal. Signing is per-realm: a
// realm with registered keys gets its own signer, everything else falls back
// to the default.
type Issuer struct {
	realmRepo          realms.Repo
	store              Store
	defaultSigner      Signer
	defaultIssuer      string
	defaultAudience    string
	signersMu          sync.Mutex
	realmSigners       map[string]Signer
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func WithIssuerURL(issuer string) IssuerOption {
	return func(i *Issuer) {
		i.defaultIssuer = issuer
	}
}

func WithAudience(audience string) IssuerOption {
	return func(i *Issuer) {
		i.defaultAudience = audience
	}
}

func NewIssuer(realmRepo realms.Repo, store Store, defaultSigner Signer, options ...IssuerOption) *Issuer {
	i := &Issuer{
		realmRepo:     realmRepo,
		store:         store,
		defaultSigner: defaultSigner,
		realmSigners:  make(map[string]Signer),
	}

	for _, opt := range options {
		opt(i)
	}

	if i.accessTokenExpiry == 0 {
		i.accessTokenExpiry = 15 * time.Minute
	}
	if i.refreshTokenExpiry == 0 {
		i.refreshTokenExpiry = 7 * 24 * time.Hour
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i
}

// CreateAccessToken mints a signed JWT access token for an authenticated
// principal. Subject is the client id for client-only grants or the
// delegating user for user grants.
func (i *Issuer) CreateAccessToken(realmID, clientID, subject string, authorities []string, scope string) (*string, error) {
	issuer := i.getIssuerForRealm(realmID)
	audience := i.getAudienceForRealm(realmID)
	signer := i.getSignerForRealm(realmID)

	if subject == "" {
		subject = clientID
	}

	claims := jwt.MapClaims{
		"iss":       issuer,
		"sub":       subject,
		"aud":       audience,
		"client_id": clientID,
		"realm":     realmID,
		"iat":       i.nowFunc().Unix(),
		"exp":       i.nowFunc().Add(i.accessTokenExpiry).Unix(),
		"jti":       uuid.New().String(),
	}

	if len(authorities) > 0 {
		claims["authorities"] = authorities
	}
	if scope != "" {
		claims["scope"] = scope
	}

	signedToken, err := signer.Sign(claims)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.CreateAccessToken] sign")
	}
	return &signedToken, nil
}

// CreateRefreshToken mints an opaque refresh token bound to its originating
// authentication so that later rotations can be re-validated.
func (i *Issuer) CreateRefreshToken(origin *OriginalAuthentication) (*string, error) {
	if origin == nil {
		return nil, errors.New("[Issuer.CreateRefreshToken] origin is required")
	}

	tokenBytes := make([]byte, 32) // 256 bits
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, errors.Wrap(err, "[Issuer.CreateRefreshToken] rand.Read")
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	now := i.nowFunc()
	record := &RefreshTokenRecord{
		Token:     tokenStr,
		ClientID:  origin.ClientID,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.refreshTokenExpiry),
	}
	if err := i.store.StoreRefreshToken(record, origin); err != nil {
		return nil, errors.Wrap(err, "[Issuer.CreateRefreshToken] store")
	}

	return &tokenStr, nil
}

// Rotate invalidates a consumed refresh token and mints a replacement bound
// to the same origin.
func (i *Issuer) Rotate(oldToken string, origin *OriginalAuthentication) (*string, error) {
	if err := i.store.Delete(oldToken); err != nil {
		return nil, errors.Wrap(err, "[Issuer.Rotate] delete")
	}
	return i.CreateRefreshToken(origin)
}

// AccessTokenExpiry returns the configured access token lifetime.
func (i *Issuer) AccessTokenExpiry() time.Duration {
	return i.accessTokenExpiry
}

// RegisterRealmSigner registers a custom signer for a specific realm. This
// enables per-realm key rotation and isolation.
func (i *Issuer) RegisterRealmSigner(realmID string, signer Signer) {
	i.signersMu.Lock()
	defer i.signersMu.Unlock()
	i.realmSigners[realmID] = signer
}

// GetJWKS returns the JSON Web Key Set for public key distribution.
// Only works with KeyPairSigner (asymmetric keys).
func (i *Issuer) GetJWKS(realmID string) (*JWKS, error) {
	signer := i.getSignerForRealm(realmID)

	keyPairSigner, ok := signer.(*KeyPairSigner)
	if !ok {
		return nil, errors.New("JWKS only supported for asymmetric signing (RSA)")
	}

	return keyPairSigner.GetJWKS()
}

// getIssuerForRealm returns the issuer for a specific realm, or the default issuer
func (i *Issuer) getIssuerForRealm(realmID string) string {
	if realmID == "" {
		return i.defaultIssuer
	}

	if i.realmRepo != nil {
		if realm, err := i.realmRepo.Get(realmID); err == nil && realm.Config.Issuer != "" {
			return realm.Config.Issuer
		}
	}

	return i.defaultIssuer
}

// getAudienceForRealm returns the audience for a specific realm, or the default audience
func (i *Issuer) getAudienceForRealm(realmID string) string {
	if realmID == "" {
		return i.defaultAudience
	}

	if i.realmRepo != nil {
		if realm, err := i.realmRepo.Get(realmID); err == nil && realm.Config.Audience != "" {
			return realm.Config.Audience
		}
	}

	return i.defaultAudience
}

// getSignerForRealm returns the signer for a specific realm, or the default
// signer. A realm with stored key material gets its own signer, built lazily
// from the PEM pair and cached.
func (i *Issuer) getSignerForRealm(realmID string) Signer {
	if realmID == "" {
		return i.defaultSigner
	}

	i.signersMu.Lock()
	defer i.signersMu.Unlock()

	if signer, exists := i.realmSigners[realmID]; exists {
		return signer
	}

	if i.realmRepo != nil {
		if realm, err := i.realmRepo.Get(realmID); err == nil && realm.Keys.HasKeys() {
			keyPair, err := LoadKeyPairFromPEM(realm.Keys.KeyID, realm.Keys.PrivateKeyPEM, realm.Keys.PublicKeyPEM)
			if err == nil {
				signer := NewKeyPairSigner(keyPair)
				i.realmSigners[realmID] = signer
				return signer
			}
		}
	}

	return i.defaultSigner
}
