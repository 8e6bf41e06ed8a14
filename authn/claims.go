package authn

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	defaultClockSkew   = 60 * time.Second
	defaultMaxValidity = 300 * time.Second
)

// ClaimsValidator checks the claim set of a client assertion against RFC 7523
// requirements. All checks run and violations are reported together, so a
// misconfigured client learns everything wrong with its assertion at once
// (in logs; the wire response stays opaque).
type ClaimsValidator struct {
	audiences   []string
	clockSkew   time.Duration
	maxValidity time.Duration
	nowFunc     func() time.Time
}

type ClaimsValidatorOption func(*ClaimsValidator)

func WithClockSkew(skew time.Duration) ClaimsValidatorOption {
	return func(v *ClaimsValidator) {
		v.clockSkew = skew
	}
}

func WithMaxValidity(maxValidity time.Duration) ClaimsValidatorOption {
	return func(v *ClaimsValidator) {
		v.maxValidity = maxValidity
	}
}

func WithClaimsNowFunc(now func() time.Time) ClaimsValidatorOption {
	return func(v *ClaimsValidator) {
		v.nowFunc = now
	}
}

// NewClaimsValidator builds a validator accepting the given audience values,
// typically the token endpoint URL and the issuer identifier.
func NewClaimsValidator(audiences []string, options ...ClaimsValidatorOption) *ClaimsValidator {
	v := &ClaimsValidator{audiences: audiences}
	for _, opt := range options {
		opt(v)
	}
	if v.clockSkew == 0 {
		v.clockSkew = defaultClockSkew
	}
	if v.maxValidity == 0 {
		v.maxValidity = defaultMaxValidity
	}
	if v.nowFunc == nil {
		v.nowFunc = time.Now
	}
	return v
}

// Validate checks the assertion claims for the given client. Returns an
// error listing every violated requirement.
func (v *ClaimsValidator) Validate(claims jwt.MapClaims, clientID string) error {
	var violations []string
	now := v.nowFunc()

	add := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if issuer, err := claims.GetIssuer(); err != nil || issuer != clientID {
		add("iss must equal the client id")
	}
	if subject, err := claims.GetSubject(); err != nil || subject != clientID {
		add("sub must equal the client id")
	}

	if audience, err := claims.GetAudience(); err != nil || !v.audienceAccepted(audience) {
		add("aud must include the authorization server")
	}

	if jti, ok := claims["jti"].(string); !ok || jti == "" {
		add("jti is required")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		add("exp is required")
	} else if exp.Time.Before(now.Add(-v.clockSkew)) {
		add("assertion expired at %s", exp.Time.Format(time.RFC3339))
	}

	if nbf, err := claims.GetNotBefore(); err == nil && nbf != nil {
		if nbf.Time.After(now.Add(v.clockSkew)) {
			add("assertion not valid before %s", nbf.Time.Format(time.RFC3339))
		}
	}

	// The validity cap binds iat to exp; without an iat there is no window
	// to measure.
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		if iat.Time.After(now.Add(v.clockSkew)) {
			add("iat is in the future")
		}
		if exp != nil && exp.Time.After(iat.Time.Add(v.maxValidity)) {
			add("validity window exceeds %s", v.maxValidity)
		}
	}

	if len(violations) > 0 {
		return errors.Errorf("assertion claims rejected: %s", strings.Join(violations, "; "))
	}
	return nil
}

func (v *ClaimsValidator) audienceAccepted(audience jwt.ClaimStrings) bool {
	for _, presented := range audience {
		for _, accepted := range v.audiences {
			if presented == accepted {
				return true
			}
		}
	}
	return false
}
