package authn

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Engine is the authentication dispatcher: it runs the extractor chain over
// an incoming request and routes the winning candidate to its validator.
type Engine struct {
	extractors []Extractor
	secret     *SecretValidator
	pkce       *PKCEValidator
	assertion  *JwtAssertionValidator
	refresh    *RefreshRotationValidator
	saml       *SamlResponseValidator
	logger     zerolog.Logger
}

func NewEngine(
	secret *SecretValidator,
	pkce *PKCEValidator,
	assertion *JwtAssertionValidator,
	refresh *RefreshRotationValidator,
	saml *SamlResponseValidator,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		extractors: TokenEndpointExtractors(),
		secret:     secret,
		pkce:       pkce,
		assertion:  assertion,
		refresh:    refresh,
		saml:       saml,
		logger:     logger,
	}
}

// Authenticate extracts and verifies the client credential in a token
// endpoint request. Returns (nil, nil) when no scheme addresses the request,
// leaving the caller to decide whether the grant permits an unauthenticated
// client. Any error returned is a *Rejection safe to write to the wire.
func (e *Engine) Authenticate(r *http.Request) (*Authenticated, error) {
	if err := r.ParseForm(); err != nil {
		return nil, invalidRequest("malformed request body")
	}

	var candidate *Candidate
	for _, extractor := range e.extractors {
		extracted, err := extractor.Extract(r)
		if err != nil {
			return nil, AsRejection(err)
		}
		if extracted != nil {
			candidate = extracted
			break
		}
	}
	if candidate == nil {
		return nil, nil
	}
	defer candidate.Erase()

	authenticated, err := e.validate(candidate)
	if err != nil {
		rejection := AsRejection(err)
		e.logger.Warn().
			Str("kind", string(candidate.Kind)).
			Str("clientId", candidate.ClientID).
			Str("code", rejection.Code).
			Err(rejection.Unwrap()).
			Msg("authentication rejected")
		return nil, rejection
	}

	e.logger.Debug().
		Str("kind", string(candidate.Kind)).
		Str("method", string(authenticated.Method)).
		Str("realm", authenticated.RealmID).
		Msg("authentication accepted")
	return authenticated, nil
}

// AuthenticateSamlResponse verifies a SPID response posted to the assertion
// consumer endpoint of a registration.
func (e *Engine) AuthenticateSamlResponse(registrationID string, rawResponse []byte) (*Authenticated, error) {
	candidate := &Candidate{
		Kind:           KindSamlResponse,
		RegistrationID: registrationID,
		SamlResponse:   rawResponse,
	}
	defer candidate.Erase()

	authenticated, err := e.validate(candidate)
	if err != nil {
		rejection := AsRejection(err)
		e.logger.Warn().
			Str("kind", string(candidate.Kind)).
			Str("registrationId", registrationID).
			Str("code", rejection.Code).
			Err(rejection.Unwrap()).
			Msg("authentication rejected")
		return nil, rejection
	}
	return authenticated, nil
}

func (e *Engine) validate(candidate *Candidate) (*Authenticated, error) {
	switch candidate.Kind {
	case KindSecretBasic, KindSecretPost:
		return e.secret.Validate(candidate)
	case KindPKCE:
		return e.pkce.Validate(candidate)
	case KindJwtAssertion:
		return e.assertion.Validate(candidate)
	case KindRefreshRotation:
		return e.refresh.Validate(candidate)
	case KindSamlResponse:
		return e.saml.Validate(candidate)
	default:
		return nil, invalidClient(errClientNotFound)
	}
}
