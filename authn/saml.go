package authn

import (
	"github.com/scc-digitalhub/AAC-sub005/providers"
	"github.com/scc-digitalhub/AAC-sub005/spid"
)

// SamlResponseValidator verifies a SPID response arriving at the assertion
// consumer: it correlates the response with the outbound request, then runs
// the response- and assertion-level compliance chains. Violations surface
// with their numbered codes instead of the opaque invalid_client used for
// client authentication.
type SamlResponseValidator struct {
	registrations      providers.Repo
	requests           spid.RequestStore
	responseValidator  *spid.ResponseValidator
	assertionValidator *spid.AssertionValidator
}

func NewSamlResponseValidator(
	registrations providers.Repo,
	requests spid.RequestStore,
	responseValidator *spid.ResponseValidator,
	assertionValidator *spid.AssertionValidator,
) *SamlResponseValidator {
	return &SamlResponseValidator{
		registrations:      registrations,
		requests:           requests,
		responseValidator:  responseValidator,
		assertionValidator: assertionValidator,
	}
}

func (v *SamlResponseValidator) Validate(candidate *Candidate) (*Authenticated, error) {
	rp, err := v.registrations.Get(candidate.RegistrationID)
	if err != nil {
		return nil, invalidRequest("unknown provider registration")
	}

	response, err := spid.ParseResponse(candidate.SamlResponse)
	if err != nil {
		return nil, invalidRequest("malformed SAMLResponse")
	}

	// Cryptographic verification runs before anything from the document is
	// trusted, and before the request is consumed: a forged response must
	// not burn the pending request of a legitimate login.
	idp, err := providers.ResolveIdP(rp)
	if err != nil {
		return nil, invalidRequest("identity provider metadata unavailable")
	}
	if err := providers.VerifyResponseSignature(candidate.SamlResponse, idp.SigningCerts); err != nil {
		return nil, invalidClient(err)
	}

	request, err := v.requests.Consume(response.InResponseTo)
	if err != nil {
		return nil, invalidRequest("unknown or expired authentication request")
	}
	if request.RegistrationID != rp.RegistrationID {
		return nil, invalidRequest("authentication request belongs to a different registration")
	}

	expectations := spid.ResponseExpectations{
		RequestID:      request.ID,
		RequestInstant: request.IssueInstant,
		RequestedACR:   request.RequestedACR,
		ACSURL:         rp.AssertionConsumerURL,
	}
	if err := v.responseValidator.Validate(response, expectations); err != nil {
		return nil, rejectionFor(err)
	}

	if response.Assertion == nil {
		return nil, invalidRequest("response carries no assertion")
	}
	assertionExpectations := spid.AssertionExpectations{
		RequestID:      request.ID,
		RequestInstant: request.IssueInstant,
		ACSURL:         rp.AssertionConsumerURL,
		SPEntityID:     rp.EntityID,
	}
	if err := v.assertionValidator.Validate(response.Assertion, assertionExpectations); err != nil {
		return nil, rejectionFor(err)
	}

	subject := ""
	if response.Assertion.Subject != nil && response.Assertion.Subject.NameID != nil {
		subject = response.Assertion.Subject.NameID.Value
	}

	return &Authenticated{
		RealmID:     rp.RealmID,
		Subject:     subject,
		Authorities: rp.Authorities,
	}, nil
}

func rejectionFor(err error) error {
	if validationErr, ok := err.(*spid.ValidationError); ok {
		return protocolViolation(validationErr)
	}
	return invalidRequest(err.Error())
}
