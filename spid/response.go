package spid

import (
	"fmt"
	"time"
)

// ResponseValidator runs the response-level SPID compliance rules against a
// parsed samlp:Response. Every rule is evaluated; violations accumulate into
// a single ValidationError.
type ResponseValidator struct {
	nowFunc func() time.Time
}

type ResponseValidatorOption func(*ResponseValidator)

func WithResponseNowFunc(now func() time.Time) ResponseValidatorOption {
	return func(v *ResponseValidator) {
		v.nowFunc = now
	}
}

func NewResponseValidator(options ...ResponseValidatorOption) *ResponseValidator {
	v := &ResponseValidator{}
	for _, opt := range options {
		opt(v)
	}
	if v.nowFunc == nil {
		v.nowFunc = time.Now
	}
	return v
}

// ResponseExpectations carries the context the response must match: the
// originating authentication request and the relying party's requested
// authentication level.
type ResponseExpectations struct {
	RequestID      string
	RequestInstant time.Time
	RequestedACR   ACR
	ACSURL         string
}

// Validate checks the response envelope against the SPID rules. The assertion
// inside the response is checked separately by AssertionValidator.
func (v *ResponseValidator) Validate(resp *Response, expect ResponseExpectations) error {
	var violations []Violation

	add := func(code ErrorCode, format string, args ...any) {
		violations = append(violations, Violation{Code: code, Detail: fmt.Sprintf(format, args...)})
	}

	if resp.Version != "2.0" {
		add(ErrorResponseVersion, "Version is %q, expected 2.0", resp.Version)
	}

	if resp.IssueInstant == "" {
		add(ErrorResponseIssueInstantMissing, "IssueInstant is missing")
	} else if instant, err := ParseInstant(resp.IssueInstant); err != nil {
		add(ErrorResponseIssueInstantFormat, "IssueInstant %q has invalid format", resp.IssueInstant)
	} else if instant.Before(expect.RequestInstant) {
		add(ErrorResponseIssueInstantEarly, "IssueInstant %s precedes the request instant %s",
			instant.Format(instantLayout), expect.RequestInstant.Format(instantLayout))
	}

	if resp.InResponseTo == "" || resp.InResponseTo != expect.RequestID {
		add(ErrorResponseInResponseToMissing, "InResponseTo %q does not match request %q", resp.InResponseTo, expect.RequestID)
	}

	if resp.Destination == "" {
		add(ErrorResponseDestinationMissing, "Destination is missing")
	} else if expect.ACSURL != "" && resp.Destination != expect.ACSURL {
		add(ErrorResponseDestinationMissing, "Destination %q does not match assertion consumer %q", resp.Destination, expect.ACSURL)
	}

	if resp.Issuer == nil || resp.Issuer.Format != NameIDFormatEntity {
		add(ErrorResponseIssuerFormat, "Issuer Format is not %s", NameIDFormatEntity)
	}

	if obtained, err := resp.ObtainedACR(); err == nil {
		if !obtained.Satisfies(expect.RequestedACR) {
			add(ErrorResponseACRBelowRequested, "authentication context %s is below the requested %s", obtained, expect.RequestedACR)
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
