package spid

import (
	"fmt"
	"time"
)

// AssertionValidator runs the assertion-level SPID compliance rules. Like the
// response validator it accumulates every violation instead of stopping at
// the first.
type AssertionValidator struct {
	nowFunc func() time.Time
}

type AssertionValidatorOption func(*AssertionValidator)

func WithAssertionNowFunc(now func() time.Time) AssertionValidatorOption {
	return func(v *AssertionValidator) {
		v.nowFunc = now
	}
}

func NewAssertionValidator(options ...AssertionValidatorOption) *AssertionValidator {
	v := &AssertionValidator{}
	for _, opt := range options {
		opt(v)
	}
	if v.nowFunc == nil {
		v.nowFunc = time.Now
	}
	return v
}

// AssertionExpectations carries the request context and service provider
// identity the assertion must be bound to.
type AssertionExpectations struct {
	RequestID      string
	RequestInstant time.Time
	ACSURL         string
	SPEntityID     string
}

// Validate checks a saml:Assertion against the SPID rules.
func (v *AssertionValidator) Validate(assertion *Assertion, expect AssertionExpectations) error {
	var violations []Violation
	now := v.nowFunc()

	add := func(code ErrorCode, format string, args ...any) {
		violations = append(violations, Violation{Code: code, Detail: fmt.Sprintf(format, args...)})
	}

	if assertion.Signature == nil {
		add(ErrorAssertionSignatureMissing, "assertion is not signed")
	}

	if assertion.IssueInstant == "" {
		add(ErrorAssertionIssueInstantMissing, "IssueInstant is missing")
	} else if instant, err := ParseInstant(assertion.IssueInstant); err != nil {
		add(ErrorAssertionIssueInstantFormat, "IssueInstant %q has invalid format", assertion.IssueInstant)
	} else {
		if instant.Before(expect.RequestInstant) {
			add(ErrorAssertionIssueInstantEarly, "IssueInstant %s precedes the request instant %s",
				instant.Format(instantLayout), expect.RequestInstant.Format(instantLayout))
		}
		if !instant.Before(now) {
			add(ErrorAssertionIssueInstantInFuture, "IssueInstant %s is not in the past", instant.Format(instantLayout))
		}
	}

	v.validateSubject(assertion.Subject, expect, add)

	if assertion.Issuer == nil || assertion.Issuer.Format != NameIDFormatEntity {
		add(ErrorAssertionIssuerFormat, "Issuer Format is not %s", NameIDFormatEntity)
	}

	v.validateConditions(assertion.Conditions, expect, now, add)

	if len(assertion.AuthnStatements) != 1 {
		add(ErrorAssertionAuthnStatementCount, "expected exactly one AuthnStatement, found %d", len(assertion.AuthnStatements))
	} else {
		classRef := assertion.AuthnStatements[0].AuthnContext.ClassRef
		if _, err := ParseACR(classRef); err != nil {
			add(ErrorAssertionAuthnContextUnrecognized, "AuthnContextClassRef %q is not a SPID level", classRef)
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (v *AssertionValidator) validateSubject(subject *Subject, expect AssertionExpectations, add func(ErrorCode, string, ...any)) {
	if subject == nil {
		add(ErrorAssertionNameQualifierMissing, "Subject is missing")
		add(ErrorAssertionSubjConfDataMissing, "SubjectConfirmationData is missing")
		return
	}

	if subject.NameID == nil || subject.NameID.NameQualifier == "" {
		add(ErrorAssertionNameQualifierMissing, "NameID NameQualifier is missing")
	}

	if len(subject.SubjectConfirmations) == 0 || subject.SubjectConfirmations[0].Data == nil {
		add(ErrorAssertionSubjConfDataMissing, "SubjectConfirmationData is missing")
		return
	}

	data := subject.SubjectConfirmations[0].Data
	if data.Recipient == "" || (expect.ACSURL != "" && data.Recipient != expect.ACSURL) {
		add(ErrorAssertionSubjConfRecipient, "Recipient %q does not match assertion consumer %q", data.Recipient, expect.ACSURL)
	}
	if data.InResponseTo == "" || data.InResponseTo != expect.RequestID {
		add(ErrorAssertionSubjConfInResponseTo, "InResponseTo %q does not match request %q", data.InResponseTo, expect.RequestID)
	}
	if data.NotOnOrAfter == "" {
		add(ErrorAssertionSubjConfNotOnOrAfter, "NotOnOrAfter is missing")
	} else if notOnOrAfter, err := ParseInstant(data.NotOnOrAfter); err != nil {
		add(ErrorAssertionSubjConfNotOnOrAfter, "NotOnOrAfter %q has invalid format", data.NotOnOrAfter)
	} else if !v.nowFunc().Before(notOnOrAfter) {
		add(ErrorAssertionSubjConfNotOnOrAfter, "NotOnOrAfter %s has passed", notOnOrAfter.Format(instantLayout))
	}
}

func (v *AssertionValidator) validateConditions(conditions *Conditions, expect AssertionExpectations, now time.Time, add func(ErrorCode, string, ...any)) {
	if conditions == nil {
		add(ErrorAssertionConditionsMissing, "Conditions is missing")
		return
	}

	if conditions.NotBefore == "" || conditions.NotOnOrAfter == "" {
		add(ErrorAssertionConditionsInstants, "Conditions NotBefore or NotOnOrAfter is missing")
	} else {
		notBefore, errBefore := ParseInstant(conditions.NotBefore)
		notOnOrAfter, errAfter := ParseInstant(conditions.NotOnOrAfter)
		switch {
		case errBefore != nil || errAfter != nil:
			add(ErrorAssertionConditionsInstants, "Conditions instants have invalid format")
		case now.Before(notBefore) || !now.Before(notOnOrAfter):
			add(ErrorAssertionConditionsInstants, "current time is outside the [NotBefore, NotOnOrAfter) window")
		}
	}

	if expect.SPEntityID != "" {
		found := false
		for _, restriction := range conditions.AudienceRestrictions {
			if restriction.Audience == expect.SPEntityID {
				found = true
				break
			}
		}
		if !found {
			add(ErrorAssertionAudienceMissing, "AudienceRestriction does not include %q", expect.SPEntityID)
		}
	}
}
