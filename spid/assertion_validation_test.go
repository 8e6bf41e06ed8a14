package spid_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scc-digitalhub/AAC-sub005/spid"
)

const instantLayout = "2006-01-02T15:04:05Z"

func compliantAssertion() *spid.Assertion {
	issueInstant := testNow.Add(-10 * time.Second)
	return &spid.Assertion{
		ID:           "a-1",
		Version:      "2.0",
		IssueInstant: issueInstant.Format(instantLayout),
		Issuer: &spid.Issuer{
			Format: spid.NameIDFormatEntity,
			Value:  "https://idp.example.org",
		},
		Signature: &spid.Signature{},
		Subject: &spid.Subject{
			NameID: &spid.NameID{
				Format:        "urn:oasis:names:tc:SAML:2.0:nameid-format:transient",
				NameQualifier: "https://idp.example.org",
				Value:         "SPID-1234",
			},
			SubjectConfirmations: []spid.SubjectConfirmation{{
				Method: "urn:oasis:names:tc:SAML:2.0:cm:bearer",
				Data: &spid.SubjectConfirmationData{
					Recipient:    "https://sp.example.org/saml/acs/reg-1",
					InResponseTo: "req-1",
					NotOnOrAfter: testNow.Add(5 * time.Minute).Format(instantLayout),
				},
			}},
		},
		Conditions: &spid.Conditions{
			NotBefore:    testNow.Add(-time.Minute).Format(instantLayout),
			NotOnOrAfter: testNow.Add(5 * time.Minute).Format(instantLayout),
			AudienceRestrictions: []spid.AudienceRestriction{{
				Audience: "https://sp.example.org",
			}},
		},
		AuthnStatements: []spid.AuthnStatement{{
			AuthnInstant: issueInstant.Format(instantLayout),
			AuthnContext: spid.AuthnContext{ClassRef: string(spid.ACRSpidL2)},
		}},
	}
}

func assertionExpectations() spid.AssertionExpectations {
	return spid.AssertionExpectations{
		RequestID:      "req-1",
		RequestInstant: testRequestInstant,
		ACSURL:         "https://sp.example.org/saml/acs/reg-1",
		SPEntityID:     "https://sp.example.org",
	}
}

func TestAssertionValidator_Validate(t *testing.T) {
	v := spid.NewAssertionValidator(spid.WithAssertionNowFunc(func() time.Time { return testNow }))

	violated := func(t *testing.T, err error, code spid.ErrorCode) {
		t.Helper()
		require.Error(t, err)
		validationErr, ok := err.(*spid.ValidationError)
		require.True(t, ok)
		require.True(t, validationErr.Has(code), "expected %s in %v", code, validationErr.Violations)
	}

	t.Run("compliant assertion passes", func(t *testing.T) {
		require.NoError(t, v.Validate(compliantAssertion(), assertionExpectations()))
	})

	t.Run("missing signature", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.Signature = nil
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionSignatureMissing)
	})

	t.Run("issue instant before the request", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.IssueInstant = testRequestInstant.Add(-time.Minute).Format(instantLayout)
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionIssueInstantEarly)
	})

	t.Run("issue instant in the future", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.IssueInstant = testNow.Add(time.Minute).Format(instantLayout)
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionIssueInstantInFuture)
	})

	t.Run("missing name qualifier", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.Subject.NameID.NameQualifier = ""
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionNameQualifierMissing)
	})

	t.Run("missing subject confirmation data", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.Subject.SubjectConfirmations = nil
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionSubjConfDataMissing)
	})

	t.Run("recipient mismatch", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.Subject.SubjectConfirmations[0].Data.Recipient = "https://other.example.org/acs"
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionSubjConfRecipient)
	})

	t.Run("expired subject confirmation", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.Subject.SubjectConfirmations[0].Data.NotOnOrAfter = testNow.Add(-time.Second).Format(instantLayout)
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionSubjConfNotOnOrAfter)
	})

	t.Run("missing conditions", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.Conditions = nil
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionConditionsMissing)
	})

	t.Run("current time outside the conditions window", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.Conditions.NotOnOrAfter = testNow.Add(-time.Second).Format(instantLayout)
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionConditionsInstants)
	})

	t.Run("audience restriction must name the service provider", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.Conditions.AudienceRestrictions = []spid.AudienceRestriction{{Audience: "https://other.example.org"}}
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionAudienceMissing)
	})

	t.Run("exactly one authn statement", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.AuthnStatements = append(assertion.AuthnStatements, assertion.AuthnStatements[0])
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionAuthnStatementCount)
	})

	t.Run("unrecognized authn context", func(t *testing.T) {
		assertion := compliantAssertion()
		assertion.AuthnStatements[0].AuthnContext.ClassRef = "urn:oasis:names:tc:SAML:2.0:ac:classes:Password"
		violated(t, v.Validate(assertion, assertionExpectations()), spid.ErrorAssertionAuthnContextUnrecognized)
	})
}
