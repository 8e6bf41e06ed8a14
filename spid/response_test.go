package spid_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scc-digitalhub/AAC-sub005/spid"
)

var (
	testNow            = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	testRequestInstant = testNow.Add(-30 * time.Second)
)

func compliantResponse(acr spid.ACR) *spid.Response {
	return &spid.Response{
		ID:           "resp-1",
		Version:      "2.0",
		IssueInstant: testNow.Add(-10 * time.Second).Format("2006-01-02T15:04:05Z"),
		InResponseTo: "req-1",
		Destination:  "https://sp.example.org/saml/acs/reg-1",
		Issuer: &spid.Issuer{
			Format: spid.NameIDFormatEntity,
			Value:  "https://idp.example.org",
		},
		Assertion: &spid.Assertion{
			AuthnStatements: []spid.AuthnStatement{{
				AuthnContext: spid.AuthnContext{ClassRef: string(acr)},
			}},
		},
	}
}

func responseExpectations(requested spid.ACR) spid.ResponseExpectations {
	return spid.ResponseExpectations{
		RequestID:      "req-1",
		RequestInstant: testRequestInstant,
		RequestedACR:   requested,
		ACSURL:         "https://sp.example.org/saml/acs/reg-1",
	}
}

func TestResponseValidator_Validate(t *testing.T) {
	v := spid.NewResponseValidator(spid.WithResponseNowFunc(func() time.Time { return testNow }))

	t.Run("compliant response passes", func(t *testing.T) {
		err := v.Validate(compliantResponse(spid.ACRSpidL2), responseExpectations(spid.ACRSpidL2))
		require.NoError(t, err)
	})

	t.Run("higher level than requested passes", func(t *testing.T) {
		err := v.Validate(compliantResponse(spid.ACRSpidL3), responseExpectations(spid.ACRSpidL2))
		require.NoError(t, err)
	})

	t.Run("level below requested yields SPID_ERROR_094", func(t *testing.T) {
		err := v.Validate(compliantResponse(spid.ACRSpidL1), responseExpectations(spid.ACRSpidL2))
		require.Error(t, err)
		validationErr, ok := err.(*spid.ValidationError)
		require.True(t, ok)
		require.True(t, validationErr.Has(spid.ErrorResponseACRBelowRequested))
		require.Equal(t, spid.ErrorCode("SPID_ERROR_094"), spid.ErrorResponseACRBelowRequested)
	})

	t.Run("wrong version", func(t *testing.T) {
		resp := compliantResponse(spid.ACRSpidL2)
		resp.Version = "1.1"
		err := v.Validate(resp, responseExpectations(spid.ACRSpidL2))
		require.Error(t, err)
		require.True(t, err.(*spid.ValidationError).Has(spid.ErrorResponseVersion))
	})

	t.Run("missing issue instant", func(t *testing.T) {
		resp := compliantResponse(spid.ACRSpidL2)
		resp.IssueInstant = ""
		err := v.Validate(resp, responseExpectations(spid.ACRSpidL2))
		require.True(t, err.(*spid.ValidationError).Has(spid.ErrorResponseIssueInstantMissing))
	})

	t.Run("unparseable issue instant", func(t *testing.T) {
		resp := compliantResponse(spid.ACRSpidL2)
		resp.IssueInstant = "2025-06-01 12:00:00"
		err := v.Validate(resp, responseExpectations(spid.ACRSpidL2))
		require.True(t, err.(*spid.ValidationError).Has(spid.ErrorResponseIssueInstantFormat))
	})

	t.Run("issue instant before the request", func(t *testing.T) {
		resp := compliantResponse(spid.ACRSpidL2)
		resp.IssueInstant = testRequestInstant.Add(-time.Minute).Format("2006-01-02T15:04:05Z")
		err := v.Validate(resp, responseExpectations(spid.ACRSpidL2))
		require.True(t, err.(*spid.ValidationError).Has(spid.ErrorResponseIssueInstantEarly))
	})

	t.Run("issuer format must be entity", func(t *testing.T) {
		resp := compliantResponse(spid.ACRSpidL2)
		resp.Issuer.Format = "urn:oasis:names:tc:SAML:2.0:nameid-format:transient"
		err := v.Validate(resp, responseExpectations(spid.ACRSpidL2))
		require.True(t, err.(*spid.ValidationError).Has(spid.ErrorResponseIssuerFormat))
	})

	t.Run("violations accumulate", func(t *testing.T) {
		resp := compliantResponse(spid.ACRSpidL1)
		resp.Version = "1.1"
		resp.InResponseTo = ""
		err := v.Validate(resp, responseExpectations(spid.ACRSpidL2))
		validationErr := err.(*spid.ValidationError)
		require.True(t, validationErr.Has(spid.ErrorResponseVersion))
		require.True(t, validationErr.Has(spid.ErrorResponseInResponseToMissing))
		require.True(t, validationErr.Has(spid.ErrorResponseACRBelowRequested))
		require.Equal(t, spid.ErrorResponseVersion, validationErr.Code())
	})
}

func TestParseInstant(t *testing.T) {
	t.Run("without milliseconds", func(t *testing.T) {
		instant, err := spid.ParseInstant("2025-06-01T12:00:00Z")
		require.NoError(t, err)
		require.Equal(t, testNow, instant)
	})

	t.Run("with milliseconds", func(t *testing.T) {
		instant, err := spid.ParseInstant("2025-06-01T12:00:00.250Z")
		require.NoError(t, err)
		require.Equal(t, testNow.Add(250*time.Millisecond), instant)
	})

	t.Run("offset timestamps are rejected", func(t *testing.T) {
		_, err := spid.ParseInstant("2025-06-01T12:00:00+02:00")
		require.Error(t, err)
	})
}

func TestParseResponse(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol"
                xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion"
                ID="resp-1" Version="2.0" IssueInstant="2025-06-01T12:00:00Z"
                InResponseTo="req-1" Destination="https://sp.example.org/saml/acs/reg-1">
  <saml:Issuer Format="urn:oasis:names:tc:SAML:2.0:nameid-format:entity">https://idp.example.org</saml:Issuer>
  <saml:Assertion ID="a-1" Version="2.0" IssueInstant="2025-06-01T12:00:00Z">
    <saml:AuthnStatement AuthnInstant="2025-06-01T12:00:00Z">
      <saml:AuthnContext>
        <saml:AuthnContextClassRef>https://www.spid.gov.it/SpidL2</saml:AuthnContextClassRef>
      </saml:AuthnContext>
    </saml:AuthnStatement>
  </saml:Assertion>
</samlp:Response>`

	resp, err := spid.ParseResponse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "2.0", resp.Version)
	require.Equal(t, "req-1", resp.InResponseTo)
	require.NotNil(t, resp.Issuer)
	require.Equal(t, "https://idp.example.org", resp.Issuer.Value)

	acr, err := resp.ObtainedACR()
	require.NoError(t, err)
	require.Equal(t, spid.ACRSpidL2, acr)
}
