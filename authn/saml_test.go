package authn_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/stretchr/testify/require"

	"github.com/scc-digitalhub/AAC-sub005/authn"
	"github.com/scc-digitalhub/AAC-sub005/providers"
	"github.com/scc-digitalhub/AAC-sub005/spid"
)

var samlNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// samlIdP is a test identity provider: a signing key pair plus the metadata
// advertising its certificate, used both to configure registrations and to
// sign response fixtures.
type samlIdP struct {
	key     *rsa.PrivateKey
	certDER []byte
}

func newSamlIdP(t *testing.T) *samlIdP {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "idp.example.org"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	return &samlIdP{key: key, certDER: der}
}

func (i *samlIdP) metadataXML() string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<md:EntityDescriptor xmlns:md="urn:oasis:names:tc:SAML:2.0:metadata" entityID="https://idp.example.org">
  <md:IDPSSODescriptor protocolSupportEnumeration="urn:oasis:names:tc:SAML:2.0:protocol">
    <md:KeyDescriptor use="signing">
      <ds:KeyInfo xmlns:ds="http://www.w3.org/2000/09/xmldsig#">
        <ds:X509Data>
          <ds:X509Certificate>%s</ds:X509Certificate>
        </ds:X509Data>
      </ds:KeyInfo>
    </md:KeyDescriptor>
    <md:SingleSignOnService Binding="urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"
                            Location="https://idp.example.org/sso"/>
  </md:IDPSSODescriptor>
</md:EntityDescriptor>`, base64.StdEncoding.EncodeToString(i.certDER))
}

// signAssertion signs the saml:Assertion of a response document with the
// identity provider key, enveloping the signature inside the assertion.
func (i *samlIdP) signAssertion(t *testing.T, doc []byte) []byte {
	t.Helper()

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(doc))
	root := parsed.Root()
	require.NotNil(t, root)

	var assertion *etree.Element
	for _, child := range root.ChildElements() {
		if child.Tag == "Assertion" {
			assertion = child
			break
		}
	}
	require.NotNil(t, assertion)

	ctx := dsig.NewDefaultSigningContext(dsig.TLSCertKeyStore(tls.Certificate{
		Certificate: [][]byte{i.certDER},
		PrivateKey:  i.key,
	}))
	ctx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	require.NoError(t, ctx.SetSignatureMethod(dsig.RSASHA256SignatureMethod))

	signed, err := ctx.SignEnveloped(assertion)
	require.NoError(t, err)

	root.RemoveChild(assertion)
	root.AddChild(signed)

	out, err := parsed.WriteToBytes()
	require.NoError(t, err)
	return out
}

func samlResponseDocument(acr string, issueInstant time.Time) []byte {
	const layout = "2006-01-02T15:04:05Z"
	return []byte(fmt.Sprintf(`<?xml version="1.0"?>
<samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol"
                xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion"
                ID="resp-1" Version="2.0" IssueInstant="%[1]s"
                InResponseTo="req-1" Destination="https://sp.example.org/saml/acs/reg-1">
  <saml:Issuer Format="urn:oasis:names:tc:SAML:2.0:nameid-format:entity">https://idp.example.org</saml:Issuer>
  <saml:Assertion xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion" ID="a-1" Version="2.0" IssueInstant="%[1]s">
    <saml:Issuer Format="urn:oasis:names:tc:SAML:2.0:nameid-format:entity">https://idp.example.org</saml:Issuer>
    <saml:Subject>
      <saml:NameID Format="urn:oasis:names:tc:SAML:2.0:nameid-format:transient"
                   NameQualifier="https://idp.example.org">SPID-1234</saml:NameID>
      <saml:SubjectConfirmation Method="urn:oasis:names:tc:SAML:2.0:cm:bearer">
        <saml:SubjectConfirmationData Recipient="https://sp.example.org/saml/acs/reg-1"
                                      InResponseTo="req-1"
                                      NotOnOrAfter="%[2]s"/>
      </saml:SubjectConfirmation>
    </saml:Subject>
    <saml:Conditions NotBefore="%[3]s" NotOnOrAfter="%[2]s">
      <saml:AudienceRestriction>
        <saml:Audience>https://sp.example.org</saml:Audience>
      </saml:AudienceRestriction>
    </saml:Conditions>
    <saml:AuthnStatement AuthnInstant="%[1]s">
      <saml:AuthnContext>
        <saml:AuthnContextClassRef>%[4]s</saml:AuthnContextClassRef>
      </saml:AuthnContext>
    </saml:AuthnStatement>
  </saml:Assertion>
</samlp:Response>`,
		issueInstant.Format(layout),
		samlNow.Add(5*time.Minute).Format(layout),
		samlNow.Add(-2*time.Minute).Format(layout),
		acr,
	))
}

func newSamlValidator(t *testing.T, idp *samlIdP, requested spid.ACR) (*authn.SamlResponseValidator, spid.RequestStore) {
	t.Helper()

	registrations := providers.NewInMemoryRepo()
	require.NoError(t, registrations.Upsert(&providers.RelyingParty{
		RegistrationID:       "reg-1",
		RealmID:              "system",
		EntityID:             "https://sp.example.org",
		AssertionConsumerURL: "https://sp.example.org/saml/acs/reg-1",
		RequestedACR:         requested,
		Authorities:          []string{"ROLE_USER"},
		IdPMetadataXML:       idp.metadataXML(),
	}))

	nowFunc := func() time.Time { return samlNow }

	requests := spid.NewInMemoryRequestStore(spid.WithRequestNowFunc(nowFunc))
	require.NoError(t, requests.Put(&spid.AuthnRequest{
		ID:             "req-1",
		RegistrationID: "reg-1",
		IssueInstant:   samlNow.Add(-time.Minute),
		RequestedACR:   requested,
		CreatedAt:      samlNow.Add(-time.Minute),
	}))

	validator := authn.NewSamlResponseValidator(registrations, requests,
		spid.NewResponseValidator(spid.WithResponseNowFunc(nowFunc)),
		spid.NewAssertionValidator(spid.WithAssertionNowFunc(nowFunc)),
	)
	return validator, requests
}

func TestSamlResponseValidator_Validate(t *testing.T) {
	idp := newSamlIdP(t)

	t.Run("compliant response authenticates the subject", func(t *testing.T) {
		v, _ := newSamlValidator(t, idp, spid.ACRSpidL2)

		authenticated, err := v.Validate(&authn.Candidate{
			Kind:           authn.KindSamlResponse,
			RegistrationID: "reg-1",
			SamlResponse:   idp.signAssertion(t, samlResponseDocument(string(spid.ACRSpidL2), samlNow.Add(-10*time.Second))),
		})
		require.NoError(t, err)
		require.Equal(t, "SPID-1234", authenticated.Subject)
		require.Equal(t, "system", authenticated.RealmID)
		require.Equal(t, []string{"ROLE_USER"}, authenticated.Authorities)
	})

	t.Run("acr below requested surfaces SPID_ERROR_094", func(t *testing.T) {
		v, _ := newSamlValidator(t, idp, spid.ACRSpidL2)

		_, err := v.Validate(&authn.Candidate{
			Kind:           authn.KindSamlResponse,
			RegistrationID: "reg-1",
			SamlResponse:   idp.signAssertion(t, samlResponseDocument(string(spid.ACRSpidL1), samlNow.Add(-10*time.Second))),
		})
		require.Error(t, err)
		rejection := authn.AsRejection(err)
		require.Equal(t, "SPID_ERROR_094", rejection.Code)
		require.Equal(t, http.StatusBadRequest, rejection.Status)
	})

	t.Run("request is consumed exactly once", func(t *testing.T) {
		v, requests := newSamlValidator(t, idp, spid.ACRSpidL2)
		doc := idp.signAssertion(t, samlResponseDocument(string(spid.ACRSpidL2), samlNow.Add(-10*time.Second)))

		_, err := v.Validate(&authn.Candidate{
			Kind:           authn.KindSamlResponse,
			RegistrationID: "reg-1",
			SamlResponse:   doc,
		})
		require.NoError(t, err)

		_, err = requests.Consume("req-1")
		require.ErrorIs(t, err, spid.ErrRequestNotFound)

		_, err = v.Validate(&authn.Candidate{
			Kind:           authn.KindSamlResponse,
			RegistrationID: "reg-1",
			SamlResponse:   doc,
		})
		require.Error(t, err)
	})

	t.Run("assertion signed by an unknown key is rejected", func(t *testing.T) {
		v, requests := newSamlValidator(t, idp, spid.ACRSpidL2)
		rogue := newSamlIdP(t)

		_, err := v.Validate(&authn.Candidate{
			Kind:           authn.KindSamlResponse,
			RegistrationID: "reg-1",
			SamlResponse:   rogue.signAssertion(t, samlResponseDocument(string(spid.ACRSpidL2), samlNow.Add(-10*time.Second))),
		})
		require.Error(t, err)
		rejection := authn.AsRejection(err)
		require.Equal(t, "invalid_client", rejection.Code)
		require.Equal(t, http.StatusUnauthorized, rejection.Status)

		// The forged response must not burn the pending request.
		_, err = requests.Consume("req-1")
		require.NoError(t, err)
	})

	t.Run("garbage signature text is rejected", func(t *testing.T) {
		v, _ := newSamlValidator(t, idp, spid.ACRSpidL2)

		doc := etree.NewDocument()
		require.NoError(t, doc.ReadFromBytes(samlResponseDocument(string(spid.ACRSpidL2), samlNow.Add(-10*time.Second))))
		for _, child := range doc.Root().ChildElements() {
			if child.Tag != "Assertion" {
				continue
			}
			signature := child.CreateElement("ds:Signature")
			signature.CreateAttr("xmlns:ds", "http://www.w3.org/2000/09/xmldsig#")
			signature.CreateElement("ds:SignatureValue").SetText("bm90LWEtc2lnbmF0dXJl")
		}
		forged, err := doc.WriteToBytes()
		require.NoError(t, err)

		_, err = v.Validate(&authn.Candidate{
			Kind:           authn.KindSamlResponse,
			RegistrationID: "reg-1",
			SamlResponse:   forged,
		})
		require.Error(t, err)
		require.Equal(t, "invalid_client", authn.AsRejection(err).Code)
	})

	t.Run("unknown registration is rejected", func(t *testing.T) {
		v, _ := newSamlValidator(t, idp, spid.ACRSpidL2)

		_, err := v.Validate(&authn.Candidate{
			Kind:           authn.KindSamlResponse,
			RegistrationID: "ghost",
			SamlResponse:   samlResponseDocument(string(spid.ACRSpidL2), samlNow),
		})
		require.Error(t, err)
		require.Equal(t, "invalid_request", authn.AsRejection(err).Code)
	})
}
