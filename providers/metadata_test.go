package providers_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scc-digitalhub/AAC-sub005/providers"
	"github.com/scc-digitalhub/AAC-sub005/spid"
)

func testKeyAndCert(t *testing.T) (keyPEM, certPEM string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "sp.example.org"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	return keyPEM, certPEM
}

func testRelyingParty(t *testing.T) *providers.RelyingParty {
	keyPEM, certPEM := testKeyAndCert(t)
	return &providers.RelyingParty{
		RegistrationID:       "reg-1",
		RealmID:              "system",
		EntityID:             "https://sp.example.org",
		SigningKeyPEM:        keyPEM,
		SigningCertPEM:       certPEM,
		AssertionConsumerURL: "https://sp.example.org/saml/acs/reg-1",
		SingleLogoutURL:      "https://sp.example.org/saml/slo/reg-1",
		RequestedACR:         spid.ACRSpidL2,
		RequestedAttributes:  []spid.Attribute{spid.AttributeSpidCode, spid.AttributeFiscalNumber, spid.AttributeEmail},
		Organization: providers.Organization{
			Name:        "Example Org",
			DisplayName: "Example Organization",
			URL:         "https://example.org",
		},
		Contact: providers.ContactPerson{
			Company:      "Example Org",
			EmailAddress: "spid@example.org",
		},
	}
}

func TestMetadataResolver_Resolve(t *testing.T) {
	repo := providers.NewInMemoryRepo()
	require.NoError(t, repo.Upsert(testRelyingParty(t)))

	fixedID := func() string { return "_fixed-document-id" }

	t.Run("produces signed entity descriptor", func(t *testing.T) {
		resolver := providers.NewMetadataResolver(repo, providers.WithIDGenerator(fixedID))
		metadata, err := resolver.Resolve("reg-1")
		require.NoError(t, err)

		doc := string(metadata)
		require.Contains(t, doc, `entityID="https://sp.example.org"`)
		require.Contains(t, doc, "SPSSODescriptor")
		require.Contains(t, doc, "AssertionConsumerService")
		require.Contains(t, doc, `Name="fiscalNumber"`)
		require.Contains(t, doc, "SignatureValue")
		require.Contains(t, doc, "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256")
	})

	t.Run("deterministic with a fixed document ID", func(t *testing.T) {
		resolver := providers.NewMetadataResolver(repo, providers.WithIDGenerator(fixedID))
		first, err := resolver.Resolve("reg-1")
		require.NoError(t, err)
		second, err := resolver.Resolve("reg-1")
		require.NoError(t, err)
		require.Equal(t, string(first), string(second))
	})

	t.Run("distinct IDs differ only in ID and signature", func(t *testing.T) {
		ids := []string{"_id-one", "_id-two"}
		next := 0
		resolver := providers.NewMetadataResolver(repo, providers.WithIDGenerator(func() string {
			id := ids[next]
			next++
			return id
		}))

		first, err := resolver.Resolve("reg-1")
		require.NoError(t, err)
		second, err := resolver.Resolve("reg-1")
		require.NoError(t, err)

		require.Contains(t, string(first), `ID="_id-one"`)
		require.Contains(t, string(second), `ID="_id-two"`)
		require.True(t, strings.Contains(string(second), "AssertionConsumerService"))
	})

	t.Run("unknown registration fails", func(t *testing.T) {
		resolver := providers.NewMetadataResolver(repo)
		_, err := resolver.Resolve("no-such-registration")
		require.Error(t, err)
	})
}
